// Copyright 2024 The CloudStor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package oss is a client for an S3-compatible object storage service.
// The pipeline turns a typed request into a signed HTTP exchange with
// retries and end-to-end CRC64 verification.
package oss

import (
	"fmt"
	"runtime"
)

// Version sdk version.
const Version = "1.0.0"

// wire headers
const (
	HeaderDate          = "Date"
	HeaderUserAgent     = "User-Agent"
	HeaderContentType   = "Content-Type"
	HeaderContentLength = "Content-Length"
	HeaderContentMD5    = "Content-MD5"
	HeaderAuthorization = "Authorization"
	HeaderRange         = "Range"
	HeaderETag          = "ETag"
	HeaderLastModified  = "Last-Modified"

	HeaderOssRequestID     = "X-Oss-Request-Id"
	HeaderOssCrc64         = "X-Oss-Hash-Crc64ecma"
	HeaderOssSecurityToken = "X-Oss-Security-Token"
	HeaderOssSymlinkTarget = "X-Oss-Symlink-Target"
	HeaderOssACL           = "X-Oss-Acl"
	HeaderOssObjectACL     = "X-Oss-Object-Acl"
	HeaderOssCopySource    = "X-Oss-Copy-Source"
	HeaderOssMetaPrefix    = "X-Oss-Meta-"
	HeaderOssNextAppendPos = "X-Oss-Next-Append-Position"
)

// MIME
const (
	MIMEXML    = "application/xml"
	MIMEStream = "application/octet-stream"
)

// client-synthesized error codes
const (
	CodeValidateError  = "ValidateError"
	CodeParseXMLError  = "ParseXMLError"
	CodeCancelled      = "Cancelled"
	CodeClientDisabled = "ClientDisabled"
	CodeCrcCheckError  = "CrcCheckError"
	CodeSignError      = "SignError"
)

// ErrCRCInconsistent status marking a CRC64 mismatch between the
// streamed body and the server-declared checksum.
const ErrCRCInconsistent = -2

// defaults
const (
	defaultMaxConnections   = 16
	defaultRequestTimeoutMs = 10000
	defaultConnectTimeoutMs = 5000
	defaultMaxRetries       = 3
	defaultRetryScaleMs     = 300
	defaultScheme           = "http"
)

// UserAgent default value of the User-Agent header.
var UserAgent string

func init() {
	UserAgent = fmt.Sprintf("cloudstor-oss-go-sdk/%s (%s/%s; %s)",
		Version, runtime.GOOS, runtime.GOARCH, runtime.Version())
}
