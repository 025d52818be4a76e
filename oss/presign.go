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

package oss

import (
	"strconv"

	"github.com/cloudstor/oss-go-sdk/common/auth"
)

// PresignURL materializes a signed URL that grants the given method on
// bucket/key until the absolute unix timestamp expires. The expiry
// takes the date slot of the canonical string, so the emitted URL
// verifies under the same construction the server uses for headers.
func (c *Conn) PresignURL(bucket, key, method string, expires int64, headers, params map[string]string) (string, error) {
	if err := validateBucketName(bucket); err != nil {
		return "", err
	}
	if err := validateObjectKey(key); err != nil {
		return "", err
	}

	cred := c.provider.Credentials()
	if cred.AccessKeyID == "" || cred.AccessKeySecret == "" {
		return "", clientError(CodeSignError, "access key id or secret is empty")
	}

	signParams := make(map[string]string, len(params)+3)
	for k, v := range params {
		signParams[k] = v
	}
	if cred.SessionToken != "" {
		signParams["security-token"] = cred.SessionToken
	}

	expiresStr := strconv.FormatInt(expires, 10)
	resource := auth.CanonicalResource(bucket, key, signParams)
	stringToSign := auth.StringToSign(method, expiresStr, headers, resource)
	signature := c.signer.Generate(stringToSign, cred.AccessKeySecret)

	signParams["Expires"] = expiresStr
	signParams["OSSAccessKeyId"] = cred.AccessKeyID
	signParams["Signature"] = signature

	return composeURL(c.conf.Scheme, c.endpoint, bucket, key, c.conf.IsCname, signParams), nil
}
