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

// Package auth builds the canonical string to sign and computes the
// request signature for the OSS wire protocol.
package auth

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
)

// Signer computes a signature over a canonical string. The canonical
// string and the signer version must agree.
type Signer interface {
	Generate(stringToSign, secret string) string
	Version() int
}

type hmacSha1Signer struct{}

// NewSigner returns the version 1 HMAC-SHA1 signer.
func NewSigner() Signer {
	return hmacSha1Signer{}
}

func (hmacSha1Signer) Generate(stringToSign, secret string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (hmacSha1Signer) Version() int { return 1 }
