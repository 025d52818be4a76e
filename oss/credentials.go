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

// Credentials a snapshot of access credentials. SessionToken may be
// empty for long-lived keys.
type Credentials struct {
	AccessKeyID     string `json:"access_key_id"`
	AccessKeySecret string `json:"access_key_secret"`
	SessionToken    string `json:"session_token"`
}

// CredentialsProvider returns credentials for a request. The pipeline
// calls it on every attempt and never caches the result, so providers
// must be safe for concurrent use.
type CredentialsProvider interface {
	Credentials() Credentials
}

// StaticCredentialsProvider provider over fixed credentials.
type StaticCredentialsProvider struct {
	cred Credentials
}

// NewStaticCredentialsProvider returns a provider that always yields
// the given keys.
func NewStaticCredentialsProvider(keyID, keySecret, sessionToken string) *StaticCredentialsProvider {
	return &StaticCredentialsProvider{cred: Credentials{
		AccessKeyID:     keyID,
		AccessKeySecret: keySecret,
		SessionToken:    sessionToken,
	}}
}

// Credentials implements CredentialsProvider.
func (p *StaticCredentialsProvider) Credentials() Credentials { return p.cred }
