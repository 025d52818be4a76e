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

package auth

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

const testDate = "Wed, 28 Nov 2018 09:26:08 GMT"

func TestStringToSignSimpleGet(t *testing.T) {
	resource := CanonicalResource("examplebucket", "nelson", nil)
	require.Equal(t, "/examplebucket/nelson", resource)

	got := StringToSign("GET", testDate, nil, resource)
	require.Equal(t, "GET\n\n\n"+testDate+"\n/examplebucket/nelson", got)
}

func TestStringToSignWithOssHeaders(t *testing.T) {
	headers := map[string]string{
		"Content-Type":      "text/html",
		"x-oss-magic":       "abracadabra",
		"x-oss-meta-author": "foo@bar.com",
	}
	resource := CanonicalResource("oss-example", "nelson", nil)
	got := StringToSign("PUT", testDate, headers, resource)
	require.Equal(t,
		"PUT\n\ntext/html\n"+testDate+"\n"+
			"x-oss-magic:abracadabra\nx-oss-meta-author:foo@bar.com\n"+
			"/oss-example/nelson",
		got)
}

func TestStringToSignHeaderCaseInsensitive(t *testing.T) {
	lower := map[string]string{"x-oss-meta-a": "v", "content-type": "text/plain"}
	upper := map[string]string{"X-OSS-META-A": "v", "Content-Type": "text/plain"}
	resource := CanonicalResource("b", "k", nil)
	require.Equal(t,
		StringToSign("PUT", testDate, lower, resource),
		StringToSign("PUT", testDate, upper, resource))
}

func TestCanonicalResourceSubResources(t *testing.T) {
	params := map[string]string{"uploads": "", "prefix": "p"}
	require.Equal(t, "/bucket/?uploads", CanonicalResource("bucket", "", params))

	// non-whitelisted parameters never change the canonical form
	require.Equal(t,
		CanonicalResource("bucket", "key", map[string]string{"uploadId": "xyz"}),
		CanonicalResource("bucket", "key", map[string]string{"uploadId": "xyz", "prefix": "p"}))

	require.Equal(t, "/bucket/key?partNumber=5&uploadId=xyz",
		CanonicalResource("bucket", "key", map[string]string{"uploadId": "xyz", "partNumber": "5"}))
}

func TestCanonicalResourceShapes(t *testing.T) {
	require.Equal(t, "/", CanonicalResource("", "", nil))
	require.Equal(t, "/bucket/", CanonicalResource("bucket", "", nil))
	require.Equal(t, "/bucket/a/b", CanonicalResource("bucket", "a/b", nil))
}

func TestSignerGenerate(t *testing.T) {
	canonical := "GET\n\n\n" + testDate + "\n/examplebucket/nelson"
	mac := hmac.New(sha1.New, []byte("test-secret"))
	mac.Write([]byte(canonical))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	s := NewSigner()
	require.Equal(t, 1, s.Version())
	require.Equal(t, want, s.Generate(canonical, "test-secret"))
	// deterministic
	require.Equal(t, s.Generate(canonical, "test-secret"), s.Generate(canonical, "test-secret"))
}

func TestHeaderValueTrimmed(t *testing.T) {
	headers := map[string]string{"x-oss-meta-a": "  padded value  "}
	got := StringToSign("PUT", testDate, headers, "/b/k")
	require.Contains(t, got, "x-oss-meta-a:padded value\n")
}
