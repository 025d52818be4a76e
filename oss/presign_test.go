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
	"context"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cloudstor/oss-go-sdk/common/auth"
)

func TestPresignURLQueryFields(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {})

	expires := time.Now().Unix() + 3600
	raw, err := client.GeneratePresignedURL("bucket", "dir/file.txt", http.MethodGet, expires)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "/bucket/dir/file.txt", u.Path)

	q := u.Query()
	require.Equal(t, strconv.FormatInt(expires, 10), q.Get("Expires"))
	require.Equal(t, "ak", q.Get("OSSAccessKeyId"))

	stringToSign := auth.StringToSign(http.MethodGet, strconv.FormatInt(expires, 10),
		nil, auth.CanonicalResource("bucket", "dir/file.txt", nil))
	require.Equal(t, auth.NewSigner().Generate(stringToSign, "sk"), q.Get("Signature"))
}

func TestPresignURLSessionToken(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {})

	conn := client.conn
	conn.provider = NewStaticCredentialsProvider("ak", "sk", "token-1")
	raw, err := conn.PresignURL("bucket", "key", http.MethodGet, 1700000000, nil, nil)
	require.NoError(t, err)

	u, _ := url.Parse(raw)
	require.Equal(t, "token-1", u.Query().Get("security-token"))
}

func TestPresignURLValidates(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.GeneratePresignedURL("AB", "key", http.MethodGet, 1700000000)
	require.Error(t, err)
	require.Equal(t, CodeValidateError, err.(*Error).Code)

	_, err = client.GeneratePresignedURL("bucket", "", http.MethodGet, 1700000000)
	require.Error(t, err)
}

func TestPresignURLEmptyCredentials(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {})
	client.conn.provider = NewStaticCredentialsProvider("", "", "")
	_, err := client.GeneratePresignedURL("bucket", "key", http.MethodGet, 1700000000)
	require.Error(t, err)
	require.Equal(t, CodeSignError, err.(*Error).Code)
}

func TestPresignRoundTrip(t *testing.T) {
	payload := []byte("presigned body")
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bucket/key", r.URL.Path)
		require.NotEmpty(t, r.URL.Query().Get("Signature"))
		require.Empty(t, r.Header.Get(HeaderAuthorization))
		w.Write(payload)
	})

	raw, err := client.GeneratePresignedURL("bucket", "key", http.MethodGet, time.Now().Unix()+600)
	require.NoError(t, err)

	resp, err := client.GetObjectByURL(context.Background(), raw)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, payload, data)
}
