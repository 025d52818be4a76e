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
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func requireValidateError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	e, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, CodeValidateError, e.Code)
}

func TestValidateBucketName(t *testing.T) {
	require.NoError(t, validateBucketName("abc"))
	require.NoError(t, validateBucketName("my-bucket-01"))

	requireValidateError(t, validateBucketName("AB"))
	requireValidateError(t, validateBucketName("ab"))
	requireValidateError(t, validateBucketName(strings.Repeat("a", 64)))
	requireValidateError(t, validateBucketName("UpperCase"))
	requireValidateError(t, validateBucketName("-lead"))
	requireValidateError(t, validateBucketName("trail-"))
	requireValidateError(t, validateBucketName("has_underscore"))
}

func TestValidateObjectKey(t *testing.T) {
	require.NoError(t, validateObjectKey("k"))
	require.NoError(t, validateObjectKey("dir/sub/file.txt"))
	require.NoError(t, validateObjectKey(strings.Repeat("k", 1023)))

	requireValidateError(t, validateObjectKey(""))
	requireValidateError(t, validateObjectKey(strings.Repeat("k", 1024)))
	requireValidateError(t, validateObjectKey("/lead"))
	requireValidateError(t, validateObjectKey("\\lead"))
}

func TestRequestBases(t *testing.T) {
	br := &BucketRequest{BucketName: "bucket"}
	require.Equal(t, "bucket", br.Bucket())
	require.Equal(t, "", br.Key())
	require.NoError(t, br.Validate())

	or := &ObjectRequest{BucketRequest: BucketRequest{BucketName: "bucket"}, ObjectKey: "key"}
	require.Equal(t, "key", or.Key())
	require.NoError(t, or.Validate())

	or.ObjectKey = ""
	requireValidateError(t, or.Validate())

	ur := &UrlRequest{URL: "http://h/p?x"}
	require.Equal(t, FlagParamInPath, ur.Flags())
	require.NoError(t, ur.Validate())
	requireValidateError(t, (&UrlRequest{}).Validate())
}
