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
	"encoding/xml"
	"io/ioutil"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListBuckets(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/", r.URL.Path)
		w.Write([]byte(`<?xml version="1.0"?>
<ListAllMyBucketsResult>
  <Owner><ID>1234</ID><DisplayName>1234</DisplayName></Owner>
  <Buckets>
    <Bucket><Name>first</Name><Location>oss-cn-hangzhou</Location></Bucket>
    <Bucket><Name>second</Name><Location>oss-cn-shanghai</Location></Bucket>
  </Buckets>
</ListAllMyBucketsResult>`))
	})

	result, err := client.ListBuckets(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Buckets, 2)
	require.Equal(t, "first", result.Buckets[0].Name)
	require.Equal(t, "1234", result.Owner.ID)
}

func TestCreateBucketWithStorageClass(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/bucket", r.URL.Path)
		body, _ := ioutil.ReadAll(r.Body)
		var doc CreateBucketConfiguration
		require.NoError(t, xml.Unmarshal(body, &doc))
		require.Equal(t, "IA", doc.StorageClass)
	})
	require.NoError(t, client.CreateBucket(context.Background(), "bucket", "IA"))
}

func TestListObjectsParams(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "logs/", r.URL.Query().Get("prefix"))
		require.Equal(t, "100", r.URL.Query().Get("max-keys"))
		w.Write([]byte(`<ListBucketResult>
  <Name>bucket</Name>
  <IsTruncated>true</IsTruncated>
  <NextMarker>logs/0100</NextMarker>
  <Contents><Key>logs/0001</Key><Size>42</Size></Contents>
</ListBucketResult>`))
	})

	result, err := client.ListObjects(context.Background(), "bucket",
		WithParam("prefix", "logs/"), WithParam("max-keys", "100"))
	require.NoError(t, err)
	require.True(t, result.IsTruncated)
	require.Equal(t, "logs/0100", result.NextMarker)
	require.Len(t, result.Objects, 1)
	require.Equal(t, int64(42), result.Objects[0].Size)
}

func TestBucketAcl(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		_, hasAcl := r.URL.Query()["acl"]
		require.True(t, hasAcl)
		switch r.Method {
		case http.MethodPut:
			require.Equal(t, "public-read", r.Header.Get(HeaderOssACL))
		case http.MethodGet:
			w.Write([]byte(`<AccessControlPolicy>
  <Owner><ID>1234</ID></Owner>
  <AccessControlList><Grant>public-read</Grant></AccessControlList>
</AccessControlPolicy>`))
		}
	})

	require.NoError(t, client.SetBucketAcl(context.Background(), "bucket", "public-read"))
	acl, err := client.GetBucketAcl(context.Background(), "bucket")
	require.NoError(t, err)
	require.Equal(t, "public-read", acl.Grant)
}

func TestGetBucketLocation(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		_, hasLocation := r.URL.Query()["location"]
		require.True(t, hasLocation)
		w.Write([]byte(`<LocationConstraint>oss-cn-hangzhou</LocationConstraint>`))
	})
	loc, err := client.GetBucketLocation(context.Background(), "bucket")
	require.NoError(t, err)
	require.Equal(t, "oss-cn-hangzhou", loc)
}

func TestBucketLifecycleRoundTrip(t *testing.T) {
	var putBody []byte
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		_, hasLifecycle := r.URL.Query()["lifecycle"]
		require.True(t, hasLifecycle)
		switch r.Method {
		case http.MethodPut:
			require.NotEmpty(t, r.Header.Get(HeaderContentMD5))
			putBody, _ = ioutil.ReadAll(r.Body)
		case http.MethodGet:
			w.Write(putBody)
		}
	})

	rules := []LifecycleRule{{
		ID:         "expire-logs",
		Prefix:     "logs/",
		Status:     "Enabled",
		Expiration: LifecycleExpiration{Days: 30},
	}}
	require.NoError(t, client.SetBucketLifecycle(context.Background(), "bucket", rules))

	got, err := client.GetBucketLifecycle(context.Background(), "bucket")
	require.NoError(t, err)
	require.Len(t, got.Rules, 1)
	require.Equal(t, 30, got.Rules[0].Expiration.Days)

	err = client.SetBucketLifecycle(context.Background(), "bucket", nil)
	require.Error(t, err)
	require.Equal(t, CodeValidateError, err.(*Error).Code)
}

func TestDeleteObjectsQuiet(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		_, hasDelete := r.URL.Query()["delete"]
		require.True(t, hasDelete)
		body, _ := ioutil.ReadAll(r.Body)
		require.Contains(t, string(body), "<Quiet>true</Quiet>")
		w.Write([]byte(`<DeleteResult></DeleteResult>`))
	})
	_, err := client.DeleteObjects(context.Background(), "bucket", []string{"a", "b"}, true)
	require.NoError(t, err)

	_, err = client.DeleteObjects(context.Background(), "bucket", nil, false)
	require.Error(t, err)
	require.Equal(t, CodeValidateError, err.(*Error).Code)
}

func TestAppendObject(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "0", r.URL.Query().Get("position"))
		ioutil.ReadAll(r.Body)
		w.Header().Set(HeaderOssNextAppendPos, "7")
	})
	next, err := client.AppendObject(context.Background(), "bucket", "key", 0,
		strings.NewReader("payload"))
	require.NoError(t, err)
	require.Equal(t, int64(7), next)
}

func TestCopyObject(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/src-bucket/dir/src%20key", r.Header.Get(HeaderOssCopySource))
		w.Write([]byte(`<CopyObjectResult><ETag>"abc"</ETag></CopyObjectResult>`))
	})
	result, err := client.CopyObject(context.Background(), "bucket", "key", "src-bucket", "dir/src key")
	require.NoError(t, err)
	require.Equal(t, `"abc"`, result.ETag)

	_, err = client.CopyObject(context.Background(), "bucket", "key", "SRC", "k")
	require.Error(t, err)
	require.Equal(t, CodeValidateError, err.(*Error).Code)
}

func TestHeadObject(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodHead, r.Method)
		w.Header().Set(HeaderETag, `"etag-1"`)
		w.Header().Set(HeaderContentType, MIMEStream)
	})
	headers, err := client.HeadObject(context.Background(), "bucket", "key")
	require.NoError(t, err)
	require.Equal(t, `"etag-1"`, headers.Get(HeaderETag))
}

func TestSymlink(t *testing.T) {
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		_, hasSymlink := r.URL.Query()["symlink"]
		require.True(t, hasSymlink)
		switch r.Method {
		case http.MethodPut:
			require.Equal(t, "real/target.txt", r.Header.Get(HeaderOssSymlinkTarget))
		case http.MethodGet:
			w.Header().Set(HeaderOssSymlinkTarget, "real/target.txt")
		}
	})

	require.NoError(t, client.CreateSymlink(context.Background(), "bucket", "link", "real/target.txt"))
	target, err := client.GetSymlink(context.Background(), "bucket", "link")
	require.NoError(t, err)
	require.Equal(t, "real/target.txt", target)
}

func TestRestoreObject(t *testing.T) {
	var gotBody []byte
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		_, hasRestore := r.URL.Query()["restore"]
		require.True(t, hasRestore)
		gotBody, _ = ioutil.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	})

	require.NoError(t, client.RestoreObject(context.Background(), "bucket", "key", 3))
	require.Contains(t, string(gotBody), "<Days>3</Days>")

	require.NoError(t, client.RestoreObject(context.Background(), "bucket", "key", 0))
	require.Empty(t, gotBody)
}

func TestPutObjectByURLUnsigned(t *testing.T) {
	var calls int32
	client := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.Empty(t, r.Header.Get(HeaderAuthorization))
		body, _ := ioutil.ReadAll(r.Body)
		require.Equal(t, "direct upload", string(body))
	})

	url, err := client.GeneratePresignedURL("bucket", "key", http.MethodPut, 1900000000)
	require.NoError(t, err)
	_, err = client.PutObjectByURL(context.Background(), url, strings.NewReader("direct upload"))
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestConfigDefaults(t *testing.T) {
	conf := &Config{}
	fixConfig(conf)
	require.Equal(t, defaultScheme, conf.Scheme)
	require.Equal(t, defaultMaxConnections, conf.MaxConnections)
	require.Equal(t, int64(defaultRequestTimeoutMs), conf.RequestTimeoutMs)
	require.Equal(t, int64(defaultConnectTimeoutMs), conf.ConnectTimeoutMs)
	require.Equal(t, defaultMaxRetries, conf.MaxRetries)
	require.Equal(t, int64(defaultRetryScaleMs), conf.RetryScaleMs)
	require.Equal(t, UserAgent, conf.UserAgent)
	require.True(t, conf.crc64Enabled())
}
