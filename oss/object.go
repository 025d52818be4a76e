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
	"io"
	"net/http"
	"strconv"
)

// PutObject uploads body under bucket/key. The returned response
// carries ETag and request id; its body is already consumed.
func (c *Client) PutObject(ctx context.Context, bucket, key string, body io.Reader, opts ...Option) (*Response, error) {
	req := newObjectOp(bucket, key, applyOptions(opts))
	req.body = body
	req.flags = FlagCheckCRC64
	return c.doXML(ctx, http.MethodPut, req, nil)
}

// GetObject downloads an object. The caller must drain and close the
// returned body; the CRC64 check fires at end of stream unless a
// Range option was given.
func (c *Client) GetObject(ctx context.Context, bucket, key string, opts ...Option) (*Response, error) {
	req := newObjectOp(bucket, key, applyOptions(opts))
	req.flags = FlagCheckCRC64
	return c.conn.Do(ctx, http.MethodGet, req)
}

// DeleteObject removes one object.
func (c *Client) DeleteObject(ctx context.Context, bucket, key string, opts ...Option) error {
	_, err := c.doXML(ctx, http.MethodDelete, newObjectOp(bucket, key, applyOptions(opts)), nil)
	return err
}

// DeleteObjects removes up to 1000 objects in one call. quiet
// suppresses per-key results in the response.
func (c *Client) DeleteObjects(ctx context.Context, bucket string, keys []string, quiet bool, opts ...Option) (*DeleteObjectsResult, error) {
	if len(keys) == 0 {
		return nil, clientError(CodeValidateError, "delete keys must not be empty")
	}
	doc := deleteXML{Quiet: quiet}
	for _, k := range keys {
		doc.Objects = append(doc.Objects, deleteObjectXML{Key: k})
	}
	body, err := marshalXMLBody(&doc)
	if err != nil {
		return nil, err
	}
	ex := applyOptions(opts)
	ex.params["delete"] = ""
	ex.headers[HeaderContentType] = MIMEXML
	req := newBucketOp(bucket, ex)
	req.body = body
	req.flags = FlagContentMD5

	var result DeleteObjectsResult
	if quiet {
		_, err = c.doXML(ctx, http.MethodPost, req, nil)
		return &result, err
	}
	if _, err = c.doXML(ctx, http.MethodPost, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// HeadObject fetches object headers without the body.
func (c *Client) HeadObject(ctx context.Context, bucket, key string, opts ...Option) (http.Header, error) {
	resp, err := c.doXML(ctx, http.MethodHead, newObjectOp(bucket, key, applyOptions(opts)), nil)
	if err != nil {
		return nil, err
	}
	return resp.Headers, nil
}

// GetObjectMeta fetches the reduced metadata set (ETag, size, last
// modified) without the body.
func (c *Client) GetObjectMeta(ctx context.Context, bucket, key string, opts ...Option) (http.Header, error) {
	ex := applyOptions(opts)
	ex.params["objectMeta"] = ""
	resp, err := c.doXML(ctx, http.MethodHead, newObjectOp(bucket, key, ex), nil)
	if err != nil {
		return nil, err
	}
	return resp.Headers, nil
}

// AppendObject appends body at position and returns the next append
// position. The first append of a key uses position 0.
func (c *Client) AppendObject(ctx context.Context, bucket, key string, position int64, body io.Reader, opts ...Option) (int64, error) {
	ex := applyOptions(opts)
	ex.params["append"] = ""
	ex.params["position"] = strconv.FormatInt(position, 10)
	req := newObjectOp(bucket, key, ex)
	req.body = body
	req.flags = FlagCheckCRC64
	resp, err := c.doXML(ctx, http.MethodPost, req, nil)
	if err != nil {
		return 0, err
	}
	next, err := strconv.ParseInt(resp.Headers.Get(HeaderOssNextAppendPos), 10, 64)
	if err != nil {
		return 0, clientError(CodeParseXMLError, "bad next append position: %v", err)
	}
	return next, nil
}

// CopyObject server-side copies srcBucket/srcKey onto bucket/key.
func (c *Client) CopyObject(ctx context.Context, bucket, key, srcBucket, srcKey string, opts ...Option) (*CopyObjectResult, error) {
	if err := validateBucketName(srcBucket); err != nil {
		return nil, asOssError(err)
	}
	if err := validateObjectKey(srcKey); err != nil {
		return nil, asOssError(err)
	}
	ex := applyOptions(opts)
	ex.headers[HeaderOssCopySource] = "/" + srcBucket + "/" + encodePath(srcKey)
	var result CopyObjectResult
	if _, err := c.doXML(ctx, http.MethodPut, newObjectOp(bucket, key, ex), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetObjectAcl fetches the object ACL.
func (c *Client) GetObjectAcl(ctx context.Context, bucket, key string, opts ...Option) (*AccessControlPolicy, error) {
	ex := applyOptions(opts)
	ex.params["acl"] = ""
	var result AccessControlPolicy
	if _, err := c.doXML(ctx, http.MethodGet, newObjectOp(bucket, key, ex), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetObjectAcl sets the object ACL (default, private, public-read,
// public-read-write).
func (c *Client) SetObjectAcl(ctx context.Context, bucket, key, acl string, opts ...Option) error {
	ex := applyOptions(opts)
	ex.params["acl"] = ""
	ex.headers[HeaderOssObjectACL] = acl
	_, err := c.doXML(ctx, http.MethodPut, newObjectOp(bucket, key, ex), nil)
	return err
}

// CreateSymlink makes bucket/key a symlink pointing at target in the
// same bucket.
func (c *Client) CreateSymlink(ctx context.Context, bucket, key, target string, opts ...Option) error {
	if err := validateObjectKey(target); err != nil {
		return asOssError(err)
	}
	ex := applyOptions(opts)
	ex.params["symlink"] = ""
	ex.headers[HeaderOssSymlinkTarget] = encodePath(target)
	_, err := c.doXML(ctx, http.MethodPut, newObjectOp(bucket, key, ex), nil)
	return err
}

// GetSymlink returns the target key a symlink points at.
func (c *Client) GetSymlink(ctx context.Context, bucket, key string, opts ...Option) (string, error) {
	ex := applyOptions(opts)
	ex.params["symlink"] = ""
	resp, err := c.doXML(ctx, http.MethodGet, newObjectOp(bucket, key, ex), nil)
	if err != nil {
		return "", err
	}
	return resp.Headers.Get(HeaderOssSymlinkTarget), nil
}

// RestoreObject asks for an archived object to be restored for days
// days; zero days sends no body and uses the server default.
func (c *Client) RestoreObject(ctx context.Context, bucket, key string, days int, opts ...Option) error {
	ex := applyOptions(opts)
	ex.params["restore"] = ""
	req := newObjectOp(bucket, key, ex)
	if days > 0 {
		body, err := marshalXMLBody(&restoreRequestXML{Days: days})
		if err != nil {
			return err
		}
		req.body = body
		ex.headers[HeaderContentType] = MIMEXML
	}
	_, err := c.doXML(ctx, http.MethodPost, req, nil)
	return err
}

// GetObjectByURL downloads through a presigned URL; no signing is
// performed.
func (c *Client) GetObjectByURL(ctx context.Context, url string) (*Response, error) {
	return c.conn.Do(ctx, http.MethodGet, &UrlRequest{URL: url})
}

// PutObjectByURL uploads through a presigned URL; no signing is
// performed.
func (c *Client) PutObjectByURL(ctx context.Context, url string, body io.Reader) (*Response, error) {
	req := &UrlRequest{URL: url, Body: body}
	resp, err := c.conn.Do(ctx, http.MethodPut, req)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()
	return resp, nil
}
