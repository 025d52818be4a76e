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
	"net/http"
)

// CreateBucket creates a bucket. An optional storage class is set via
// WithHeader(HeaderOssACL, ...) for the ACL and the storageClass
// argument for the class; empty storageClass sends no body.
func (c *Client) CreateBucket(ctx context.Context, bucket, storageClass string, opts ...Option) error {
	ex := applyOptions(opts)
	req := newBucketOp(bucket, ex)
	if storageClass != "" {
		body, err := marshalXMLBody(&CreateBucketConfiguration{StorageClass: storageClass})
		if err != nil {
			return err
		}
		req.body = body
		ex.headers[HeaderContentType] = MIMEXML
	}
	_, err := c.doXML(ctx, http.MethodPut, req, nil)
	return err
}

// DeleteBucket removes an empty bucket.
func (c *Client) DeleteBucket(ctx context.Context, bucket string, opts ...Option) error {
	_, err := c.doXML(ctx, http.MethodDelete, newBucketOp(bucket, applyOptions(opts)), nil)
	return err
}

// ListObjects lists objects in a bucket. Pagination and filtering via
// WithParam: prefix, marker, delimiter, max-keys.
func (c *Client) ListObjects(ctx context.Context, bucket string, opts ...Option) (*ListObjectsResult, error) {
	req := newBucketOp(bucket, applyOptions(opts))
	var result ListObjectsResult
	if _, err := c.doXML(ctx, http.MethodGet, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetBucketAcl fetches the bucket ACL.
func (c *Client) GetBucketAcl(ctx context.Context, bucket string, opts ...Option) (*AccessControlPolicy, error) {
	ex := applyOptions(opts)
	ex.params["acl"] = ""
	var result AccessControlPolicy
	if _, err := c.doXML(ctx, http.MethodGet, newBucketOp(bucket, ex), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetBucketAcl sets the bucket ACL (private, public-read,
// public-read-write).
func (c *Client) SetBucketAcl(ctx context.Context, bucket, acl string, opts ...Option) error {
	ex := applyOptions(opts)
	ex.params["acl"] = ""
	ex.headers[HeaderOssACL] = acl
	_, err := c.doXML(ctx, http.MethodPut, newBucketOp(bucket, ex), nil)
	return err
}

// GetBucketLocation fetches the bucket's region.
func (c *Client) GetBucketLocation(ctx context.Context, bucket string, opts ...Option) (string, error) {
	ex := applyOptions(opts)
	ex.params["location"] = ""
	var result LocationConstraint
	if _, err := c.doXML(ctx, http.MethodGet, newBucketOp(bucket, ex), &result); err != nil {
		return "", err
	}
	return result.Location, nil
}

// GetBucketInfo fetches bucket metadata.
func (c *Client) GetBucketInfo(ctx context.Context, bucket string, opts ...Option) (*BucketInfo, error) {
	ex := applyOptions(opts)
	ex.params["bucketInfo"] = ""
	var result BucketInfo
	if _, err := c.doXML(ctx, http.MethodGet, newBucketOp(bucket, ex), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetBucketStat fetches storage usage counters.
func (c *Client) GetBucketStat(ctx context.Context, bucket string, opts ...Option) (*BucketStat, error) {
	ex := applyOptions(opts)
	ex.params["stat"] = ""
	var result BucketStat
	if _, err := c.doXML(ctx, http.MethodGet, newBucketOp(bucket, ex), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) putBucketSubResource(ctx context.Context, bucket, subResource string, doc interface{}, opts []Option) error {
	ex := applyOptions(opts)
	ex.params[subResource] = ""
	ex.headers[HeaderContentType] = MIMEXML
	body, err := marshalXMLBody(doc)
	if err != nil {
		return err
	}
	req := newBucketOp(bucket, ex)
	req.body = body
	req.flags = FlagContentMD5
	_, err = c.doXML(ctx, http.MethodPut, req, nil)
	return err
}

func (c *Client) getBucketSubResource(ctx context.Context, bucket, subResource string, out interface{}, opts []Option) error {
	ex := applyOptions(opts)
	ex.params[subResource] = ""
	_, err := c.doXML(ctx, http.MethodGet, newBucketOp(bucket, ex), out)
	return err
}

func (c *Client) deleteBucketSubResource(ctx context.Context, bucket, subResource string, opts []Option) error {
	ex := applyOptions(opts)
	ex.params[subResource] = ""
	_, err := c.doXML(ctx, http.MethodDelete, newBucketOp(bucket, ex), nil)
	return err
}

// SetBucketLogging enables access logging into targetBucket with the
// given key prefix.
func (c *Client) SetBucketLogging(ctx context.Context, bucket, targetBucket, targetPrefix string, opts ...Option) error {
	doc := &BucketLoggingStatus{LoggingEnabled: &LoggingEnabled{
		TargetBucket: targetBucket,
		TargetPrefix: targetPrefix,
	}}
	return c.putBucketSubResource(ctx, bucket, "logging", doc, opts)
}

// GetBucketLogging fetches the logging configuration.
func (c *Client) GetBucketLogging(ctx context.Context, bucket string, opts ...Option) (*BucketLoggingStatus, error) {
	var result BucketLoggingStatus
	if err := c.getBucketSubResource(ctx, bucket, "logging", &result, opts); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteBucketLogging disables access logging.
func (c *Client) DeleteBucketLogging(ctx context.Context, bucket string, opts ...Option) error {
	return c.deleteBucketSubResource(ctx, bucket, "logging", opts)
}

// SetBucketWebsite configures static website hosting.
func (c *Client) SetBucketWebsite(ctx context.Context, bucket, indexDocument, errorDocument string, opts ...Option) error {
	doc := &WebsiteConfiguration{IndexDocument: indexDocument, ErrorDocument: errorDocument}
	return c.putBucketSubResource(ctx, bucket, "website", doc, opts)
}

// GetBucketWebsite fetches the website configuration.
func (c *Client) GetBucketWebsite(ctx context.Context, bucket string, opts ...Option) (*WebsiteConfiguration, error) {
	var result WebsiteConfiguration
	if err := c.getBucketSubResource(ctx, bucket, "website", &result, opts); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteBucketWebsite disables static website hosting.
func (c *Client) DeleteBucketWebsite(ctx context.Context, bucket string, opts ...Option) error {
	return c.deleteBucketSubResource(ctx, bucket, "website", opts)
}

// SetBucketReferer sets the referer whitelist.
func (c *Client) SetBucketReferer(ctx context.Context, bucket string, referers []string, allowEmpty bool, opts ...Option) error {
	doc := &RefererConfiguration{AllowEmptyReferer: allowEmpty, RefererList: referers}
	return c.putBucketSubResource(ctx, bucket, "referer", doc, opts)
}

// GetBucketReferer fetches the referer whitelist.
func (c *Client) GetBucketReferer(ctx context.Context, bucket string, opts ...Option) (*RefererConfiguration, error) {
	var result RefererConfiguration
	if err := c.getBucketSubResource(ctx, bucket, "referer", &result, opts); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetBucketLifecycle sets lifecycle rules; the rule list must not be
// empty.
func (c *Client) SetBucketLifecycle(ctx context.Context, bucket string, rules []LifecycleRule, opts ...Option) error {
	if len(rules) == 0 {
		return clientError(CodeValidateError, "lifecycle rules must not be empty")
	}
	doc := &LifecycleConfiguration{Rules: rules}
	return c.putBucketSubResource(ctx, bucket, "lifecycle", doc, opts)
}

// GetBucketLifecycle fetches lifecycle rules.
func (c *Client) GetBucketLifecycle(ctx context.Context, bucket string, opts ...Option) (*LifecycleConfiguration, error) {
	var result LifecycleConfiguration
	if err := c.getBucketSubResource(ctx, bucket, "lifecycle", &result, opts); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteBucketLifecycle removes all lifecycle rules.
func (c *Client) DeleteBucketLifecycle(ctx context.Context, bucket string, opts ...Option) error {
	return c.deleteBucketSubResource(ctx, bucket, "lifecycle", opts)
}

// SetBucketCors sets CORS rules; the rule list must not be empty.
func (c *Client) SetBucketCors(ctx context.Context, bucket string, rules []CORSRule, opts ...Option) error {
	if len(rules) == 0 {
		return clientError(CodeValidateError, "cors rules must not be empty")
	}
	doc := &CORSConfiguration{Rules: rules}
	return c.putBucketSubResource(ctx, bucket, "cors", doc, opts)
}

// GetBucketCors fetches CORS rules.
func (c *Client) GetBucketCors(ctx context.Context, bucket string, opts ...Option) (*CORSConfiguration, error) {
	var result CORSConfiguration
	if err := c.getBucketSubResource(ctx, bucket, "cors", &result, opts); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteBucketCors removes all CORS rules.
func (c *Client) DeleteBucketCors(ctx context.Context, bucket string, opts ...Option) error {
	return c.deleteBucketSubResource(ctx, bucket, "cors", opts)
}
