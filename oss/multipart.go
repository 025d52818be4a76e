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
	"os"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cloudstor/oss-go-sdk/util/log"
)

const (
	minPartSize = 100 * 1024
	maxPartNum  = 10000
)

// InitiateMultipartUpload starts a multipart upload and returns its
// upload id.
func (c *Client) InitiateMultipartUpload(ctx context.Context, bucket, key string, opts ...Option) (*InitiateMultipartUploadResult, error) {
	ex := applyOptions(opts)
	ex.params["uploads"] = ""
	var result InitiateMultipartUploadResult
	if _, err := c.doXML(ctx, http.MethodPost, newObjectOp(bucket, key, ex), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UploadPart uploads one part. partNumber is within [1, 10000]; the
// returned part carries the ETag needed to complete the upload.
func (c *Client) UploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int, body io.Reader, opts ...Option) (UploadPart, error) {
	if uploadID == "" {
		return UploadPart{}, clientError(CodeValidateError, "uploadId must not be empty")
	}
	if partNumber < 1 || partNumber > maxPartNum {
		return UploadPart{}, clientError(CodeValidateError, "part number %d out of range [1, %d]", partNumber, maxPartNum)
	}
	ex := applyOptions(opts)
	ex.params["uploadId"] = uploadID
	ex.params["partNumber"] = strconv.Itoa(partNumber)
	req := newObjectOp(bucket, key, ex)
	req.body = body
	req.flags = FlagCheckCRC64
	resp, err := c.doXML(ctx, http.MethodPut, req, nil)
	if err != nil {
		return UploadPart{}, err
	}
	return UploadPart{PartNumber: partNumber, ETag: resp.Headers.Get(HeaderETag)}, nil
}

// UploadPartCopy copies a range of srcBucket/srcKey as one part.
// byteRange like "0-102399" or empty for the whole source.
func (c *Client) UploadPartCopy(ctx context.Context, bucket, key, uploadID string, partNumber int, srcBucket, srcKey, byteRange string, opts ...Option) (UploadPart, error) {
	if uploadID == "" {
		return UploadPart{}, clientError(CodeValidateError, "uploadId must not be empty")
	}
	ex := applyOptions(opts)
	ex.params["uploadId"] = uploadID
	ex.params["partNumber"] = strconv.Itoa(partNumber)
	ex.headers[HeaderOssCopySource] = "/" + srcBucket + "/" + encodePath(srcKey)
	if byteRange != "" {
		ex.headers["X-Oss-Copy-Source-Range"] = "bytes=" + byteRange
	}
	var result CopyObjectResult
	if _, err := c.doXML(ctx, http.MethodPut, newObjectOp(bucket, key, ex), &result); err != nil {
		return UploadPart{}, err
	}
	return UploadPart{PartNumber: partNumber, ETag: result.ETag}, nil
}

// CompleteMultipartUpload stitches the uploaded parts into the final
// object. Parts are sorted by part number before encoding.
func (c *Client) CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []UploadPart, opts ...Option) (*CompleteMultipartUploadResult, error) {
	if uploadID == "" {
		return nil, clientError(CodeValidateError, "uploadId must not be empty")
	}
	if len(parts) == 0 {
		return nil, clientError(CodeValidateError, "part list must not be empty")
	}
	sorted := make([]UploadPart, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PartNumber < sorted[j].PartNumber })

	body, err := marshalXMLBody(&completeMultipartUploadXML{Parts: sorted})
	if err != nil {
		return nil, err
	}
	ex := applyOptions(opts)
	ex.params["uploadId"] = uploadID
	ex.headers[HeaderContentType] = MIMEXML
	req := newObjectOp(bucket, key, ex)
	req.body = body
	req.flags = FlagContentMD5

	var result CompleteMultipartUploadResult
	if _, err = c.doXML(ctx, http.MethodPost, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AbortMultipartUpload discards an in-progress upload and its parts.
func (c *Client) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string, opts ...Option) error {
	if uploadID == "" {
		return clientError(CodeValidateError, "uploadId must not be empty")
	}
	ex := applyOptions(opts)
	ex.params["uploadId"] = uploadID
	_, err := c.doXML(ctx, http.MethodDelete, newObjectOp(bucket, key, ex), nil)
	return err
}

// ListMultipartUploads lists in-progress uploads in a bucket.
func (c *Client) ListMultipartUploads(ctx context.Context, bucket string, opts ...Option) (*ListMultipartUploadsResult, error) {
	ex := applyOptions(opts)
	ex.params["uploads"] = ""
	var result ListMultipartUploadsResult
	if _, err := c.doXML(ctx, http.MethodGet, newBucketOp(bucket, ex), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListParts lists parts already uploaded under an upload id.
func (c *Client) ListParts(ctx context.Context, bucket, key, uploadID string, opts ...Option) (*ListPartsResult, error) {
	if uploadID == "" {
		return nil, clientError(CodeValidateError, "uploadId must not be empty")
	}
	ex := applyOptions(opts)
	ex.params["uploadId"] = uploadID
	var result ListPartsResult
	if _, err := c.doXML(ctx, http.MethodGet, newObjectOp(bucket, key, ex), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UploadFile splits path into partSize chunks and uploads them with
// concurrency parallel workers, completing the upload at the end. The
// upload is aborted on failure.
func (c *Client) UploadFile(ctx context.Context, bucket, key, path string, partSize int64, concurrency int, opts ...Option) (*CompleteMultipartUploadResult, error) {
	if partSize < minPartSize {
		return nil, clientError(CodeValidateError, "part size %d below minimum %d", partSize, minPartSize)
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, clientError(CodeValidateError, "open %s: %v", path, err)
	}
	size := int64(0)
	if st, serr := f.Stat(); serr == nil {
		size = st.Size()
	}
	f.Close()

	partCount := (size + partSize - 1) / partSize
	if partCount == 0 {
		partCount = 1
	}
	if partCount > maxPartNum {
		return nil, clientError(CodeValidateError, "file needs %d parts, more than %d; increase part size", partCount, maxPartNum)
	}

	initiated, err := c.InitiateMultipartUpload(ctx, bucket, key, opts...)
	if err != nil {
		return nil, err
	}
	uploadID := initiated.UploadID
	log.Infof("multipart upload %s started for %s/%s with %d parts", uploadID, bucket, key, partCount)

	var mu sync.Mutex
	parts := make([]UploadPart, 0, partCount)

	group, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, concurrency)
	for i := int64(0); i < partCount; i++ {
		partNumber := int(i + 1)
		offset := i * partSize
		length := partSize
		if offset+length > size {
			length = size - offset
		}
		group.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			pf, err := os.Open(path)
			if err != nil {
				return clientError(CodeValidateError, "open %s: %v", path, err)
			}
			defer pf.Close()

			body := io.NewSectionReader(pf, offset, length)
			part, err := c.UploadPart(gctx, bucket, key, uploadID, partNumber, body)
			if err != nil {
				return err
			}
			mu.Lock()
			parts = append(parts, part)
			mu.Unlock()
			return nil
		})
	}
	if err = group.Wait(); err != nil {
		if aerr := c.AbortMultipartUpload(ctx, bucket, key, uploadID); aerr != nil {
			log.Warnf("abort upload %s: %v", uploadID, aerr)
		}
		return nil, asOssError(err)
	}

	result, err := c.CompleteMultipartUpload(ctx, bucket, key, uploadID, parts)
	if err != nil {
		return nil, err
	}
	return result, nil
}
