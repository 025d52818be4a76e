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

// ListBuckets lists buckets owned by the credentials. Pagination via
// WithParam("prefix", ...), WithParam("marker", ...) and
// WithParam("max-keys", ...).
func (c *Client) ListBuckets(ctx context.Context, opts ...Option) (*ListBucketsResult, error) {
	req := &serviceOpRequest{ex: applyOptions(opts)}
	var result ListBucketsResult
	if _, err := c.doXML(ctx, http.MethodGet, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
