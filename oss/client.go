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
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"io/ioutil"
)

// Client the operation surface over one endpoint. Safe for concurrent
// use; configuration is read-only after New.
type Client struct {
	conf       Config
	conn       *Conn
	dispatcher *Dispatcher
}

// New builds a client for endpoint with the given credentials.
// A nil conf uses defaults.
func New(endpoint string, provider CredentialsProvider, conf *Config) (*Client, error) {
	if conf == nil {
		conf = &Config{}
	}
	fixConfig(conf)
	conn, err := newConn(conf, endpoint, provider)
	if err != nil {
		return nil, err
	}
	return &Client{
		conf:       *conf,
		conn:       conn,
		dispatcher: NewDispatcher(conf.MaxConnections),
	}, nil
}

// Close shuts the async dispatcher down, draining queued tasks.
func (c *Client) Close() {
	c.dispatcher.Close()
}

// DisableRequests makes every call fail fast with ClientDisabled.
func (c *Client) DisableRequests() { c.conn.Disable() }

// EnableRequests lifts DisableRequests.
func (c *Client) EnableRequests() { c.conn.Enable() }

// GeneratePresignedURL emits a signed URL for method on bucket/key
// valid until the absolute unix timestamp expires.
func (c *Client) GeneratePresignedURL(bucket, key, method string, expires int64, opts ...Option) (string, error) {
	ex := applyOptions(opts)
	return c.conn.PresignURL(bucket, key, method, expires, ex.headers, ex.params)
}

// ExecuteAsync runs fn on the dispatcher's worker pool and delivers
// the outcome to handler. fn observes the token at chunk boundaries.
func (c *Client) ExecuteAsync(run func(token *CancelToken) (*Response, *Error), handler AsyncHandler) (*AsyncTask, error) {
	return c.dispatcher.Submit(run, handler)
}

// Option tweaks a single operation call.
type Option func(*extras)

type extras struct {
	headers  map[string]string
	params   map[string]string
	progress ProgressFunc
	token    *CancelToken
}

func applyOptions(opts []Option) *extras {
	ex := &extras{
		headers: make(map[string]string),
		params:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(ex)
	}
	return ex
}

// WithHeader sets an extra request header.
func WithHeader(name, value string) Option {
	return func(ex *extras) { ex.headers[name] = value }
}

// WithParam sets an extra query parameter.
func WithParam(name, value string) Option {
	return func(ex *extras) { ex.params[name] = value }
}

// WithContentType sets the body content type.
func WithContentType(value string) Option {
	return func(ex *extras) { ex.headers[HeaderContentType] = value }
}

// WithMeta sets a user metadata header x-oss-meta-<name>.
func WithMeta(name, value string) Option {
	return func(ex *extras) { ex.headers[HeaderOssMetaPrefix+name] = value }
}

// WithProgress attaches a transfer progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(ex *extras) { ex.progress = fn }
}

// WithCancelToken attaches a cooperative cancellation token.
func WithCancelToken(token *CancelToken) Option {
	return func(ex *extras) { ex.token = token }
}

// bucketOpRequest one bucket-level operation call.
type bucketOpRequest struct {
	BucketRequest
	ex    *extras
	flags Flag
	body  io.Reader
}

func newBucketOp(bucket string, ex *extras) *bucketOpRequest {
	if headerLookup(ex.headers, HeaderContentType) == "" {
		ex.headers[HeaderContentType] = MIMEXML
	}
	return &bucketOpRequest{BucketRequest: BucketRequest{BucketName: bucket}, ex: ex}
}

func (r *bucketOpRequest) Flags() Flag                   { return r.flags }
func (r *bucketOpRequest) Headers() map[string]string    { return r.ex.headers }
func (r *bucketOpRequest) Parameters() map[string]string { return r.ex.params }
func (r *bucketOpRequest) Payload() io.Reader            { return r.body }
func (r *bucketOpRequest) Progress() ProgressFunc        { return r.ex.progress }
func (r *bucketOpRequest) CancelToken() *CancelToken     { return r.ex.token }

// objectOpRequest one object-level operation call.
type objectOpRequest struct {
	ObjectRequest
	ex    *extras
	flags Flag
	body  io.Reader
}

func newObjectOp(bucket, key string, ex *extras) *objectOpRequest {
	return &objectOpRequest{
		ObjectRequest: ObjectRequest{
			BucketRequest: BucketRequest{BucketName: bucket},
			ObjectKey:     key,
		},
		ex: ex,
	}
}

func (r *objectOpRequest) Flags() Flag                   { return r.flags }
func (r *objectOpRequest) Headers() map[string]string    { return r.ex.headers }
func (r *objectOpRequest) Parameters() map[string]string { return r.ex.params }
func (r *objectOpRequest) Payload() io.Reader            { return r.body }
func (r *objectOpRequest) Progress() ProgressFunc        { return r.ex.progress }
func (r *objectOpRequest) CancelToken() *CancelToken     { return r.ex.token }

// serviceOpRequest a service-level call with neither bucket nor key.
type serviceOpRequest struct {
	ex *extras
}

func (r *serviceOpRequest) Bucket() string                { return "" }
func (r *serviceOpRequest) Key() string                   { return "" }
func (r *serviceOpRequest) Flags() Flag                   { return 0 }
func (r *serviceOpRequest) Headers() map[string]string    { return r.ex.headers }
func (r *serviceOpRequest) Parameters() map[string]string { return r.ex.params }
func (r *serviceOpRequest) Payload() io.Reader            { return nil }
func (r *serviceOpRequest) Validate() error               { return nil }

// doXML dispatches req and decodes the XML response into out when out
// is non-nil; the response body is always consumed and closed.
func (c *Client) doXML(ctx context.Context, method string, req Request, out interface{}) (*Response, error) {
	resp, err := c.conn.Do(ctx, method, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if out == nil {
		_, err = io.Copy(ioutil.Discard, resp.Body)
		if err != nil {
			return nil, asOssError(err)
		}
		return resp, nil
	}
	raw, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, asOssError(err)
	}
	if err = xml.Unmarshal(raw, out); err != nil {
		return nil, &Error{
			Code:       CodeParseXMLError,
			Message:    "decode response: " + err.Error(),
			RequestID:  resp.RequestID,
			StatusCode: resp.StatusCode,
		}
	}
	return resp, nil
}

// marshalXMLBody renders a request document for bucket-management and
// batch operations.
func marshalXMLBody(v interface{}) (io.Reader, error) {
	raw, err := xml.Marshal(v)
	if err != nil {
		return nil, clientError(CodeValidateError, "encode request: %v", err)
	}
	return bytes.NewReader(raw), nil
}
