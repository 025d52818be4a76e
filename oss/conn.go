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
	"errors"
	"io"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cloudstor/oss-go-sdk/common/auth"
	"github.com/cloudstor/oss-go-sdk/common/crc64"
	"github.com/cloudstor/oss-go-sdk/util/log"
	"github.com/cloudstor/oss-go-sdk/util/retry"
)

// urlCarrier is implemented by requests carrying a materialized URL.
type urlCarrier interface {
	RequestURL() string
}

// RequestURL implements urlCarrier.
func (r *UrlRequest) RequestURL() string { return r.URL }

// Response the decoded success of an HTTP exchange. Body is never nil,
// even for responses without content; callers own closing it.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       io.ReadCloser
	RequestID  string
}

// Conn drives a request through build, sign, dispatch, verify and
// classify, retrying per policy.
type Conn struct {
	conf     *Config
	endpoint string
	provider CredentialsProvider
	signer   auth.Signer
	client   *http.Client
	disabled int32
}

func newConn(conf *Config, endpoint string, provider CredentialsProvider) (*Conn, error) {
	transport, err := conf.buildTransport()
	if err != nil {
		return nil, err
	}
	return &Conn{
		conf:     conf,
		endpoint: endpoint,
		provider: provider,
		signer:   auth.NewSigner(),
		client: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(conf.RequestTimeoutMs) * time.Millisecond,
		},
	}, nil
}

// Disable makes every subsequent dispatch fail with ClientDisabled
// until Enable is called.
func (c *Conn) Disable() { atomic.StoreInt32(&c.disabled, 1) }

// Enable lifts the Disable latch.
func (c *Conn) Enable() { atomic.StoreInt32(&c.disabled, 0) }

func (c *Conn) isDisabled() bool { return atomic.LoadInt32(&c.disabled) == 1 }

// Do executes one operation request.
func (c *Conn) Do(ctx context.Context, method string, req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, asOssError(err)
	}

	headers := make(map[string]string)
	for k, v := range req.Headers() {
		headers[k] = v
	}
	flags := req.Flags()
	body := req.Payload()
	// measuring or hashing may buffer an unseekable body into memory;
	// retries follow the caller's original reader
	_, seekable := body.(io.Seeker)
	rewindable := body == nil || seekable

	contentLength := int64(-1)
	if body != nil {
		if v := headerLookup(headers, HeaderContentLength); v != "" {
			contentLength, _ = strconv.ParseInt(v, 10, 64)
		} else {
			var err error
			if contentLength, body, err = bodyLength(body); err != nil {
				return nil, clientError(CodeValidateError, "measure body: %v", err)
			}
		}
	}

	if flags&FlagContentMD5 != 0 && body != nil && headerLookup(headers, HeaderContentMD5) == "" {
		sum, nb, err := bodyMD5(body)
		if err != nil {
			return nil, clientError(CodeValidateError, "hash body: %v", err)
		}
		headers[HeaderContentMD5] = sum
		body = nb
	}

	checkCRC := flags&FlagCheckCRC64 != 0 && c.conf.crc64Enabled() &&
		headerLookup(headers, HeaderRange) == ""

	var progress ProgressFunc
	if pc, ok := req.(progressCarrier); ok {
		progress = pc.Progress()
	}
	var cancel *CancelToken
	if cc, ok := req.(cancelCarrier); ok {
		cancel = cc.CancelToken()
	}

	attempt := 0
	var resp *Response
	retryer := retry.Backoff(c.conf.MaxRetries+1, uint32(c.conf.RetryScaleMs))
	err := retryer.RuptOnContext(ctx, func() (bool, error) {
		if c.isDisabled() {
			return true, clientError(CodeClientDisabled, "requests are disabled on this client")
		}
		if attempt > 0 {
			if !rewindable || !rewindBody(body) {
				return true, retry.ErrRetryNext
			}
			log.Warnf("retrying %s %s/%s attempt %d", method, req.Bucket(), req.Key(), attempt)
		}
		attempt++

		r, err := c.doAttempt(ctx, method, req, headers, body, contentLength, checkCRC, progress, cancel)
		if err == nil {
			resp = r
			return false, nil
		}
		return !retryableError(err), asOssError(err)
	})
	if err != nil {
		return nil, asOssError(err)
	}
	return resp, nil
}

func (c *Conn) doAttempt(ctx context.Context, method string, req Request,
	headers map[string]string, body io.Reader, contentLength int64,
	checkCRC bool, progress ProgressFunc, cancel *CancelToken,
) (*Response, error) {
	if cancel != nil && cancel.Cancelled() {
		return nil, clientError(CodeCancelled, "request cancelled before dispatch")
	}

	hdr := make(map[string]string, len(headers)+4)
	for k, v := range headers {
		hdr[k] = v
	}
	if headerLookup(hdr, HeaderUserAgent) == "" {
		hdr[HeaderUserAgent] = c.conf.UserAgent
	}
	date := time.Now().UTC().Format(http.TimeFormat)
	if v := headerLookup(hdr, HeaderDate); v != "" {
		date = v
	} else {
		hdr[HeaderDate] = date
	}

	params := req.Parameters()

	var rawURL string
	signed := true
	if req.Flags()&FlagParamInPath != 0 {
		uc, ok := req.(urlCarrier)
		if !ok {
			return nil, clientError(CodeValidateError, "request has no materialized url")
		}
		rawURL = uc.RequestURL()
		signed = false
	} else {
		rawURL = composeURL(c.conf.Scheme, c.endpoint, req.Bucket(), req.Key(), c.conf.IsCname, params)
	}

	if signed {
		cred := c.provider.Credentials()
		if cred.AccessKeyID == "" || cred.AccessKeySecret == "" {
			return nil, clientError(CodeSignError, "access key id or secret is empty")
		}
		if cred.SessionToken != "" {
			hdr[HeaderOssSecurityToken] = cred.SessionToken
		}
		resource := auth.CanonicalResource(req.Bucket(), req.Key(), params)
		stringToSign := auth.StringToSign(method, date, hdr, resource)
		hdr[HeaderAuthorization] = "OSS " + cred.AccessKeyID + ":" + c.signer.Generate(stringToSign, cred.AccessKeySecret)
	}

	var tracker *bodyTracker
	var reqBody io.Reader
	if body != nil {
		tracker = newBodyTracker(ctx, body, contentLength)
		if checkCRC {
			tracker.crc = crc64.New()
		}
		tracker.progress = progress
		tracker.limiter = c.conf.SendRateLimiter
		tracker.cancel = cancel
		reqBody = tracker
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, clientError(CodeValidateError, "build request: %v", err)
	}
	for k, v := range hdr {
		httpReq.Header.Set(k, v)
	}
	if body == nil {
		// bodyless GET/POST keep an explicit zero length; the
		// transport decides the final framing for other methods
		if method == http.MethodGet || method == http.MethodPost {
			httpReq.Body = http.NoBody
			httpReq.ContentLength = 0
		}
	} else {
		httpReq.ContentLength = contentLength
	}

	log.Debugf("dispatch %s %s", method, rawURL)
	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, errCancelled) || (cancel != nil && cancel.Cancelled()) {
			return nil, clientError(CodeCancelled, "request cancelled during transfer")
		}
		return nil, transportError(err)
	}

	return c.classify(httpResp, tracker, checkCRC, progress, cancel)
}

func (c *Conn) classify(httpResp *http.Response, reqTracker *bodyTracker,
	checkCRC bool, progress ProgressFunc, cancel *CancelToken,
) (*Response, error) {
	requestID := httpResp.Header.Get(HeaderOssRequestID)

	if httpResp.StatusCode >= 300 {
		defer httpResp.Body.Close()
		raw, _ := ioutil.ReadAll(io.LimitReader(httpResp.Body, 4<<10))
		var srvErr *Error
		if len(strings.TrimSpace(string(raw))) > 0 {
			srvErr = parseXMLError(httpResp.StatusCode, raw)
		} else {
			srvErr = &Error{
				Code:       http.StatusText(httpResp.StatusCode),
				Message:    "oss: service returned without a response body",
				StatusCode: httpResp.StatusCode,
			}
		}
		if srvErr.RequestID == "" {
			srvErr.RequestID = requestID
		}
		log.Errorf("request failed: %v", srvErr)
		return nil, srvErr
	}

	// uploaded body: compare the streamed checksum now
	if checkCRC && reqTracker != nil && reqTracker.crc != nil {
		if serverCRC, ok := responseCRC(httpResp); ok {
			if err := crcCompare(reqTracker.crc64Sum(), serverCRC, reqTracker.consumed, requestID); err != nil {
				httpResp.Body.Close()
				return nil, err
			}
		}
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       httpResp.Body,
		RequestID:  requestID,
	}

	// downloaded body: verify lazily once the caller drains the stream
	recvTracker := newBodyTracker(context.Background(), httpResp.Body, httpResp.ContentLength)
	recvTracker.progress = progress
	recvTracker.limiter = c.conf.RecvRateLimiter
	recvTracker.cancel = cancel
	if serverCRC, ok := responseCRC(httpResp); ok && checkCRC && reqTracker == nil {
		resp.Body = newCRCVerifyReader(httpResp.Body, recvTracker, serverCRC, requestID)
	} else if progress != nil || c.conf.RecvRateLimiter != nil || cancel != nil {
		resp.Body = readCloser{Reader: recvTracker, Closer: httpResp.Body}
	}
	return resp, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

func responseCRC(httpResp *http.Response) (uint64, bool) {
	v := httpResp.Header.Get(HeaderOssCrc64)
	if v == "" {
		return 0, false
	}
	crc, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return crc, true
}

func headerLookup(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// retryableError applies the retry policy to a failed attempt.
func retryableError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		if e.StatusCode >= 500 && e.StatusCode < 600 {
			return true
		}
		for _, name := range transportErrNames {
			if e.Code == name {
				return true
			}
		}
		return false
	}
	return classifyTransportErr(err).retryable()
}

// asOssError normalizes any failure into the typed error surface.
func asOssError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return transportError(err)
}
