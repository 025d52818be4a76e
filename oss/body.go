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
	"crypto/md5"
	"encoding/base64"
	"errors"
	"fmt"
	"hash"
	"io"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/cloudstor/oss-go-sdk/common/crc64"
)

var errCancelled = errors.New("oss: request cancelled")

// bodyTracker wraps a request or response stream, advancing the byte
// count and CRC64 state in a single pass; Content-MD5 is computed
// beforehand by bodyMD5, not here. It also drives the progress
// callback, the rate limiter and the cooperative cancel check at each
// chunk boundary.
type bodyTracker struct {
	ctx      context.Context
	r        io.Reader
	total    int64 // -1 when unknown
	consumed int64

	crc      hash.Hash64
	progress ProgressFunc
	limiter  *rate.Limiter
	cancel   *CancelToken
}

func newBodyTracker(ctx context.Context, r io.Reader, total int64) *bodyTracker {
	return &bodyTracker{ctx: ctx, r: r, total: total}
}

func (t *bodyTracker) Read(p []byte) (int, error) {
	if t.cancel != nil && t.cancel.Cancelled() {
		return 0, errCancelled
	}
	if t.limiter != nil && len(p) > 0 {
		n := len(p)
		if burst := t.limiter.Burst(); n > burst {
			n = burst
		}
		if err := t.limiter.WaitN(t.ctx, n); err != nil {
			return 0, err
		}
		p = p[:n]
	}
	n, err := t.r.Read(p)
	if n > 0 {
		t.consumed += int64(n)
		if t.crc != nil {
			t.crc.Write(p[:n])
		}
		if t.progress != nil {
			t.progress(t.consumed, t.total)
		}
	}
	return n, err
}

func (t *bodyTracker) crc64Sum() uint64 {
	if t.crc == nil {
		return 0
	}
	return t.crc.Sum64()
}

// bodyLength determines the stream length without losing data. A
// seekable stream is measured in place; anything else is drained into
// memory so Content-Length is never omitted.
func bodyLength(r io.Reader) (int64, io.Reader, error) {
	if seeker, ok := r.(io.Seeker); ok {
		cur, err := seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, nil, err
		}
		end, err := seeker.Seek(0, io.SeekEnd)
		if err != nil {
			return 0, nil, err
		}
		if _, err = seeker.Seek(cur, io.SeekStart); err != nil {
			return 0, nil, err
		}
		return end - cur, r, nil
	}
	buf := &bytes.Buffer{}
	n, err := io.Copy(buf, r)
	if err != nil {
		return 0, nil, err
	}
	return n, bytes.NewReader(buf.Bytes()), nil
}

// bodyMD5 computes the base64 MD5 of the stream, rewinding or
// buffering so the body remains sendable.
func bodyMD5(r io.Reader) (string, io.Reader, error) {
	h := md5.New()
	if seeker, ok := r.(io.Seeker); ok {
		cur, err := seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return "", nil, err
		}
		if _, err = io.Copy(h, r); err != nil {
			return "", nil, err
		}
		if _, err = seeker.Seek(cur, io.SeekStart); err != nil {
			return "", nil, err
		}
		return base64.StdEncoding.EncodeToString(h.Sum(nil)), r, nil
	}
	buf := &bytes.Buffer{}
	if _, err := io.Copy(io.MultiWriter(h, buf), r); err != nil {
		return "", nil, err
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), bytes.NewReader(buf.Bytes()), nil
}

// rewindBody seeks a retryable body back to its start. Non-seekable
// bodies report false and the attempt is not retried.
func rewindBody(r io.Reader) bool {
	if r == nil {
		return true
	}
	seeker, ok := r.(io.Seeker)
	if !ok {
		return false
	}
	_, err := seeker.Seek(0, io.SeekStart)
	return err == nil
}

// crcVerifyReader checks the streamed CRC64 against the server value
// once the body is fully consumed.
type crcVerifyReader struct {
	tracker   *bodyTracker
	inner     io.ReadCloser
	serverCRC uint64
	requestID string
}

func newCRCVerifyReader(inner io.ReadCloser, tracker *bodyTracker, serverCRC uint64, requestID string) *crcVerifyReader {
	tracker.crc = crc64.New()
	return &crcVerifyReader{tracker: tracker, inner: inner, serverCRC: serverCRC, requestID: requestID}
}

func (r *crcVerifyReader) Read(p []byte) (int, error) {
	n, err := r.tracker.Read(p)
	if err == io.EOF {
		if verr := crcCompare(r.tracker.crc64Sum(), r.serverCRC, r.tracker.consumed, r.requestID); verr != nil {
			return n, verr
		}
	}
	return n, err
}

func (r *crcVerifyReader) Close() error { return r.inner.Close() }

// crcCompare builds the mismatch failure carrying both checksums, the
// transferred byte count and the server request id.
func crcCompare(clientCRC, serverCRC uint64, transferred int64, requestID string) error {
	if clientCRC == serverCRC {
		return nil
	}
	return &Error{
		Code:       CodeCrcCheckError,
		StatusCode: ErrCRCInconsistent,
		RequestID:  requestID,
		Message: fmt.Sprintf(
			"crc64 check failed. client crc:%s, server crc:%s, transferred bytes:%d, request id:%s",
			strconv.FormatUint(clientCRC, 10), strconv.FormatUint(serverCRC, 10),
			transferred, requestID),
	}
}
