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
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
)

// Error the typed failure of an operation. Server failures carry the
// fields of the XML error envelope; client-side failures carry a
// synthesized Code and a zero or negative StatusCode.
type Error struct {
	Code       string `xml:"Code"`
	Message    string `xml:"Message"`
	RequestID  string `xml:"RequestId"`
	HostID     string `xml:"HostId"`
	StatusCode int    `xml:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("oss: service returned error: StatusCode=%d, ErrorCode=%s, ErrorMessage=%q, RequestId=%s",
		e.StatusCode, e.Code, e.Message, e.RequestID)
}

// ErrorCode returns the wire error code.
func (e *Error) ErrorCode() string { return e.Code }

// clientError builds a local failure that never touched the network.
func clientError(code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// parseXMLError decodes the server error envelope. A payload whose
// root element is not Error yields code ParseXMLError with the raw
// content preserved in the message.
func parseXMLError(statusCode int, body []byte) *Error {
	var root struct {
		XMLName xml.Name
		Code    string `xml:"Code"`
		Message string `xml:"Message"`
		ReqID   string `xml:"RequestId"`
		HostID  string `xml:"HostId"`
	}
	if err := xml.Unmarshal(body, &root); err != nil || root.XMLName.Local != "Error" {
		return &Error{
			Code:       CodeParseXMLError,
			Message:    "Xml format invalid, root node name is not Error. the content is:\n" + string(body),
			StatusCode: statusCode,
		}
	}
	return &Error{
		Code:       root.Code,
		Message:    root.Message,
		RequestID:  root.ReqID,
		HostID:     root.HostID,
		StatusCode: statusCode,
	}
}

// transportErrKind classifies low-level dispatch failures. Only the
// named kinds are retryable; anything unrecognized is Other and the
// attempt is not redone.
type transportErrKind int

const (
	transportNone transportErrKind = iota
	transportConnectFailed
	transportPartialFile
	transportWriteError
	transportTimedOut
	transportGotNothing
	transportSendError
	transportRecvError
	transportOther
)

var transportErrNames = map[transportErrKind]string{
	transportConnectFailed: "ConnectFailed",
	transportPartialFile:   "PartialFile",
	transportWriteError:    "WriteError",
	transportTimedOut:      "TimedOut",
	transportGotNothing:    "GotNothing",
	transportSendError:     "SendError",
	transportRecvError:     "RecvError",
}

func (k transportErrKind) String() string {
	if name, ok := transportErrNames[k]; ok {
		return name
	}
	if k == transportOther {
		return "TransportError"
	}
	return "None"
}

func (k transportErrKind) retryable() bool {
	_, ok := transportErrNames[k]
	return ok
}

// classifyTransportErr maps a net/http client error onto the kind set.
func classifyTransportErr(err error) transportErrKind {
	if err == nil {
		return transportNone
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return transportTimedOut
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return transportTimedOut
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) {
		return transportConnectFailed
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch opErr.Op {
		case "dial":
			return transportConnectFailed
		case "write":
			return transportSendError
		case "read":
			return transportRecvError
		}
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return transportPartialFile
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) ||
		strings.Contains(err.Error(), "EOF") {
		return transportGotNothing
	}
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
		return transportWriteError
	}
	return transportOther
}

// transportError wraps a dispatch failure into the typed surface,
// keeping the kind name as Code.
func transportError(err error) *Error {
	kind := classifyTransportErr(err)
	return &Error{Code: kind.String(), Message: err.Error(), StatusCode: -1}
}
