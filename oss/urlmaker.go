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
	"net"
	"sort"
	"strings"
)

// endpointHost strips a scheme prefix and trailing slash from a
// configured endpoint.
func endpointHost(endpoint string) string {
	host := endpoint
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	return strings.TrimSuffix(host, "/")
}

func isIPHost(host string) bool {
	h := host
	if sep, _, err := net.SplitHostPort(host); err == nil {
		h = sep
	}
	return net.ParseIP(h) != nil
}

// composeURL builds the request URL. Virtual-hosted style puts the
// bucket into the host; CNAME endpoints already resolve to a bucket;
// IP endpoints fall back to path style.
func composeURL(scheme, endpoint, bucket, key string, isCname bool, params map[string]string) string {
	host := endpointHost(endpoint)
	var path string
	switch {
	case bucket == "":
		path = "/"
	case isCname:
		path = "/" + encodePath(key)
	case isIPHost(host):
		path = "/" + bucket + "/" + encodePath(key)
	default:
		host = bucket + "." + host
		path = "/" + encodePath(key)
	}

	u := scheme + "://" + host + path
	if query := encodeQuery(params); query != "" {
		u += "?" + query
	}
	return u
}

// encodePath percent-encodes each segment of a key, preserving the
// slashes between segments.
func encodePath(key string) string {
	if key == "" {
		return ""
	}
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = encodeComponent(seg)
	}
	return strings.Join(segments, "/")
}

// encodeQuery renders params sorted by key; a valueless parameter
// contributes just its name.
func encodeQuery(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteString("&")
		}
		sb.WriteString(encodeComponent(k))
		if v := params[k]; v != "" {
			sb.WriteString("=")
			sb.WriteString(encodeComponent(v))
		}
	}
	return sb.String()
}

const upperhex = "0123456789ABCDEF"

// encodeComponent percent-encodes everything outside the RFC 3986
// unreserved set.
func encodeComponent(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') ||
			(c >= '0' && c <= '9') || c == '-' || c == '_' || c == '.' || c == '~' {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperhex[c>>4])
		sb.WriteByte(upperhex[c&0xf])
	}
	return sb.String()
}
