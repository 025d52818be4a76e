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

package auth

import (
	"sort"
	"strings"
)

// HeaderPrefixOss headers carrying this prefix participate in signing.
const HeaderPrefixOss = "x-oss-"

// signSubResources are the query parameters included in the canonical
// resource. Other parameters travel on the wire but are not signed.
var signSubResources = map[string]struct{}{
	"acl":                          {},
	"uploadId":                     {},
	"partNumber":                   {},
	"location":                     {},
	"lifecycle":                    {},
	"logging":                      {},
	"website":                      {},
	"referer":                      {},
	"cors":                         {},
	"delete":                       {},
	"stat":                         {},
	"bucketInfo":                   {},
	"storageCapacity":              {},
	"symlink":                      {},
	"restore":                      {},
	"objectMeta":                   {},
	"uploads":                      {},
	"continuation-token":           {},
	"encoding-type":                {},
	"response-content-type":        {},
	"response-content-language":    {},
	"response-expires":             {},
	"response-cache-control":       {},
	"response-content-disposition": {},
	"response-content-encoding":    {},
	"security-token":               {},
	"x-oss-process":                {},
	"versionId":                    {},
}

// IsSubResource reports whether the parameter name is signed.
func IsSubResource(name string) bool {
	_, ok := signSubResources[name]
	return ok
}

// CanonicalResource builds "/bucket/key" plus the sorted subresource
// query. Subresource values stay raw in the canonical form.
func CanonicalResource(bucket, key string, params map[string]string) string {
	var sb strings.Builder
	sb.WriteString("/")
	if bucket != "" {
		sb.WriteString(bucket)
		sb.WriteString("/")
	}
	sb.WriteString(key)

	subs := make([]string, 0, len(params))
	for k := range params {
		if IsSubResource(k) {
			subs = append(subs, k)
		}
	}
	if len(subs) > 0 {
		sort.Strings(subs)
		sb.WriteString("?")
		for i, k := range subs {
			if i > 0 {
				sb.WriteString("&")
			}
			sb.WriteString(k)
			if v := params[k]; v != "" {
				sb.WriteString("=")
				sb.WriteString(v)
			}
		}
	}
	return sb.String()
}

func headerGet(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func canonicalizedOssHeaders(headers map[string]string) string {
	lowered := make(map[string]string)
	names := make([]string, 0, len(headers))
	for k, v := range headers {
		name := strings.ToLower(k)
		if !strings.HasPrefix(name, HeaderPrefixOss) {
			continue
		}
		lowered[name] = strings.TrimSpace(v)
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteString(":")
		sb.WriteString(lowered[name])
		sb.WriteString("\n")
	}
	return sb.String()
}

// StringToSign assembles the canonical text for header signing.
// For presigned URLs the caller passes the expiry decimal string as
// date; everything else is identical.
func StringToSign(method, date string, headers map[string]string, canonicalResource string) string {
	return strings.Join([]string{
		method,
		headerGet(headers, "Content-MD5"),
		headerGet(headers, "Content-Type"),
		date,
	}, "\n") + "\n" + canonicalizedOssHeaders(headers) + canonicalResource
}
