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
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/cloudstor/oss-go-sdk/util/log"
)

// Config client configuration. Read-only after the client is built;
// build a new client to change it.
type Config struct {
	UserAgent   string `json:"user_agent"`
	Scheme      string `json:"scheme"`
	IsCname     bool   `json:"is_cname"`
	EnableCRC64 *bool  `json:"enable_crc64"`

	// MaxConnections bounds both the transport connection pool and the
	// async dispatcher workers.
	MaxConnections   int   `json:"max_connections"`
	RequestTimeoutMs int64 `json:"request_timeout_ms"`
	ConnectTimeoutMs int64 `json:"connect_timeout_ms"`

	MaxRetries   int   `json:"max_retries"`
	RetryScaleMs int64 `json:"retry_scale_ms"`

	ProxyScheme   string `json:"proxy_scheme"`
	ProxyHost     string `json:"proxy_host"`
	ProxyPort     int    `json:"proxy_port"`
	ProxyUser     string `json:"proxy_user"`
	ProxyPassword string `json:"proxy_password"`

	VerifySSL bool `json:"verify_ssl"`

	SendRateLimiter *rate.Limiter `json:"-"`
	RecvRateLimiter *rate.Limiter `json:"-"`

	LogLevel log.Level          `json:"log_level"`
	Logger   *lumberjack.Logger `json:"logger"`
}

func (c *Config) crc64Enabled() bool {
	return c.EnableCRC64 == nil || *c.EnableCRC64
}

func fixConfig(conf *Config) {
	if conf.UserAgent == "" {
		conf.UserAgent = UserAgent
	}
	if conf.Scheme == "" {
		conf.Scheme = defaultScheme
	}
	if conf.MaxConnections <= 0 {
		conf.MaxConnections = defaultMaxConnections
	}
	if conf.RequestTimeoutMs <= 0 {
		conf.RequestTimeoutMs = defaultRequestTimeoutMs
	}
	if conf.ConnectTimeoutMs <= 0 {
		conf.ConnectTimeoutMs = defaultConnectTimeoutMs
	}
	if conf.MaxRetries <= 0 {
		conf.MaxRetries = defaultMaxRetries
	}
	if conf.RetryScaleMs <= 0 {
		conf.RetryScaleMs = defaultRetryScaleMs
	}
	log.SetOutputLevel(conf.LogLevel)
	if conf.Logger != nil {
		log.SetOutput(conf.Logger)
	}
}

func (c *Config) proxyURL() (*url.URL, error) {
	if c.ProxyHost == "" {
		return nil, nil
	}
	scheme := c.ProxyScheme
	if scheme == "" {
		scheme = "http"
	}
	proxy := &url.URL{
		Scheme: scheme,
		Host:   fmt.Sprintf("%s:%d", c.ProxyHost, c.ProxyPort),
	}
	if c.ProxyUser != "" {
		proxy.User = url.UserPassword(c.ProxyUser, c.ProxyPassword)
	}
	return proxy, nil
}

// buildTransport builds the HTTP transport from the config.
func (c *Config) buildTransport() (*http.Transport, error) {
	proxy, err := c.proxyURL()
	if err != nil {
		return nil, err
	}
	proxyFn := http.ProxyFromEnvironment
	if proxy != nil {
		proxyFn = http.ProxyURL(proxy)
	}
	dialer := &net.Dialer{
		KeepAlive: 30 * time.Second,
		Timeout:   time.Duration(c.ConnectTimeoutMs) * time.Millisecond,
	}
	return &http.Transport{
		Proxy:               proxyFn,
		DialContext:         dialer.DialContext,
		MaxConnsPerHost:     c.MaxConnections,
		MaxIdleConns:        c.MaxConnections,
		MaxIdleConnsPerHost: c.MaxConnections,
		IdleConnTimeout:     15 * time.Second,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: !c.VerifySSL},
	}, nil
}
