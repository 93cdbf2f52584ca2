// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"io"
	"net/http"
	"time"

	"github.com/jcodagnone/routeco2/utils/httputils"
	"golang.org/x/oauth2"
)

// DefaultTimeout bounds every geocoding request.
const DefaultTimeout = 10 * time.Second

// ClientOptions configures the HTTP client shared by the providers.
type ClientOptions struct {
	// Timeout bounds each request, zero means DefaultTimeout
	Timeout time.Duration

	// UserAgent is the User-Agent header to use in HTTP requests
	UserAgent string

	// RequestsPerSecond caps the outbound rate across every caller of the
	// client. Zero disables the limiter.
	RequestsPerSecond float64

	// Token, when set, is sent as a bearer Authorization header
	Token string

	// Trace receives a dump of every request and response
	Trace io.Writer

	// TraceBody includes the bodies in the dump
	TraceBody bool
}

// NewHTTPClient builds the client the providers talk through.
func NewHTTPClient(options ClientOptions) *http.Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: timeout,
	}

	var rt http.RoundTripper = &httputils.LoggingRoundTripper{
		Writer:    options.Trace,
		DumpBody:  options.TraceBody,
		Transport: transport,
	}

	rt = httputils.NewRateLimitRoundTripper(rt, options.RequestsPerSecond)

	userAgent := "routeco2/unknown"
	if options.UserAgent != "" {
		userAgent = options.UserAgent
	}

	rt = &httputils.AppendRequestHeadersRoundTripper{
		Headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "application/json",
		},
		Transport: rt,
	}

	if options.Token != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: options.Token}),
			Base:   rt,
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: rt,
	}
}
