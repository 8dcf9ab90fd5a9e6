// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package outbound produces configured outbound HTTP request objects.
//
// A Factory holds immutable connection settings (proxy, connect/read
// timeouts) and hands out single-use Request values. The method decides the
// per-request policy: GET follows redirects, POST/PUT/PATCH/DELETE may carry
// a body, everything else gets neither.
package outbound

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ManuGH/outbound/internal/log"
	"github.com/rs/zerolog"
)

const (
	defaultDialTimeout           = 30 * time.Second
	defaultKeepAlive             = 30 * time.Second
	defaultTLSHandshakeTimeout   = 10 * time.Second
	defaultIdleConnTimeout       = 90 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second
	defaultMaxIdleConns          = 100
	defaultMaxIdleConnsPerHost   = 8
)

// Factory creates outbound HTTP requests backed by net/http.
//
// Configure it once before the first CreateRequest call; the underlying
// transport is built lazily on first use and reused afterwards, so later
// field changes have no effect.
type Factory struct {
	// Proxy routes the transport through the given proxy when set.
	// http/https proxy URLs use CONNECT/forward proxying, socks5/socks5h
	// URLs use a SOCKS5 dialer. Nil means a direct connection.
	Proxy *url.URL

	// ConnectTimeout bounds dialing (and TLS handshake). Values >= 0 are
	// applied verbatim, 0 meaning wait indefinitely. Negative keeps the
	// factory defaults. New initialises it to -1.
	ConnectTimeout time.Duration

	// ReadTimeout bounds the wait for response headers. Same convention
	// as ConnectTimeout.
	ReadTimeout time.Duration

	// EnableTracing wraps the transport with otelhttp instrumentation.
	EnableTracing bool

	// OpenTransport overrides how the transport is opened. Nil uses the
	// built-in construction honoring Proxy and the timeouts.
	OpenTransport func(proxy *url.URL) (http.RoundTripper, error)

	// PrepareRequest runs on the assembled *http.Request just before it is
	// sent, after method and header assembly. Nil is a no-op.
	PrepareRequest func(*http.Request) error

	once      sync.Once
	transport http.RoundTripper
	initErr   error
	logger    zerolog.Logger
}

// New returns a Factory with both timeouts at -1, leaving the transport
// defaults untouched until set to a non-negative value.
func New() *Factory {
	return &Factory{
		ConnectTimeout: -1,
		ReadTimeout:    -1,
		logger:         log.WithComponent("outbound"),
	}
}

// CreateRequest opens the factory transport and returns a Request for the
// given method and URL, ready for header mutation, body writes (when the
// method allows them) and a single Execute.
//
// The method string is applied verbatim. A URL whose scheme does not map to
// HTTP fails fast with ErrNotHTTP; that is a configuration fault, not a
// transient condition.
func (f *Factory) CreateRequest(method, rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &RequestError{Sentinel: ErrInvalidURL, Op: "create", Method: method, URL: rawURL, Err: err}
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, &RequestError{Sentinel: ErrNotHTTP, Op: "create", Method: method, URL: rawURL}
	}

	transport, err := f.ensureTransport()
	if err != nil {
		return nil, err
	}

	followRedirects, allowBody := policyFor(method)

	client := &http.Client{Transport: transport}
	if !followRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	observeCreated(method)

	return &Request{
		Header:          make(http.Header),
		method:          method,
		url:             u,
		allowBody:       allowBody,
		followRedirects: followRedirects,
		client:          client,
		prepare:         f.PrepareRequest,
		logger:          f.logger,
	}, nil
}

// ensureTransport builds the shared transport exactly once.
func (f *Factory) ensureTransport() (http.RoundTripper, error) {
	f.once.Do(func() {
		if f.OpenTransport != nil {
			f.transport, f.initErr = f.OpenTransport(f.Proxy)
		} else {
			f.transport, f.initErr = f.openTransport()
		}
		if f.initErr == nil && f.EnableTracing {
			f.transport = traceTransport(f.transport)
		}
	})
	return f.transport, f.initErr
}

// openTransport constructs the default transport honoring Proxy and the
// configured timeouts.
func (f *Factory) openTransport() (http.RoundTripper, error) {
	dialTimeout := defaultDialTimeout
	tlsTimeout := defaultTLSHandshakeTimeout
	if f.ConnectTimeout >= 0 {
		dialTimeout = f.ConnectTimeout
		tlsTimeout = f.ConnectTimeout
	}

	t := &http.Transport{
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          defaultMaxIdleConns,
		MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   tlsTimeout,
		ExpectContinueTimeout: defaultExpectContinueTimeout,
	}
	if f.ReadTimeout >= 0 {
		t.ResponseHeaderTimeout = f.ReadTimeout
	}

	if err := applyProxy(t, f.Proxy, dialTimeout); err != nil {
		return nil, err
	}
	return t, nil
}

// policyFor maps the HTTP method to the redirect and body policy. Methods
// are matched verbatim; lowercase spellings get the restrictive default.
func policyFor(method string) (followRedirects, allowBody bool) {
	switch method {
	case http.MethodGet:
		return true, false
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return false, true
	default:
		return false, false
	}
}
