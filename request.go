// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package outbound

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ManuGH/outbound/internal/log"
	"github.com/rs/zerolog"
)

// Request is a single-use outbound HTTP request. The body is buffered in
// memory; headers and body may be mutated until Execute, which sends the
// request exactly once. A Request is not safe for concurrent use.
type Request struct {
	// Header holds the request headers. Mutable until Execute.
	Header http.Header

	method          string
	url             *url.URL
	allowBody       bool
	followRedirects bool
	body            bytes.Buffer
	client          *http.Client
	prepare         func(*http.Request) error
	logger          zerolog.Logger
	executed        bool
}

// Method returns the HTTP method the request was created with, verbatim.
func (r *Request) Method() string { return r.method }

// URL returns the target URL.
func (r *Request) URL() *url.URL { return r.url }

// BodyAllowed reports whether the method permits writing a request body.
func (r *Request) BodyAllowed() bool { return r.allowBody }

// FollowsRedirects reports whether redirects are followed automatically.
func (r *Request) FollowsRedirects() bool { return r.followRedirects }

// Write appends p to the buffered request body. It fails with
// ErrBodyNotAllowed for methods without a body and with ErrExecuted after
// the request has been sent.
func (r *Request) Write(p []byte) (int, error) {
	if r.executed {
		return 0, &RequestError{Sentinel: ErrExecuted, Op: "write", Method: r.method, URL: r.url.String()}
	}
	if !r.allowBody {
		return 0, &RequestError{Sentinel: ErrBodyNotAllowed, Op: "write", Method: r.method, URL: r.url.String()}
	}
	return r.body.Write(p)
}

// WriteString appends s to the buffered request body.
func (r *Request) WriteString(s string) (int, error) {
	return r.Write([]byte(s))
}

// Execute sends the request and returns the raw response. It may be called
// at most once; later calls fail with ErrExecuted. Transport and I/O errors
// from the underlying client are returned unchanged.
//
// The caller owns the response body and must close it.
func (r *Request) Execute(ctx context.Context) (*http.Response, error) {
	if r.executed {
		return nil, &RequestError{Sentinel: ErrExecuted, Op: "execute", Method: r.method, URL: r.url.String()}
	}
	r.executed = true

	var bodyReader io.Reader
	if r.allowBody && r.body.Len() > 0 {
		bodyReader = bytes.NewReader(r.body.Bytes())
	}
	req, err := http.NewRequestWithContext(ctx, r.method, r.url.String(), bodyReader)
	if err != nil {
		return nil, err
	}
	for k, vs := range r.Header {
		req.Header[k] = vs
	}
	if id := log.RequestIDFromContext(ctx); id != "" && req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", id)
	}

	if r.prepare != nil {
		if err := r.prepare(req); err != nil {
			observeExecution(r.method, "prepare_error", 0)
			return nil, err
		}
	}

	logger := log.WithContext(ctx, r.logger)
	start := time.Now()
	resp, err := r.client.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		observeExecution(r.method, "error", elapsed)
		logger.Debug().
			Str(log.FieldMethod, r.method).
			Str(log.FieldURL, r.url.String()).
			Dur(log.FieldDuration, elapsed).
			Err(err).
			Msg("outbound request failed")
		return nil, err
	}

	observeExecution(r.method, "success", elapsed)
	logger.Debug().
		Str(log.FieldMethod, r.method).
		Str(log.FieldURL, r.url.String()).
		Int(log.FieldStatus, resp.StatusCode).
		Dur(log.FieldDuration, elapsed).
		Msg("outbound request completed")
	return resp, nil
}
