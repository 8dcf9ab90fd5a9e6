// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package outbound

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrNotHTTP        = errors.New("outbound: connection is not an HTTP connection")
	ErrInvalidURL     = errors.New("outbound: target URL is not parseable")
	ErrBodyNotAllowed = errors.New("outbound: method does not allow a request body")
	ErrExecuted       = errors.New("outbound: request already executed")
)

// RequestError wraps the sentinel errors with request context.
type RequestError struct {
	Sentinel error
	Op       string
	Method   string
	URL      string
	Err      error // Nested lower-level error (e.g. url parse failure)
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("outbound: %s %s %s: %v", e.Op, e.Method, e.URL, e.Sentinel)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RequestError) Unwrap() error {
	return e.Sentinel
}
