// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package outbound

import (
	"errors"
	"strings"
	"testing"
)

func TestRequestErrorMessage(t *testing.T) {
	err := &RequestError{
		Sentinel: ErrNotHTTP,
		Op:       "create",
		Method:   "GET",
		URL:      "ftp://host/file",
	}
	msg := err.Error()
	for _, want := range []string{"create", "GET", "ftp://host/file", "not an HTTP connection"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q missing %q", msg, want)
		}
	}
}

func TestRequestErrorIncludesNestedError(t *testing.T) {
	nested := errors.New("invalid control character")
	err := &RequestError{Sentinel: ErrInvalidURL, Op: "create", Method: "GET", URL: "http://x", Err: nested}
	if !strings.Contains(err.Error(), nested.Error()) {
		t.Fatalf("message %q missing nested error", err.Error())
	}
}

func TestRequestErrorUnwrapsToSentinel(t *testing.T) {
	err := &RequestError{Sentinel: ErrBodyNotAllowed, Op: "write", Method: "HEAD", URL: "http://x"}
	if !errors.Is(err, ErrBodyNotAllowed) {
		t.Fatal("errors.Is must match the sentinel")
	}
	if errors.Is(err, ErrExecuted) {
		t.Fatal("errors.Is must not match other sentinels")
	}
}
