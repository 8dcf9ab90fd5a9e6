// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package outbound

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ManuGH/outbound/internal/log"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWriteRejectedWhenBodyNotAllowed(t *testing.T) {
	req, err := New().CreateRequest(http.MethodGet, "http://127.0.0.1/")
	require.NoError(t, err)

	n, err := req.Write([]byte("payload"))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, ErrBodyNotAllowed)

	_, err = req.WriteString("payload")
	assert.ErrorIs(t, err, ErrBodyNotAllowed)
}

func TestExecuteIsSingleShot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	req, err := New().CreateRequest(http.MethodGet, srv.URL)
	require.NoError(t, err)

	resp, err := req.Execute(context.Background())
	require.NoError(t, err)
	_ = resp.Body.Close()

	_, err = req.Execute(context.Background())
	assert.ErrorIs(t, err, ErrExecuted)

	_, err = req.Write([]byte("late"))
	assert.ErrorIs(t, err, ErrExecuted)
}

func TestBodyAndHeadersReachWire(t *testing.T) {
	var (
		gotBody    []byte
		gotHeaders http.Header
		gotLength  int64
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotHeaders = r.Header.Clone()
		gotLength = r.ContentLength
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	req, err := New().CreateRequest(http.MethodPost, srv.URL)
	require.NoError(t, err)

	_, err = req.WriteString(`{"a":`)
	require.NoError(t, err)
	_, err = req.WriteString(`1}`)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Probe", "yes")

	resp, err := req.Execute(context.Background())
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, `{"a":1}`, string(gotBody))
	assert.EqualValues(t, len(`{"a":1}`), gotLength)

	want := http.Header{
		"Content-Type": []string{"application/json"},
		"X-Probe":      []string{"yes"},
	}
	for k, v := range want {
		if diff := cmp.Diff(v, gotHeaders[k]); diff != "" {
			t.Errorf("header %s mismatch (-want +got):\n%s", k, diff)
		}
	}
}

func TestExecutePropagatesTransportErrorUnchanged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	srv.Close() // refuse connections

	req, err := New().CreateRequest(http.MethodGet, srv.URL)
	require.NoError(t, err)

	_, err = req.Execute(context.Background())
	require.Error(t, err)
	// The transport error comes through as-is, not wrapped in RequestError.
	var reqErr *RequestError
	assert.NotErrorAs(t, err, &reqErr)
}

func TestExecuteAttachesRequestIDFromContext(t *testing.T) {
	var gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	req, err := New().CreateRequest(http.MethodGet, srv.URL)
	require.NoError(t, err)

	ctx := log.ContextWithRequestID(context.Background(), "req-42")
	resp, err := req.Execute(ctx)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "req-42", gotID)
}

func TestExecuteKeepsExplicitRequestIDHeader(t *testing.T) {
	var gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	req, err := New().CreateRequest(http.MethodGet, srv.URL)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "explicit")

	resp, err := req.Execute(log.ContextWithRequestID(context.Background(), "from-ctx"))
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "explicit", gotID)
}

func TestPrepareRequestHook(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := New()
	f.PrepareRequest = func(r *http.Request) error {
		r.Header.Set("Authorization", "Bearer token-1")
		return nil
	}

	req, err := f.CreateRequest(http.MethodGet, srv.URL)
	require.NoError(t, err)

	resp, err := req.Execute(context.Background())
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "Bearer token-1", gotAuth)
}

func TestExecuteNoGoroutineLeak(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	f := New()
	req, err := f.CreateRequest(http.MethodGet, srv.URL)
	if err != nil {
		srv.Close()
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := req.Execute(context.Background())
	if err != nil {
		srv.Close()
		t.Fatalf("execute: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	if transport, ok := f.transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
	srv.Close()
}
