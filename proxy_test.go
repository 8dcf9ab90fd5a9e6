// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package outbound

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestApplyProxyDirect(t *testing.T) {
	transport := &http.Transport{}
	if err := applyProxy(transport, nil, time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if transport.Proxy != nil {
		t.Fatal("direct connection must leave Proxy unset")
	}
	if transport.DialContext == nil {
		t.Fatal("dialer must be installed")
	}
}

func TestApplyProxyHTTP(t *testing.T) {
	proxyURL, _ := url.Parse("http://cache.internal:3128")
	transport := &http.Transport{}
	if err := applyProxy(transport, proxyURL, time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req, _ := http.NewRequest(http.MethodGet, "http://upstream/", nil)
	got, err := transport.Proxy(req)
	if err != nil {
		t.Fatalf("proxy func: %v", err)
	}
	if got.Host != "cache.internal:3128" {
		t.Fatalf("proxy host = %s, want cache.internal:3128", got.Host)
	}
}

func TestApplyProxySocks5(t *testing.T) {
	proxyURL, _ := url.Parse("socks5://127.0.0.1:1080")
	transport := &http.Transport{}
	if err := applyProxy(transport, proxyURL, time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if transport.DialContext == nil {
		t.Fatal("socks dialer must be installed")
	}
	if transport.Proxy != nil {
		t.Fatal("socks proxying must not also set an HTTP proxy")
	}
}

func TestApplyProxyUnsupportedScheme(t *testing.T) {
	proxyURL, _ := url.Parse("ftp://127.0.0.1:21")
	if err := applyProxy(&http.Transport{}, proxyURL, time.Second); err == nil {
		t.Fatal("expected error for unsupported proxy scheme")
	}
}

// The factory must route plain-HTTP requests through a configured forward
// proxy instead of dialing the origin.
func TestRequestsRoutedThroughHTTPProxy(t *testing.T) {
	var sawHost string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawHost = r.Host
		_, _ = w.Write([]byte("via-proxy"))
	}))
	defer proxy.Close()

	proxyURL, _ := url.Parse(proxy.URL)
	f := New()
	f.Proxy = proxyURL

	// The origin host does not exist; only the proxy can answer.
	req, err := f.CreateRequest(http.MethodGet, "http://origin.invalid/resource")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := req.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "via-proxy" {
		t.Fatalf("body = %q, want via-proxy", body)
	}
	if sawHost != "origin.invalid" {
		t.Fatalf("proxy saw host %q, want origin.invalid", sawHost)
	}
}
