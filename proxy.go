// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package outbound

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	xproxy "golang.org/x/net/proxy"
)

// applyProxy wires the proxy and dialer into the transport. A nil proxy
// means a direct connection; the environment proxy settings are never
// consulted.
func applyProxy(t *http.Transport, proxyURL *url.URL, dialTimeout time.Duration) error {
	dialer := &net.Dialer{Timeout: dialTimeout, KeepAlive: defaultKeepAlive}

	if proxyURL == nil {
		t.DialContext = dialer.DialContext
		return nil
	}

	switch strings.ToLower(proxyURL.Scheme) {
	case "socks5", "socks5h":
		fwd, err := xproxy.FromURL(proxyURL, dialer)
		if err != nil {
			return fmt.Errorf("outbound: socks proxy %s: %w", proxyURL.Host, err)
		}
		t.DialContext = contextDial(fwd)
	case "http", "https":
		t.Proxy = http.ProxyURL(proxyURL)
		t.DialContext = dialer.DialContext
	default:
		return fmt.Errorf("outbound: unsupported proxy scheme %q", proxyURL.Scheme)
	}
	return nil
}

// contextDial adapts a proxy dialer to the transport's DialContext shape.
func contextDial(d xproxy.Dialer) func(context.Context, string, string) (net.Conn, error) {
	if cd, ok := d.(xproxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(_ context.Context, network, addr string) (net.Conn, error) {
		return d.Dial(network, addr)
	}
}
