// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command outbound-probe fires requests through the outbound factory at a
// target URL and emits a JSON report. It exists to verify factory behavior
// (proxy routing, timeouts, redirect/body policy) against a live endpoint.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/ManuGH/outbound"
	"github.com/ManuGH/outbound/internal/config"
	"github.com/ManuGH/outbound/internal/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type probeConfig struct {
	URL            string
	Method         string
	Body           string
	Proxy          string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Count          int
	Concurrency    int
	Rate           float64
	Trace          bool
}

type probeReport struct {
	Timestamp time.Time     `json:"timestamp"`
	RunID     string        `json:"run_id"`
	Target    string        `json:"target"`
	Method    string        `json:"method"`
	Checks    []checkResult `json:"checks"`
}

type checkResult struct {
	Name      string `json:"name"`
	Passed    bool   `json:"passed"`
	Status    int    `json:"status,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
	Details   string `json:"details,omitempty"`
}

var errChecksFailed = errors.New("one or more checks failed")

func main() {
	cfg := probeConfig{}
	flag.StringVar(&cfg.URL, "url", config.ParseString("OUTBOUND_PROBE_URL", ""), "target URL (required)")
	flag.StringVar(&cfg.Method, "method", config.ParseString("OUTBOUND_PROBE_METHOD", http.MethodGet), "HTTP method, applied verbatim")
	flag.StringVar(&cfg.Body, "body", config.ParseString("OUTBOUND_PROBE_BODY", ""), "request body (methods with body policy only)")
	flag.StringVar(&cfg.Proxy, "proxy", config.ParseString("OUTBOUND_PROXY", ""), "proxy URL (http, https, socks5)")
	flag.DurationVar(&cfg.ConnectTimeout, "connect-timeout", config.ParseDuration("OUTBOUND_CONNECT_TIMEOUT", -1), "connect timeout, negative keeps defaults")
	flag.DurationVar(&cfg.ReadTimeout, "read-timeout", config.ParseDuration("OUTBOUND_READ_TIMEOUT", -1), "read timeout, negative keeps defaults")
	flag.IntVar(&cfg.Count, "n", config.ParseInt("OUTBOUND_PROBE_COUNT", 1), "number of requests")
	flag.IntVar(&cfg.Concurrency, "concurrency", config.ParseInt("OUTBOUND_PROBE_CONCURRENCY", 1), "concurrent requests")
	flag.Float64Var(&cfg.Rate, "rate", config.ParseFloat("OUTBOUND_PROBE_RATE", 0), "requests per second, 0 = unpaced")
	flag.BoolVar(&cfg.Trace, "trace", config.ParseBool("OUTBOUND_TRACE", false), "wrap the transport with otel instrumentation")
	flag.Parse()

	if err := run(context.Background(), cfg, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Probe failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg probeConfig, out io.Writer) error {
	if cfg.URL == "" {
		return errors.New("missing target URL (-url or OUTBOUND_PROBE_URL)")
	}
	if cfg.Count < 1 {
		cfg.Count = 1
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	factory, err := buildFactory(cfg)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	ctx = log.ContextWithRunID(ctx, runID)
	logger := log.WithComponentFromContext(ctx, "probe")
	logger.Info().
		Str(log.FieldRunID, runID).
		Str(log.FieldMethod, cfg.Method).
		Str(log.FieldURL, cfg.URL).
		Int(log.FieldConcurrency, cfg.Concurrency).
		Msg("starting probe run")

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}

	report := probeReport{
		Timestamp: time.Now(),
		RunID:     runID,
		Target:    cfg.URL,
		Method:    cfg.Method,
		Checks:    make([]checkResult, 0, cfg.Count),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)

	for i := 0; i < cfg.Count; i++ {
		name := fmt.Sprintf("request_%03d", i+1)
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			res := fireOnce(gctx, factory, cfg, name)
			// The writer is shared across goroutines, so printing stays
			// inside the critical section alongside the report append.
			mu.Lock()
			if res.Passed {
				fmt.Fprintf(out, "PASS: %s (%dms)\n", res.Name, res.LatencyMs)
			} else {
				fmt.Fprintf(out, "FAIL: %s (%s)\n", res.Name, res.Details)
			}
			report.Checks = append(report.Checks, res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}

	for _, c := range report.Checks {
		if !c.Passed {
			return errChecksFailed
		}
	}
	return nil
}

func buildFactory(cfg probeConfig) (*outbound.Factory, error) {
	f := outbound.New()
	f.ConnectTimeout = cfg.ConnectTimeout
	f.ReadTimeout = cfg.ReadTimeout
	f.EnableTracing = cfg.Trace
	if cfg.Proxy != "" {
		u, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", cfg.Proxy, err)
		}
		f.Proxy = u
	}
	return f, nil
}

// fireOnce creates, fills and executes a single request. Any error along the
// way fails the check; a response counts as passed below HTTP 400.
func fireOnce(ctx context.Context, factory *outbound.Factory, cfg probeConfig, name string) checkResult {
	reqID := uuid.NewString()
	ctx = log.ContextWithRequestID(ctx, reqID)

	res := checkResult{Name: name}

	req, err := factory.CreateRequest(cfg.Method, cfg.URL)
	if err != nil {
		res.Details = err.Error()
		return res
	}
	if cfg.Body != "" {
		if _, err := req.WriteString(cfg.Body); err != nil {
			res.Details = err.Error()
			return res
		}
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := req.Execute(ctx)
	res.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		res.Details = err.Error()
		return res
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	res.Status = resp.StatusCode
	if resp.StatusCode >= http.StatusBadRequest {
		res.Details = fmt.Sprintf("status %d", resp.StatusCode)
		return res
	}
	res.Passed = true
	return res
}
