// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package outbound

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbound_requests_created_total",
		Help: "Requests handed out by the factory, by HTTP method",
	}, []string{"method"})

	executionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbound_request_executions_total",
		Help: "Outcome of request executions (success, error, prepare_error)",
	}, []string{"method", "result"})

	executionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbound_request_duration_seconds",
		Help:    "Wall time of request executions",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)

func observeCreated(method string) {
	requestsCreatedTotal.WithLabelValues(method).Inc()
}

func observeExecution(method, result string, elapsed time.Duration) {
	executionsTotal.WithLabelValues(method, result).Inc()
	if result != "prepare_error" {
		executionDuration.WithLabelValues(method).Observe(elapsed.Seconds())
	}
}
