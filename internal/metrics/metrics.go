// YTBridge - YouTube Media Resolution API
// Copyright 2026 YTBridge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ytbridge/ytbridge

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for production observability:
// - API endpoint latency and throughput
// - Extraction subprocess invocations, outcomes and durations
// - Result cache efficiency

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.25, 1, 5, 15, 30, 60, 90},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Extraction Subprocess Metrics
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extractions_total",
			Help: "Total number of extraction subprocess invocations by outcome",
		},
		[]string{"kind", "outcome"}, // outcome: succeeded, timed_out, tool_error, empty_output, spawn_failure
	)

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "extraction_duration_seconds",
			Help:    "Wall-clock duration of extraction subprocess invocations",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 45, 60},
		},
		[]string{"kind"},
	)

	ExtractionActiveProcesses = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "extraction_active_processes",
			Help: "Current number of running extraction subprocesses",
		},
	)

	// Result Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "result_cache_hits_total",
			Help: "Total number of result cache hits",
		},
		[]string{"kind"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "result_cache_misses_total",
			Help: "Total number of result cache misses",
		},
		[]string{"kind"},
	)

	// API Key Metrics
	KeysIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "api_keys_issued_total",
			Help: "Total number of API keys minted at runtime",
		},
	)

	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Total number of rejected requests by reason",
		},
		[]string{"reason"}, // missing_key, invalid_key, invalid_master_key
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordExtraction records one subprocess invocation with its terminal outcome.
func RecordExtraction(kind, outcome string, duration time.Duration) {
	ExtractionsTotal.WithLabelValues(kind, outcome).Inc()
	ExtractionDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// TrackActiveExtraction increments or decrements the running subprocess gauge.
func TrackActiveExtraction(inc bool) {
	if inc {
		ExtractionActiveProcesses.Inc()
	} else {
		ExtractionActiveProcesses.Dec()
	}
}

// RecordCacheLookup records a cache hit or miss for an operation kind.
func RecordCacheLookup(kind string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(kind).Inc()
	} else {
		CacheMisses.WithLabelValues(kind).Inc()
	}
}

// RecordAuthFailure records a rejected request.
func RecordAuthFailure(reason string) {
	AuthFailures.WithLabelValues(reason).Inc()
}
