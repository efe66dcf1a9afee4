// YTBridge - YouTube Media Resolution API
// Copyright 2026 YTBridge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ytbridge/ytbridge

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ytbridge/ytbridge/internal/logging"
)

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if seen == "" {
		t.Error("request ID missing from context")
	}
	if got := rec.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("response header = %q, context = %q", got, seen)
	}
}

func TestRequestIDPropagated(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "upstream-id-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "upstream-id-42" {
		t.Errorf("context request ID = %q, want upstream-id-42", seen)
	}
}

func TestPrometheusCapturesStatus(t *testing.T) {
	h := Prometheus(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/video", nil))

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rec.Code)
	}
}

func TestMetricsResponseWriterFirstStatusWins(t *testing.T) {
	rec := httptest.NewRecorder()
	mw := &metricsResponseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	mw.WriteHeader(http.StatusForbidden)
	mw.WriteHeader(http.StatusOK)

	if mw.statusCode != http.StatusForbidden {
		t.Errorf("statusCode = %d, want 403", mw.statusCode)
	}
}
