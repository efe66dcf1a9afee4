// YTBridge - YouTube Media Resolution API
// Copyright 2026 YTBridge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ytbridge/ytbridge

package middleware

import (
	"net/http"
	"time"

	"github.com/ytbridge/ytbridge/internal/logging"
)

// AccessLog emits one structured log line per request. Query strings
// are omitted because they carry API keys.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		mw := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(mw, r)

		logger := logging.Logger()
		evt := logger.Info()
		if mw.statusCode >= 500 {
			evt = logger.Error()
		} else if mw.statusCode >= 400 {
			evt = logger.Warn()
		}
		evt.
			Str("request_id", logging.RequestIDFromContext(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", mw.statusCode).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("Request completed")
	})
}
