// YTBridge - YouTube Media Resolution API
// Copyright 2026 YTBridge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ytbridge/ytbridge

// Package middleware provides HTTP middleware shared across the router.
package middleware

import (
	"net/http"

	"github.com/ytbridge/ytbridge/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// RequestID attaches a request ID to the request context and echoes it
// in the response. An inbound X-Request-ID is trusted and propagated;
// otherwise a new UUID is generated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = logging.GenerateRequestID()
		}

		ctx := logging.ContextWithRequestID(r.Context(), id)
		w.Header().Set(requestIDHeader, id)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
