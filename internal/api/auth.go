// YTBridge - YouTube Media Resolution API
// Copyright 2026 YTBridge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ytbridge/ytbridge

package api

import (
	"net/http"
	"strings"

	"github.com/ytbridge/ytbridge/internal/keyring"
	"github.com/ytbridge/ytbridge/internal/logging"
	"github.com/ytbridge/ytbridge/internal/metrics"
)

// extractAPIKey pulls the API key from the request, checking the ?key=
// query parameter first, then the X-API-Key header, then an
// Authorization: Bearer token. First non-empty source wins.
func extractAPIKey(r *http.Request) string {
	if key := r.URL.Query().Get("key"); key != "" {
		return key
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireAPIKey rejects requests that do not carry a recognized API
// key: 401 when no key is presented, 403 when the key is unknown.
func RequireAPIKey(registry *keyring.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractAPIKey(r)
			if key == "" {
				metrics.RecordAuthFailure("missing_key")
				respondError(w, http.StatusUnauthorized, "API key required.", CodeMissingKey, "")
				return
			}
			if !registry.IsValid(key) {
				metrics.RecordAuthFailure("invalid_key")
				logger := logging.Ctx(r.Context())
				logger.Warn().
					Str("path", r.URL.Path).
					Msg("Rejected request with invalid API key")
				respondError(w, http.StatusForbidden, "Invalid API key.", CodeInvalidKey, "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractMasterKey pulls the master key from the ?master_key= query
// parameter or the X-Master-Key header.
func extractMasterKey(r *http.Request) string {
	if key := r.URL.Query().Get("master_key"); key != "" {
		return key
	}
	return r.Header.Get("X-Master-Key")
}

// RequireMasterKey gates key minting behind the master key.
func RequireMasterKey(registry *keyring.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractMasterKey(r)
			if key == "" {
				metrics.RecordAuthFailure("missing_key")
				respondError(w, http.StatusUnauthorized, "Master key required.", CodeMissingKey, "")
				return
			}
			if !registry.IsMaster(key) {
				metrics.RecordAuthFailure("invalid_master_key")
				logger := logging.Ctx(r.Context())
				logger.Warn().
					Str("path", r.URL.Path).
					Msg("Rejected key minting with invalid master key")
				respondError(w, http.StatusForbidden, "Invalid master key.", CodeForbidden, "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
