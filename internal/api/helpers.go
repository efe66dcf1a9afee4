// YTBridge - YouTube Media Resolution API
// Copyright 2026 YTBridge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ytbridge/ytbridge

package api

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/ytbridge/ytbridge/internal/logging"
	"github.com/ytbridge/ytbridge/internal/models"
)

// Error codes surfaced in error bodies. Stable strings that clients may
// switch on; the human-readable message may change.
const (
	CodeMissingKey    = "MISSING_KEY"
	CodeInvalidKey    = "INVALID_KEY"
	CodeForbidden     = "FORBIDDEN"
	CodeRateLimited   = "RATE_LIMITED"
	CodeTimedOut      = "TIMED_OUT"
	CodeToolError     = "TOOL_ERROR"
	CodeEmptyOutput   = "EMPTY_OUTPUT"
	CodeSpawnFailure  = "SPAWN_FAILURE"
	CodeInternalError = "INTERNAL_ERROR"
)

// respondJSON writes v as a JSON body with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := logging.Logger()
		logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError writes the uniform error body. details may be empty.
func respondError(w http.ResponseWriter, status int, message, code, details string) {
	respondJSON(w, status, models.ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}
