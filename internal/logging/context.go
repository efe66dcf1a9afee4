// YTBridge - YouTube Media Resolution API
// Copyright 2026 YTBridge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ytbridge/ytbridge

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Context keys for logging.
type contextKey string

const (
	// requestIDKey is the context key for HTTP request IDs.
	requestIDKey contextKey = "request_id"
)

// GenerateRequestID creates a new unique request ID.
func GenerateRequestID() string {
	return uuid.New().String()
}

// ContextWithRequestID returns a new context with the given request ID.
//
//	ctx = logging.ContextWithRequestID(ctx, requestID)
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if not present.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns the global logger enriched with request-scoped fields from the
// context. The request ID is attached when present so every log line emitted
// while serving a request can be correlated.
func Ctx(ctx context.Context) zerolog.Logger {
	logger := Logger()
	if id := RequestIDFromContext(ctx); id != "" {
		logger = logger.With().Str("request_id", id).Logger()
	}
	return logger
}

// CtxInfo starts an info-level event with request-scoped fields attached.
func CtxInfo(ctx context.Context) *zerolog.Event {
	l := Ctx(ctx)
	return l.Info()
}

// CtxError starts an error-level event with request-scoped fields attached.
func CtxError(ctx context.Context) *zerolog.Event {
	l := Ctx(ctx)
	return l.Error()
}

// WithComponent creates a logger with a component field.
// Use this for component-specific loggers:
//
//	logger := logging.WithComponent("cache")
//	logger.Info().Msg("Sweep complete")
func WithComponent(component string) zerolog.Logger {
	return Logger().With().Str("component", component).Logger()
}
