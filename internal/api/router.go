// YTBridge - YouTube Media Resolution API
// Copyright 2026 YTBridge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ytbridge/ytbridge

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ytbridge/ytbridge/internal/config"
	"github.com/ytbridge/ytbridge/internal/middleware"
)

// NewRouter assembles the chi router. Route groups, outermost first:
//
//   - open:          /, /health, /metrics
//   - master-gated:  /generate-key
//   - key-gated:     /info, /audio, /video (also rate limited)
func NewRouter(cfg *config.Config, h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(corsMiddleware(cfg))
	r.Use(middleware.AccessLog)
	r.Use(middleware.Prometheus)

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(RequireMasterKey(h.keys))
		r.Get("/generate-key", h.GenerateKey)
	})

	r.Group(func(r chi.Router) {
		r.Use(rateLimiter(cfg))
		r.Use(RequireAPIKey(h.keys))
		r.Get("/info", h.Info)
		r.Get("/audio", h.Audio)
		r.Get("/video", h.Video)
	})

	return r
}

// corsMiddleware builds the CORS layer. With no configured origins the
// API is open, matching its use from native apps and scripts.
func corsMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	origins := cfg.Security.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Master-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

// rateLimiter throttles per client IP. Extraction subprocesses are
// expensive, so the limit sits in front of the auth check to shed
// anonymous floods early.
func rateLimiter(cfg *config.Config) func(http.Handler) http.Handler {
	if cfg.Security.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		cfg.Security.RateLimitReqs,
		cfg.Security.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, http.StatusTooManyRequests, "Too many requests.", CodeRateLimited, "")
		}),
	)
}
