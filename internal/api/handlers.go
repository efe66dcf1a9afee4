// YTBridge - YouTube Media Resolution API
// Copyright 2026 YTBridge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ytbridge/ytbridge

// Package api implements the HTTP surface: routing, authorization and
// the request orchestration that ties cache and extractor together.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ytbridge/ytbridge/internal/cache"
	"github.com/ytbridge/ytbridge/internal/config"
	"github.com/ytbridge/ytbridge/internal/extractor"
	"github.com/ytbridge/ytbridge/internal/keyring"
	"github.com/ytbridge/ytbridge/internal/logging"
	"github.com/ytbridge/ytbridge/internal/metrics"
	"github.com/ytbridge/ytbridge/internal/models"
	"github.com/ytbridge/ytbridge/internal/validation"
)

// Extractor abstracts the subprocess runner for handler tests.
type Extractor interface {
	Run(ctx context.Context, kind extractor.Kind, rawURL string) (*extractor.Result, error)
}

// Handler carries the dependencies of all HTTP handlers.
type Handler struct {
	cfg     *config.Config
	keys    *keyring.Registry
	results *cache.Cache
	runner  Extractor
	version string
	started time.Time
}

// NewHandler wires handler dependencies.
func NewHandler(cfg *config.Config, keys *keyring.Registry, results *cache.Cache, runner Extractor, version string) *Handler {
	return &Handler{
		cfg:     cfg,
		keys:    keys,
		results: results,
		runner:  runner,
		version: version,
		started: time.Now(),
	}
}

// Root describes the service and its endpoints. Unauthenticated.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.RootResponse{
		Service: "ytbridge",
		Version: h.version,
		Status:  "running",
		Endpoints: map[string]string{
			"GET /health":       "liveness probe",
			"GET /generate-key": "mint an API key (master key required)",
			"GET /info":         "video metadata for ?url=",
			"GET /audio":        "direct audio URL for ?url=",
			"GET /video":        "direct video URL for ?url=",
			"GET /metrics":      "prometheus metrics",
		},
	})
}

// Health is the liveness probe. Unauthenticated so platform probes and
// the keep-alive pinger can reach it.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats := h.results.GetStats()
	respondJSON(w, http.StatusOK, models.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.started).Seconds(),
		Cache: models.CacheHealth{
			Keys:    stats.TotalKeys,
			Hits:    stats.Hits,
			Misses:  stats.Misses,
			HitRate: h.results.HitRate(),
		},
	})
}

// GenerateKey mints a new API key. Reached only through the master-key
// gate, so Issue's master check is a second line of defense.
func (h *Handler) GenerateKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.keys.Issue(extractMasterKey(r))
	if err != nil {
		if errors.Is(err, keyring.ErrNotMaster) {
			respondError(w, http.StatusForbidden, "Invalid master key.", CodeForbidden, "")
			return
		}
		logging.CtxError(r.Context()).Err(err).Msg("Key minting failed")
		respondError(w, http.StatusInternalServerError, "Failed to generate key.", CodeInternalError, "")
		return
	}

	metrics.KeysIssued.Inc()
	logging.CtxInfo(r.Context()).Int("total_keys", h.keys.Len()).Msg("Minted new API key")
	respondJSON(w, http.StatusOK, models.KeyResponse{Success: true, APIKey: key})
}

// Info returns condensed video metadata for ?url=.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, extractor.KindMetadata)
}

// Audio returns the direct best-audio URL for ?url=.
func (h *Handler) Audio(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, extractor.KindAudio)
}

// Video returns the direct best-quality video URL for ?url=.
func (h *Handler) Video(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, extractor.KindVideo)
}

// resolve is the shared orchestration path: validate the URL, consult
// the result cache, fall through to one subprocess run, and cache only
// successes so transient failures are retried immediately.
//
// There is no request coalescing: concurrent identical requests each
// spawn their own extraction. Known limitation; the duplicate-work
// window is a single extraction.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, kind extractor.Kind) {
	rawURL := r.URL.Query().Get("url")
	if strings.TrimSpace(rawURL) == "" {
		respondError(w, http.StatusBadRequest, "Missing YouTube URL parameter.", "", "")
		return
	}
	if err := validation.MediaURL(rawURL); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid URL format.", "", "")
		return
	}

	fp := cache.Fingerprint(string(kind), rawURL)
	if v, ok := h.results.Get(fp); ok {
		if res, ok := v.(*extractor.Result); ok {
			metrics.RecordCacheLookup(string(kind), true)
			respondJSON(w, http.StatusOK, buildPayload(res, true))
			return
		}
	}
	metrics.RecordCacheLookup(string(kind), false)

	res, err := h.runner.Run(r.Context(), kind, rawURL)
	if err != nil {
		h.respondExtractionError(w, r, kind, err)
		return
	}

	h.results.Set(fp, res)
	respondJSON(w, http.StatusOK, buildPayload(res, false))
}

// respondExtractionError maps each failure classification to its HTTP
// status. Timeouts are the client's fault only in the sense that the
// upstream was slow, so they get 504; everything else is 500.
func (h *Handler) respondExtractionError(w http.ResponseWriter, r *http.Request, kind extractor.Kind, err error) {
	var xerr *extractor.ExtractError
	if !errors.As(err, &xerr) {
		logging.CtxError(r.Context()).Err(err).Str("kind", string(kind)).Msg("Extraction failed")
		respondError(w, http.StatusInternalServerError, "Extraction failed.", CodeInternalError, "")
		return
	}

	logging.CtxError(r.Context()).
		Str("kind", string(kind)).
		Str("outcome", xerr.Kind.String()).
		Str("detail", xerr.Detail).
		Msg("Extraction failed")

	switch xerr.Kind {
	case extractor.FailureTimeout:
		respondError(w, http.StatusGatewayTimeout, "Extraction timed out.", CodeTimedOut, xerr.Detail)
	case extractor.FailureTool:
		respondError(w, http.StatusInternalServerError, "Extraction tool failed.", CodeToolError, xerr.Detail)
	case extractor.FailureEmptyOutput:
		respondError(w, http.StatusInternalServerError, "Extraction produced no output.", CodeEmptyOutput, xerr.Detail)
	default:
		respondError(w, http.StatusInternalServerError, "Extraction tool could not be started.", CodeSpawnFailure, xerr.Detail)
	}
}

// buildPayload shapes a successful extraction result into the endpoint
// payload, tagging whether it came from the cache.
func buildPayload(res *extractor.Result, cached bool) any {
	switch res.Kind {
	case extractor.KindAudio:
		return models.AudioResponse{AudioURL: res.MediaURL, Cached: cached}
	case extractor.KindVideo:
		return models.VideoResponse{VideoURL: res.MediaURL, Cached: cached}
	default:
		md := res.Metadata
		return models.InfoResponse{
			ID:       md.ID,
			Title:    md.Title,
			Duration: md.Duration,
			Uploader: md.Uploader,
			Formats:  md.Formats,
			Cached:   cached,
		}
	}
}
