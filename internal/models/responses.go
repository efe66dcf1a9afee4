// YTBridge - YouTube Media Resolution API
// Copyright 2026 YTBridge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ytbridge/ytbridge

// Package models defines the JSON payloads of the HTTP API.
package models

// RootResponse describes the service at GET /.
type RootResponse struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
}

// HealthResponse is the liveness payload at GET /health.
type HealthResponse struct {
	Status    string      `json:"status"`
	Timestamp string      `json:"timestamp"`
	Uptime    float64     `json:"uptime"`
	Cache     CacheHealth `json:"cache"`
}

// CacheHealth is the result-cache snapshot embedded in /health.
type CacheHealth struct {
	Keys    int64   `json:"keys"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// KeyResponse carries a freshly minted API key.
type KeyResponse struct {
	Success bool   `json:"success"`
	APIKey  string `json:"api_key"`
}

// InfoResponse is the condensed metadata payload at GET /info.
type InfoResponse struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	Uploader string  `json:"uploader"`
	Formats  int     `json:"formats"`
	Cached   bool    `json:"cached"`
}

// AudioResponse carries a resolved direct audio URL.
type AudioResponse struct {
	AudioURL string `json:"audio_url"`
	Cached   bool   `json:"cached"`
}

// VideoResponse carries a resolved direct video URL.
type VideoResponse struct {
	VideoURL string `json:"video_url"`
	Cached   bool   `json:"cached"`
}

// ErrorResponse is the uniform error body. Code and Details are omitted
// when empty so simple validation errors stay single-field.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
