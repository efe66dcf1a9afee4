// YTBridge - YouTube Media Resolution API
// Copyright 2026 YTBridge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ytbridge/ytbridge

// Package config provides layered configuration loading for YTBridge.
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (PORT, MASTER_API_KEY, PROXY_URL, ...)
//   - Config file (config.yaml)
//   - Built-in defaults
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Extractor ExtractorConfig `koanf:"extractor"`
	Cache     CacheConfig     `koanf:"cache"`
	KeepAlive KeepAliveConfig `koanf:"keepalive"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int    `koanf:"port"`
	Host string `koanf:"host"`

	// Timeout bounds request header reads.
	Timeout time.Duration `koanf:"timeout"`

	// IdleTimeout keeps connections open between keep-alive requests.
	// The original deployment target reaps idle instances aggressively,
	// so this is tuned above the platform's 60s probe interval.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// ShutdownTimeout bounds graceful drain on SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SecurityConfig holds API key and request throttling settings.
type SecurityConfig struct {
	// MasterAPIKey is the key allowed to mint new API keys.
	// Generated at startup when empty.
	MasterAPIKey string `koanf:"master_api_key"`

	// APIKeys are additional pre-provisioned keys accepted at startup.
	APIKeys []string `koanf:"api_keys"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// ExtractorConfig holds settings for the external extraction tool.
type ExtractorConfig struct {
	// BinPath is the yt-dlp executable name or absolute path.
	BinPath string `koanf:"bin_path"`

	// UserAgent is passed to the tool for all outbound requests.
	UserAgent string `koanf:"user_agent"`

	// ProxyURL routes the tool's traffic through an outbound proxy when set.
	ProxyURL string `koanf:"proxy_url"`

	// CookiesFile is handed to the tool when the file exists.
	// Provisioning and rotation of the file are external concerns.
	CookiesFile string `koanf:"cookies_file"`

	// Per-operation wall-clock timeouts. Video resolution is the slowest
	// path because the tool must probe separate video and audio streams.
	MetadataTimeout time.Duration `koanf:"metadata_timeout"`
	AudioTimeout    time.Duration `koanf:"audio_timeout"`
	VideoTimeout    time.Duration `koanf:"video_timeout"`

	// SocketTimeoutSecs is passed to the tool as --socket-timeout for the
	// media paths.
	SocketTimeoutSecs int `koanf:"socket_timeout_secs"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	// TTL is how long a resolved result may be served before re-extraction.
	TTL time.Duration `koanf:"ttl"`

	// SweepInterval is how often expired entries are removed in bulk.
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// KeepAliveConfig holds self-ping settings used to defeat idle-instance
// reaping on free-tier hosting.
type KeepAliveConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`
	Timeout  time.Duration `koanf:"timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// DefaultUserAgent matches a mainstream desktop browser so the extraction
// tool's requests blend in with ordinary traffic.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Validate checks configuration values for consistency.
// It is called automatically by Load.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Security.MasterAPIKey != "" && len(c.Security.MasterAPIKey) < 32 {
		return fmt.Errorf("security.master_api_key must be at least 32 characters, got %d", len(c.Security.MasterAPIKey))
	}

	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("security.rate_limit_reqs must be positive, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("security.rate_limit_window must be positive, got %s", c.Security.RateLimitWindow)
		}
	}

	if c.Extractor.BinPath == "" {
		return fmt.Errorf("extractor.bin_path must not be empty")
	}
	for name, d := range map[string]time.Duration{
		"extractor.metadata_timeout": c.Extractor.MetadataTimeout,
		"extractor.audio_timeout":    c.Extractor.AudioTimeout,
		"extractor.video_timeout":    c.Extractor.VideoTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	if c.Cache.SweepInterval <= 0 || c.Cache.SweepInterval > time.Minute {
		return fmt.Errorf("cache.sweep_interval must be in (0s, 60s], got %s", c.Cache.SweepInterval)
	}

	if c.KeepAlive.Enabled {
		if c.KeepAlive.Interval <= 0 {
			return fmt.Errorf("keepalive.interval must be positive, got %s", c.KeepAlive.Interval)
		}
		if c.KeepAlive.Timeout <= 0 {
			return fmt.Errorf("keepalive.timeout must be positive, got %s", c.KeepAlive.Timeout)
		}
	}

	return nil
}

// Addr returns the listen address in host:port form.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TimeoutFor returns the configured wall-clock timeout for an operation kind
// ("metadata", "audio" or "video"). Unknown kinds fall back to the metadata
// timeout, the shortest of the three.
func (c *ExtractorConfig) TimeoutFor(kind string) time.Duration {
	switch kind {
	case "audio":
		return c.AudioTimeout
	case "video":
		return c.VideoTimeout
	default:
		return c.MetadataTimeout
	}
}
