// YTBridge - YouTube Media Resolution API
// Copyright 2026 YTBridge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ytbridge/ytbridge

// Command server runs the YTBridge HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ytbridge/ytbridge/internal/api"
	"github.com/ytbridge/ytbridge/internal/cache"
	"github.com/ytbridge/ytbridge/internal/config"
	"github.com/ytbridge/ytbridge/internal/extractor"
	"github.com/ytbridge/ytbridge/internal/keepalive"
	"github.com/ytbridge/ytbridge/internal/keyring"
	"github.com/ytbridge/ytbridge/internal/logging"
	"github.com/ytbridge/ytbridge/internal/supervisor"
	"github.com/ytbridge/ytbridge/internal/supervisor/services"
)

// version is set via -ldflags at build time.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ytbridge: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	log := logging.Logger()
	log.Info().
		Str("version", version).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting ytbridge")

	keys, err := keyring.New(cfg.Security.MasterAPIKey, cfg.Security.APIKeys)
	if err != nil {
		return fmt.Errorf("initializing key registry: %w", err)
	}
	if cfg.Security.MasterAPIKey == "" {
		// Without a configured master key the generated one is the only
		// way in, so it has to be surfaced to the operator once.
		log.Warn().
			Str("master_key", keys.MasterKey()).
			Msg("No master key configured; generated one for this run")
	}

	results := cache.New(cfg.Cache.TTL, cfg.Cache.SweepInterval)
	runner := extractor.New(cfg.Extractor)

	handler := api.NewHandler(cfg, keys, results, runner, version)
	router := api.NewRouter(cfg, handler)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	if cfg.KeepAlive.Enabled {
		pingURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
		tree.AddBackgroundService(keepalive.New(pingURL, cfg.KeepAlive.Interval, cfg.KeepAlive.Timeout))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := tree.ServeBackground(ctx)
	log.Info().Int("port", cfg.Server.Port).Msg("ytbridge is ready")

	err = <-errCh
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor terminated: %w", err)
	}

	if unstopped, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(unstopped) > 0 {
		for _, s := range unstopped {
			log.Warn().Str("service", s.Name).Msg("Service did not stop within timeout")
		}
	}

	log.Info().Msg("Shutdown complete")
	return nil
}
