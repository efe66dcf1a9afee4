// YTBridge - YouTube Media Resolution API
// Copyright 2026 YTBridge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ytbridge/ytbridge

// Package keepalive pings the service's own health endpoint on an
// interval. Free-tier hosting reaps instances that receive no traffic;
// a periodic self-request keeps the instance warm.
package keepalive

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/ytbridge/ytbridge/internal/logging"
)

// Pinger is a suture.Service that issues periodic GET requests to a
// fixed URL. Failed pings are logged and retried on the next tick; they
// never terminate the service.
type Pinger struct {
	url      string
	interval time.Duration
	client   *http.Client
}

// New creates a Pinger hitting url every interval, with the given
// per-request timeout.
func New(url string, interval, timeout time.Duration) *Pinger {
	return &Pinger{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: timeout},
	}
}

// Serve implements suture.Service.
func (p *Pinger) Serve(ctx context.Context) error {
	logger := logging.WithComponent("keepalive")
	logger.Info().
		Str("url", p.url).
		Dur("interval", p.interval).
		Msg("Keep-alive pinger started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.ping(ctx); err != nil {
				logger.Warn().Err(err).Msg("Keep-alive ping failed")
			} else {
				logger.Debug().Msg("Keep-alive ping ok")
			}
		}
	}
}

func (p *Pinger) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// String implements fmt.Stringer for supervisor logging.
func (p *Pinger) String() string {
	return "keepalive-pinger"
}
