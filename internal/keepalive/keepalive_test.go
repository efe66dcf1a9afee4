// YTBridge - YouTube Media Resolution API
// Copyright 2026 YTBridge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ytbridge/ytbridge

package keepalive

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

func TestPingerImplementsService(t *testing.T) {
	var _ suture.Service = (*Pinger)(nil)
}

func TestPingerHitsEndpoint(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("pinged %s, want /health", r.URL.Path)
		}
		hits.Add(1)
	}))
	defer srv.Close()

	p := New(srv.URL+"/health", 20*time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Serve(ctx) }()

	time.Sleep(120 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	if hits.Load() < 2 {
		t.Errorf("got %d pings, want at least 2", hits.Load())
	}
}

func TestPingerSurvivesFailures(t *testing.T) {
	// No server listening: every ping fails, but Serve keeps running
	// until the context is canceled.
	p := New("http://127.0.0.1:1/health", 10*time.Millisecond, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	if err := p.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve = %v, want context.DeadlineExceeded", err)
	}
}

func TestPingerString(t *testing.T) {
	if got := New("http://localhost/health", time.Minute, time.Second).String(); got != "keepalive-pinger" {
		t.Errorf("String() = %q", got)
	}
}
