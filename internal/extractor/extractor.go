// YTBridge - YouTube Media Resolution API
// Copyright 2026 YTBridge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ytbridge/ytbridge

// Package extractor runs the external yt-dlp tool as a short-lived
// subprocess and classifies every invocation into a closed outcome set.
//
// One invocation per request, no retries: the tool is trusted to do its
// own retrying against upstream, and retrying here would multiply load
// on a path that is already tens of seconds long.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/ytbridge/ytbridge/internal/config"
	"github.com/ytbridge/ytbridge/internal/logging"
	"github.com/ytbridge/ytbridge/internal/metrics"
)

const (
	// metadataStdoutCap bounds stdout capture for the metadata dump, which
	// is a single large JSON object.
	metadataStdoutCap = 2 * 1024 * 1024

	// mediaStdoutCap bounds stdout capture for URL resolution, where the
	// expected output is one or two lines.
	mediaStdoutCap = 512 * 1024

	// stderrCap bounds stderr capture for diagnostics.
	stderrCap = 512 * 1024

	// Detail excerpts surfaced to clients are truncated hard so a noisy
	// tool cannot bloat error responses.
	metadataDetailLimit = 200
	mediaDetailLimit    = 150

	// waitDelay bounds Wait after the context fires, so a child that
	// ignores SIGKILL propagation on its own descendants cannot hang us.
	waitDelay = 5 * time.Second
)

// Runner invokes the extraction tool. It is stateless and safe for
// concurrent use.
type Runner struct {
	cfg config.ExtractorConfig
}

// New creates a Runner from extractor configuration. The config is
// copied; later mutation of the caller's struct has no effect.
func New(cfg config.ExtractorConfig) *Runner {
	return &Runner{cfg: cfg}
}

// Run spawns one tool invocation for the given kind and URL and waits
// for it to finish or time out. The per-kind deadline is derived from
// configuration and layered onto the caller's context. On failure the
// returned error is always an *ExtractError.
func (r *Runner) Run(ctx context.Context, kind Kind, rawURL string) (*Result, error) {
	timeout := r.cfg.TimeoutFor(string(kind))
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := r.buildArgs(kind, rawURL)

	stdout := newLimitedBuffer(stdoutCapFor(kind))
	stderr := newLimitedBuffer(stderrCap)

	cmd := exec.CommandContext(runCtx, r.cfg.BinPath, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	logger := logging.Logger()
	logger.Debug().
		Str("kind", string(kind)).
		Str("url", rawURL).
		Dur("timeout", timeout).
		Msg("Starting extraction")

	started := time.Now()
	if err := cmd.Start(); err != nil {
		xerr := &ExtractError{
			Kind:   FailureSpawn,
			Detail: truncate(err.Error(), detailLimitFor(kind)),
			Err:    err,
		}
		r.finish(kind, xerr.Kind.String(), started)
		return nil, xerr
	}

	metrics.TrackActiveExtraction(true)
	waitErr := cmd.Wait()
	metrics.TrackActiveExtraction(false)

	// A deadline hit always wins over the exit status: the kill induced
	// by the expiring context surfaces as a nonzero exit, which must not
	// be misread as a tool failure.
	if runCtx.Err() == context.DeadlineExceeded {
		xerr := &ExtractError{
			Kind:   FailureTimeout,
			Detail: fmt.Sprintf("process exceeded %s deadline", timeout),
			Err:    context.DeadlineExceeded,
		}
		r.finish(kind, xerr.Kind.String(), started)
		return nil, xerr
	}

	if waitErr != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = waitErr.Error()
		}
		xerr := &ExtractError{
			Kind:   FailureTool,
			Detail: truncate(detail, detailLimitFor(kind)),
			Err:    waitErr,
		}
		r.finish(kind, xerr.Kind.String(), started)
		return nil, xerr
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		xerr := &ExtractError{
			Kind:   FailureEmptyOutput,
			Detail: "tool exited cleanly but produced no output",
		}
		r.finish(kind, xerr.Kind.String(), started)
		return nil, xerr
	}

	result, err := parseOutput(kind, out)
	if err != nil {
		xerr := &ExtractError{
			Kind:   FailureEmptyOutput,
			Detail: truncate(err.Error(), detailLimitFor(kind)),
			Err:    err,
		}
		r.finish(kind, xerr.Kind.String(), started)
		return nil, xerr
	}

	r.finish(kind, "succeeded", started)
	logger.Debug().
		Str("kind", string(kind)).
		Dur("elapsed", time.Since(started)).
		Bool("stdout_truncated", stdout.Truncated()).
		Msg("Extraction succeeded")
	return result, nil
}

func (r *Runner) finish(kind Kind, outcome string, started time.Time) {
	metrics.RecordExtraction(string(kind), outcome, time.Since(started))
}

// buildArgs assembles the per-kind argument vector. The URL is always
// passed as the final positional argument, never interpolated into a
// shell.
func (r *Runner) buildArgs(kind Kind, rawURL string) []string {
	var args []string

	switch kind {
	case KindAudio:
		args = append(args, "-f", "bestaudio", "--get-url", "--no-warnings",
			"--socket-timeout", strconv.Itoa(r.cfg.SocketTimeoutSecs))
	case KindVideo:
		args = append(args, "-f", "bestvideo+bestaudio", "--get-url", "--no-warnings",
			"--socket-timeout", strconv.Itoa(r.cfg.SocketTimeoutSecs))
	default:
		args = append(args, "-j", "--no-warnings", "--skip-download")
	}

	if r.cfg.UserAgent != "" {
		args = append(args, "--user-agent", r.cfg.UserAgent)
	}
	if r.cfg.CookiesFile != "" {
		if _, err := os.Stat(r.cfg.CookiesFile); err == nil {
			args = append(args, "--cookies", r.cfg.CookiesFile)
		}
	}
	if r.cfg.ProxyURL != "" {
		args = append(args, "--proxy", r.cfg.ProxyURL)
	}

	return append(args, rawURL)
}

// parseOutput converts trimmed stdout into a Result. For media kinds the
// first non-empty line is the resolved URL; the tool may emit separate
// video and audio URLs for merged formats, in which case the first
// (video) line is authoritative.
func parseOutput(kind Kind, out string) (*Result, error) {
	if kind == KindMetadata {
		var raw struct {
			ID       string            `json:"id"`
			Title    string            `json:"title"`
			Duration float64           `json:"duration"`
			Uploader string            `json:"uploader"`
			Formats  []json.RawMessage `json:"formats"`
		}
		if err := json.Unmarshal([]byte(out), &raw); err != nil {
			return nil, fmt.Errorf("unparseable metadata dump: %w", err)
		}
		return &Result{
			Kind: kind,
			Metadata: &Metadata{
				ID:       raw.ID,
				Title:    raw.Title,
				Duration: raw.Duration,
				Uploader: raw.Uploader,
				Formats:  len(raw.Formats),
			},
		}, nil
	}

	line, _, _ := strings.Cut(out, "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, errors.New("no URL in tool output")
	}
	return &Result{Kind: kind, MediaURL: line}, nil
}

func stdoutCapFor(kind Kind) int {
	if kind == KindMetadata {
		return metadataStdoutCap
	}
	return mediaStdoutCap
}

func detailLimitFor(kind Kind) int {
	if kind == KindMetadata {
		return metadataDetailLimit
	}
	return mediaDetailLimit
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
