// YTBridge - YouTube Media Resolution API
// Copyright 2026 YTBridge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ytbridge/ytbridge

package extractor

import "fmt"

// Kind identifies one of the supported extraction operations. Each kind
// maps to a distinct yt-dlp argument set, timeout and output contract.
type Kind string

const (
	KindMetadata Kind = "metadata"
	KindAudio    Kind = "audio"
	KindVideo    Kind = "video"
)

// FailureKind classifies why an extraction did not produce a usable
// result. The set is closed: every non-success path maps to exactly one.
type FailureKind int

const (
	// FailureTimeout means the subprocess exceeded its per-kind deadline
	// and was killed. Partial output is discarded.
	FailureTimeout FailureKind = iota
	// FailureTool means the subprocess exited with a nonzero status.
	FailureTool
	// FailureEmptyOutput means the subprocess exited zero but produced no
	// usable stdout (empty, whitespace-only, or unparseable metadata).
	FailureEmptyOutput
	// FailureSpawn means the subprocess could not be started at all
	// (binary missing, permission denied, fork failure).
	FailureSpawn
)

// String returns the metric/log label for the failure kind.
func (f FailureKind) String() string {
	switch f {
	case FailureTimeout:
		return "timed_out"
	case FailureTool:
		return "tool_error"
	case FailureEmptyOutput:
		return "empty_output"
	case FailureSpawn:
		return "spawn_failure"
	default:
		return "unknown"
	}
}

// ExtractError carries the failure classification plus a bounded,
// client-safe detail excerpt (truncated stderr or a short description).
type ExtractError struct {
	Kind   FailureKind
	Detail string
	Err    error
}

func (e *ExtractError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("extraction %s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("extraction %s", e.Kind)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// Metadata is the condensed video descriptor parsed from yt-dlp's
// single-line JSON dump. Formats carries only the count, not the
// format objects themselves.
type Metadata struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	Uploader string  `json:"uploader"`
	Formats  int     `json:"formats"`
}

// Result is the outcome of a successful extraction. Exactly one of
// Metadata or MediaURL is populated, depending on Kind.
type Result struct {
	Kind     Kind
	Metadata *Metadata
	MediaURL string
}
