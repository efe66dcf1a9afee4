// YTBridge - YouTube Media Resolution API
// Copyright 2026 YTBridge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ytbridge/ytbridge

// Package validation provides input validation for request parameters.
package validation

import (
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	instance *validator.Validate
	once     sync.Once
)

// ErrInvalidURL is returned for any URL that is missing, relative, or
// not an http(s) URL. The check is deliberately shallow: whether a URL
// is actually a resolvable video belongs to the extraction tool.
var ErrInvalidURL = errors.New("invalid URL format")

// Get returns the shared validator instance.
func Get() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
	})
	return instance
}

// MediaURL checks that raw is a syntactically valid absolute http or
// https URL with a host. It never touches the network.
func MediaURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrInvalidURL
	}
	if err := Get().Var(raw, "required,http_url"); err != nil {
		return ErrInvalidURL
	}
	// http_url accepts host-less forms like "http://"; require a host.
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
