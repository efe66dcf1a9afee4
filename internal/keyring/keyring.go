// YTBridge - YouTube Media Resolution API
// Copyright 2026 YTBridge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ytbridge/ytbridge

// Package keyring holds the in-memory API key registry.
//
// The registry contains exactly one master key and any number of standard
// keys. Only the master key can mint new standard keys. Keys live only in
// process memory: a restart discards everything except the configured master
// key. This is a deliberate limitation, not a bug - the service targets
// single-instance deployments where key persistence is not worth a storage
// dependency.
package keyring

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
)

// keyBytes is the entropy per generated key. 32 random bytes hex-encode to a
// 64 character key.
const keyBytes = 32

// ErrNotMaster is returned when a non-master key attempts to mint a new key.
var ErrNotMaster = errors.New("key issuance requires the master key")

// Registry is a concurrency-safe set of valid API keys.
//
// All reads and mutations are guarded by a single RWMutex; the registry is
// not a hot path at the request rates this service targets.
type Registry struct {
	mu        sync.RWMutex
	masterKey string
	keys      map[string]struct{}
}

// New creates a registry with the given master key and any pre-provisioned
// standard keys. An empty masterKey generates a fresh one.
func New(masterKey string, extraKeys []string) (*Registry, error) {
	if masterKey == "" {
		generated, err := GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate master key: %w", err)
		}
		masterKey = generated
	}

	r := &Registry{
		masterKey: masterKey,
		keys:      make(map[string]struct{}, len(extraKeys)+1),
	}
	r.keys[masterKey] = struct{}{}
	for _, k := range extraKeys {
		if k != "" {
			r.keys[k] = struct{}{}
		}
	}

	return r, nil
}

// GenerateKey returns a fresh high-entropy API key: 32 random bytes,
// hex-encoded.
func GenerateKey() (string, error) {
	buf := make([]byte, keyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Issue mints a new standard key. It succeeds only when requestedBy is the
// master key; any other caller gets ErrNotMaster and the registry is left
// untouched.
func (r *Registry) Issue(requestedBy string) (string, error) {
	if !r.IsMaster(requestedBy) {
		return "", ErrNotMaster
	}

	key, err := GenerateKey()
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.keys[key] = struct{}{}
	r.mu.Unlock()

	return key, nil
}

// IsValid reports whether key is in the registry. The master key is always
// valid.
func (r *Registry) IsValid(key string) bool {
	if key == "" {
		return false
	}
	r.mu.RLock()
	_, ok := r.keys[key]
	r.mu.RUnlock()
	return ok
}

// IsMaster reports whether key is the master key.
func (r *Registry) IsMaster(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return key != "" && key == r.masterKey
}

// MasterKey returns the master key. Used at startup to log the key when it
// was freshly generated; never expose it in responses.
func (r *Registry) MasterKey() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.masterKey
}

// Len returns the number of valid keys, master included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys)
}
