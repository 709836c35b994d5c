// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package draft

import (
	"sync"
	"time"
)

// Registry hands out one Store per admin session so concurrent editors
// never share change-sets. Entries idle past their TTL are reaped by
// the scheduler.
type Registry struct {
	backend Backend

	mu     sync.Mutex
	stores map[string]*registryEntry
}

type registryEntry struct {
	store    *Store
	lastUsed time.Time
}

// NewRegistry returns an empty registry creating stores against backend.
func NewRegistry(backend Backend) *Registry {
	return &Registry{
		backend: backend,
		stores:  make(map[string]*registryEntry),
	}
}

// Get returns the store for the given session token, creating it on
// first use. The caller is responsible for the initial Load.
func (r *Registry) Get(token string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.stores[token]
	if !ok {
		entry = &registryEntry{store: NewStore(r.backend)}
		r.stores[token] = entry
	}
	entry.lastUsed = time.Now()
	return entry.store
}

// Drop removes the store for a session, discarding any pending edits.
// Called on logout.
func (r *Registry) Drop(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, token)
}

// Purge removes stores idle for longer than maxIdle and returns how
// many were removed.
func (r *Registry) Purge(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for token, entry := range r.stores {
		if entry.lastUsed.Before(cutoff) {
			delete(r.stores, token)
			removed++
		}
	}
	return removed
}

// Len returns the number of live stores.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
