// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package favorites

import (
	"context"
	"sync"
)

// Registry hands out one Store per viewer, sharing one Reconciler.
type Registry struct {
	backend    Backend
	reconciler *Reconciler

	mu     sync.Mutex
	stores map[string]*Store
}

// NewRegistry creates a registry.
func NewRegistry(backend Backend, r *Reconciler) *Registry {
	return &Registry{
		backend:    backend,
		reconciler: r,
		stores:     make(map[string]*Store),
	}
}

// Get returns the viewer's store, loading it from the backend on first use.
// When the first load fails the empty store is still returned with the
// error, and the next Get retries the load.
func (r *Registry) Get(ctx context.Context, viewerID string) (*Store, error) {
	r.mu.Lock()
	s, ok := r.stores[viewerID]
	r.mu.Unlock()
	if ok {
		return s, nil
	}

	s = NewStore(viewerID, r.backend, r.reconciler)
	if err := s.Load(ctx); err != nil {
		return s, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.stores[viewerID]; ok {
		return existing, nil
	}
	r.stores[viewerID] = s
	return s, nil
}

// Forget drops the cached store of a viewer; the next Get reloads it.
func (r *Registry) Forget(viewerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, viewerID)
}

// Len returns the number of cached stores.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
