// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package favorites keeps a viewer's favorite items in memory, applies
// toggles immediately and reconciles them with the backend in the background.
package favorites

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Backend is the persistent favorites edge store. Add and Remove must be idempotent.
type Backend interface {
	AddFavorite(ctx context.Context, viewerID string, itemID int64) error
	RemoveFavorite(ctx context.Context, viewerID string, itemID int64) error
	ListFavorites(ctx context.Context, viewerID string) ([]int64, error)
}

// Store is the local favorites set of one viewer. Reads and toggles never block on I/O.
type Store struct {
	viewerID   string
	backend    Backend
	reconciler *Reconciler

	mu  sync.RWMutex
	set map[int64]struct{}
}

// NewStore creates an empty store for viewerID. Toggles are handed to r.
func NewStore(viewerID string, backend Backend, r *Reconciler) *Store {
	return &Store{
		viewerID:   viewerID,
		backend:    backend,
		reconciler: r,
		set:        make(map[int64]struct{}),
	}
}

// ViewerID returns the owner of the set.
func (s *Store) ViewerID() string {
	return s.viewerID
}

// Load replaces the local set with the backend's, then re-applies toggles
// that are still waiting to be written so they are not lost.
func (s *Store) Load(ctx context.Context) error {
	ids, err := s.backend.ListFavorites(ctx, s.viewerID)
	if err != nil {
		return fmt.Errorf("loading favorites of %s: %w", s.viewerID, err)
	}

	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	if s.reconciler != nil {
		for itemID, want := range s.reconciler.PendingFor(s.viewerID) {
			if want {
				set[itemID] = struct{}{}
			} else {
				delete(set, itemID)
			}
		}
	}

	s.mu.Lock()
	s.set = set
	s.mu.Unlock()
	return nil
}

// IsFavorite reports local membership.
func (s *Store) IsFavorite(itemID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.set[itemID]
	return ok
}

// IDs returns the favorite item ids in ascending order.
func (s *Store) IDs() []int64 {
	s.mu.RLock()
	ids := make([]int64, 0, len(s.set))
	for id := range s.set {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// Toggle flips membership of itemID and returns the new state. The change is
// visible immediately; the backend write happens in the background.
func (s *Store) Toggle(itemID int64) bool {
	s.mu.Lock()
	_, was := s.set[itemID]
	if was {
		delete(s.set, itemID)
	} else {
		s.set[itemID] = struct{}{}
	}
	s.mu.Unlock()

	if s.reconciler != nil {
		s.reconciler.Submit(s.viewerID, itemID, !was)
	}
	return !was
}

// Set forces membership of itemID to want and returns whether it changed.
func (s *Store) Set(itemID int64, want bool) bool {
	s.mu.Lock()
	_, was := s.set[itemID]
	if was == want {
		s.mu.Unlock()
		return false
	}
	if want {
		s.set[itemID] = struct{}{}
	} else {
		delete(s.set, itemID)
	}
	s.mu.Unlock()

	if s.reconciler != nil {
		s.reconciler.Submit(s.viewerID, itemID, want)
	}
	return true
}
