// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package favorites

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/olegiv/packstudio/internal/store"
)

// Edge identifies one (viewer, item) favorite.
type Edge struct {
	ViewerID string
	ItemID   int64
}

// ReconcilerOptions tunes the retry behavior of a Reconciler.
type ReconcilerOptions struct {
	// BaseDelay is the first retry delay; each retry doubles it.
	BaseDelay time.Duration
	// MaxDelay caps a single retry delay.
	MaxDelay time.Duration
	// MaxRetries bounds the retries of one pass; the edge then waits for the next Sweep.
	MaxRetries uint64
}

// DefaultReconcilerOptions returns the production retry settings.
func DefaultReconcilerOptions() ReconcilerOptions {
	return ReconcilerOptions{
		BaseDelay:  200 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		MaxRetries: 4,
	}
}

// Reconciler writes the desired favorite state to the backend. It keeps only
// the latest desired state per edge, so rapid toggles collapse into one write.
// A single worker applies writes; failures stay pending until the next pass.
type Reconciler struct {
	backend Backend
	logger  *slog.Logger
	opts    ReconcilerOptions

	mu      sync.Mutex
	pending map[Edge]bool
	idle    *sync.Cond
	busy    bool
	queued  bool
	started bool

	wake   chan struct{}
	stopCh chan struct{}
	done   chan struct{}
	once   sync.Once
}

// NewReconciler creates a reconciler. Call Start to run its worker.
func NewReconciler(backend Backend, logger *slog.Logger, opts ReconcilerOptions) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reconciler{
		backend: backend,
		logger:  logger,
		opts:    opts,
		pending: make(map[Edge]bool),
		wake:    make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	r.idle = sync.NewCond(&r.mu)
	return r
}

// Start runs the worker until Stop is called or ctx is done.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()
	go r.run(ctx)
}

// Stop halts the worker and waits for it to exit. Pending edges are kept.
func (r *Reconciler) Stop() {
	r.once.Do(func() { close(r.stopCh) })
	r.mu.Lock()
	started := r.started
	r.mu.Unlock()
	if started {
		<-r.done
	}
}

// Submit records the desired state of an edge and wakes the worker.
func (r *Reconciler) Submit(viewerID string, itemID int64, want bool) {
	r.mu.Lock()
	r.pending[Edge{ViewerID: viewerID, ItemID: itemID}] = want
	r.mu.Unlock()
	r.signal()
}

// Sweep re-drives every pending edge. It is run periodically by the scheduler.
func (r *Reconciler) Sweep() {
	r.mu.Lock()
	n := len(r.pending)
	r.mu.Unlock()
	if n > 0 {
		r.logger.Debug("sweeping pending favorites", "pending", n)
		r.signal()
	}
}

// Pending returns the number of edges not yet written.
func (r *Reconciler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// PendingFor returns the unwritten desired states of one viewer keyed by item id.
func (r *Reconciler) PendingFor(viewerID string) map[int64]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int64]bool)
	for e, want := range r.pending {
		if e.ViewerID == viewerID {
			out[e.ItemID] = want
		}
	}
	return out
}

// WaitIdle blocks until the worker has finished its current pass and no
// signal is outstanding, or ctx is done.
func (r *Reconciler) WaitIdle(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		r.mu.Lock()
		r.idle.Broadcast()
		r.mu.Unlock()
	})
	defer stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	for r.busy || r.queued {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.idle.Wait()
	}
	return nil
}

func (r *Reconciler) signal() {
	r.mu.Lock()
	r.queued = true
	r.mu.Unlock()
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Reconciler) run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case <-r.wake:
			r.pass(ctx)
		}
	}
}

// pass applies a snapshot of the pending edges.
func (r *Reconciler) pass(ctx context.Context) {
	r.mu.Lock()
	r.busy = true
	r.queued = false
	batch := make(map[Edge]bool, len(r.pending))
	for e, want := range r.pending {
		batch[e] = want
	}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.busy = false
		r.idle.Broadcast()
		r.mu.Unlock()
	}()

	for e, want := range batch {
		err := r.apply(ctx, e, want)
		switch {
		case err == nil:
		case errors.Is(err, store.ErrNotFound):
			r.logger.Info("dropping favorite of missing item", "viewer_id", e.ViewerID, "item_id", e.ItemID)
		default:
			r.logger.Warn("favorite write failed, will retry on next sweep",
				"viewer_id", e.ViewerID, "item_id", e.ItemID, "favorite", want, "error", err)
			continue
		}

		r.mu.Lock()
		// A newer toggle keeps the edge pending.
		if cur, ok := r.pending[e]; ok && cur == want {
			delete(r.pending, e)
		}
		r.mu.Unlock()
	}
}

func (r *Reconciler) apply(ctx context.Context, e Edge, want bool) error {
	b := retry.NewExponential(r.opts.BaseDelay)
	if r.opts.MaxDelay > 0 {
		b = retry.WithCappedDuration(r.opts.MaxDelay, b)
	}
	b = retry.WithMaxRetries(r.opts.MaxRetries, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		var err error
		if want {
			err = r.backend.AddFavorite(ctx, e.ViewerID, e.ItemID)
		} else {
			err = r.backend.RemoveFavorite(ctx, e.ViewerID, e.ItemID)
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return retry.RetryableError(err)
		}
		return err
	})
}
