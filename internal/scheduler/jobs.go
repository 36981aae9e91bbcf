// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"time"
)

// Job names
const (
	JobFavoritesSweep = "favorites-sweep"
	JobPruneEvents    = "prune-events"
)

// Sweeper re-drives pending background writes.
type Sweeper interface {
	Sweep()
}

// EventPruner deletes old event log entries.
type EventPruner interface {
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AddFavoritesSweep schedules the periodic re-drive of unwritten favorite toggles.
func (s *Scheduler) AddFavoritesSweep(schedule string, sw Sweeper) error {
	return s.Add(JobFavoritesSweep, "Retry favorite writes that failed", schedule,
		func(context.Context) error {
			sw.Sweep()
			return nil
		})
}

// AddEventPruning schedules removal of events older than retention.
func (s *Scheduler) AddEventPruning(schedule string, retention time.Duration, p EventPruner) error {
	return s.Add(JobPruneEvents, "Delete old event log entries", schedule,
		func(ctx context.Context) error {
			n, err := p.DeleteEventsBefore(ctx, time.Now().Add(-retention))
			if err != nil {
				return err
			}
			if n > 0 {
				s.logger.Info("pruned event log", "deleted", n, "retention", retention)
			}
			return nil
		})
}
