// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/packstudio/internal/scheduler"
)

// maxEventsLimit caps GET /events.
const maxEventsLimit = 500

// ListJobs handles GET /api/v1/jobs.
func (h *Handler) ListJobs(w http.ResponseWriter, _ *http.Request) {
	if h.jobs == nil {
		WriteSuccess(w, []scheduler.JobInfo{})
		return
	}
	WriteSuccess(w, h.jobs.Jobs())
}

// RunJob handles POST /api/v1/jobs/{name}/run.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if h.jobs == nil {
		WriteNotFound(w, "Unknown job")
		return
	}

	err := h.jobs.Trigger(r.Context(), name)
	switch {
	case errors.Is(err, scheduler.ErrUnknownJob):
		WriteNotFound(w, "Unknown job")
	case err != nil:
		WriteError(w, http.StatusBadGateway, "job_failed", err.Error())
	default:
		h.logger.Info("job triggered", "job", name)
		WriteSuccess(w, h.jobs.Jobs())
	}
}

// ListEvents handles GET /api/v1/events?limit=N.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			WriteBadRequest(w, "Invalid limit")
			return
		}
		limit = min(n, maxEventsLimit)
	}

	events, err := h.queries.ListEvents(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list events", "error", err)
		WriteInternalError(w, "Failed to list events")
		return
	}
	WriteSuccess(w, events)
}
