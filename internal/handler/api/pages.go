// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/packstudio/internal/blocks"
	"github.com/olegiv/packstudio/internal/middleware"
)

var pageIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// loadRendered composes and renders a page for the request's viewer.
func (h *Handler) loadRendered(w http.ResponseWriter, r *http.Request) (blocks.RenderedPage, bool) {
	pageID := chi.URLParam(r, "pageID")
	if !pageIDPattern.MatchString(pageID) {
		WriteBadRequest(w, "Invalid page ID")
		return blocks.RenderedPage{}, false
	}

	page, err := h.composer.Load(r.Context(), pageID)
	if err != nil {
		h.logger.Error("page render failed", "page_id", pageID, "error", err)
		WriteInternalError(w, "Failed to load page")
		return blocks.RenderedPage{}, false
	}
	return blocks.Render(page, middleware.GetViewer(r)), true
}

// GetPage handles GET /api/v1/pages/{pageID}.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	rendered, ok := h.loadRendered(w, r)
	if !ok {
		return
	}
	WriteSuccess(w, rendered)
}

// GetPageHTML handles GET /api/v1/pages/{pageID}/html.
func (h *Handler) GetPageHTML(w http.ResponseWriter, r *http.Request) {
	rendered, ok := h.loadRendered(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := blocks.WriteHTML(&buf, rendered); err != nil {
		h.logger.Error("page render failed", "page_id", rendered.PageID, "error", err)
		WriteInternalError(w, "Failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
