// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON API used by the hosting shell.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/olegiv/packstudio/internal/blocks"
	"github.com/olegiv/packstudio/internal/catalog"
	"github.com/olegiv/packstudio/internal/favorites"
	"github.com/olegiv/packstudio/internal/form"
	"github.com/olegiv/packstudio/internal/media"
	"github.com/olegiv/packstudio/internal/model"
	"github.com/olegiv/packstudio/internal/scheduler"
	"github.com/olegiv/packstudio/internal/store"
	"github.com/olegiv/packstudio/internal/version"
)

// Deps are the services the API is built on. Uploader and Jobs are optional.
type Deps struct {
	Queries   *store.Queries
	Composer  *blocks.Composer
	Favorites *favorites.Registry
	Uploader  form.Uploader
	Jobs      *scheduler.Scheduler
	Logger    *slog.Logger
	Version   version.Info
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	queries   *store.Queries
	composer  *blocks.Composer
	favorites *favorites.Registry
	uploader  form.Uploader
	jobs      *scheduler.Scheduler
	logger    *slog.Logger
	version   version.Info
	startTime time.Time

	mu         sync.Mutex
	navigators map[string]*catalog.Navigator
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		queries:    d.Queries,
		composer:   d.Composer,
		favorites:  d.Favorites,
		uploader:   d.Uploader,
		jobs:       d.Jobs,
		logger:     logger,
		version:    d.Version,
		startTime:  time.Now(),
		navigators: make(map[string]*catalog.Navigator),
	}
}

// navigator returns the catalog of an operator, creating and loading it on first use.
func (h *Handler) navigator(ctx context.Context, operator string) *catalog.Navigator {
	h.mu.Lock()
	nav, ok := h.navigators[operator]
	if !ok {
		nav = catalog.NewNavigator(h.queries, h.logger.With("operator", operator))
		nav.OnChange(h.invalidatePages)
		h.navigators[operator] = nav
	}
	h.mu.Unlock()

	if !ok {
		if err := nav.Refresh(ctx); err != nil {
			h.logger.Warn("failed to load initial list", "operator", operator, "error", err)
		}
	}
	return nav
}

// invalidatePages drops cached page compositions affected by a catalog change.
func (h *Handler) invalidatePages(ctx context.Context, c catalog.Change) {
	if h.composer == nil {
		return
	}
	switch c.Entity {
	case model.EntityBlock, model.EntityPageConfig:
		pageID := c.Record.String(model.FieldPageID)
		if pageID == "" {
			h.composer.InvalidateAll(ctx)
			return
		}
		h.composer.Invalidate(ctx, pageID)
		// A block moved to another page leaves its old page stale too.
		if prev := c.Previous.String(model.FieldPageID); prev != "" && prev != pageID {
			h.composer.Invalidate(ctx, prev)
		}
	case model.EntityItem, model.EntityPack:
		// Page blocks may link to packs and items.
		h.composer.InvalidateAll(ctx)
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any `json:"data,omitempty"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
	Data  any         `json:"data,omitempty"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message)
}

// errorStatus maps domain errors to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrNoSingleton),
		errors.Is(err, store.ErrUnknownCollection):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, store.ErrParentNotFound),
		errors.Is(err, store.ErrUnknownField),
		errors.Is(err, form.ErrReservedField),
		errors.Is(err, form.ErrReadOnlyField),
		errors.Is(err, form.ErrUnknownField),
		errors.Is(err, form.ErrNotImageField),
		errors.Is(err, catalog.ErrCreateNotAllowed),
		errors.Is(err, catalog.ErrNotDeletable):
		return http.StatusUnprocessableEntity, "validation_error"
	case errors.Is(err, media.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, media.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, "unsupported_type"
	case errors.Is(err, catalog.ErrNotConfirmed):
		return http.StatusPreconditionRequired, "confirmation_required"
	case errors.Is(err, store.ErrHasChildren),
		errors.Is(err, form.ErrSaveInFlight),
		errors.Is(err, form.ErrSessionClosed),
		errors.Is(err, catalog.ErrStale),
		errors.Is(err, catalog.ErrNoEditor),
		errors.Is(err, catalog.ErrNotInPack):
		return http.StatusConflict, "conflict"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeDomainError writes err with its mapped status. Unmapped errors are
// logged and reported without internal detail.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error, data any) {
	status, code := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
		msg = "Internal error"
	}
	WriteJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: msg}, Data: data})
}
