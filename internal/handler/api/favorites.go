// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/packstudio/internal/favorites"
	"github.com/olegiv/packstudio/internal/middleware"
	"github.com/olegiv/packstudio/internal/util"
)

// FavoritesResponse lists the viewer's favorite item ids.
type FavoritesResponse struct {
	ItemIDs []int64 `json:"item_ids"`
}

// FavoriteResponse is the state of one favorite after a change.
type FavoriteResponse struct {
	ItemID   int64 `json:"item_id"`
	Favorite bool  `json:"favorite"`
}

// SetFavoriteRequest is the body of PUT /favorites/{itemID}.
type SetFavoriteRequest struct {
	Favorite bool `json:"favorite"`
}

// viewerStore returns the favorites of the request's viewer. A failed load
// is logged and the local state is used.
func (h *Handler) viewerStore(r *http.Request) *favorites.Store {
	viewer := middleware.GetViewer(r)
	s, err := h.favorites.Get(r.Context(), viewer.ID)
	if err != nil {
		h.logger.Warn("failed to load favorites", "viewer", viewer.ID, "error", err)
	}
	return s
}

// ListFavorites handles GET /api/v1/favorites.
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, FavoritesResponse{ItemIDs: h.viewerStore(r).IDs()})
}

// ToggleFavorite handles POST /api/v1/favorites/{itemID}/toggle.
// The new state is returned immediately; the write completes in the background.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	itemID, err := util.ParseID(chi.URLParam(r, "itemID"))
	if err != nil {
		WriteBadRequest(w, "Invalid item ID")
		return
	}
	fav := h.viewerStore(r).Toggle(itemID)
	WriteSuccess(w, FavoriteResponse{ItemID: itemID, Favorite: fav})
}

// SetFavorite handles PUT /api/v1/favorites/{itemID}.
func (h *Handler) SetFavorite(w http.ResponseWriter, r *http.Request) {
	itemID, err := util.ParseID(chi.URLParam(r, "itemID"))
	if err != nil {
		WriteBadRequest(w, "Invalid item ID")
		return
	}
	var req SetFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}
	h.viewerStore(r).Set(itemID, req.Favorite)
	WriteSuccess(w, FavoriteResponse{ItemID: itemID, Favorite: req.Favorite})
}
