// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/packstudio/internal/catalog"
	"github.com/olegiv/packstudio/internal/form"
	"github.com/olegiv/packstudio/internal/middleware"
	"github.com/olegiv/packstudio/internal/model"
	"github.com/olegiv/packstudio/internal/util"
)

// maxUploadMemory is the multipart memory buffer for image uploads.
const maxUploadMemory = 8 << 20

// EditorResponse represents the open editor in API responses.
type EditorResponse struct {
	Entity    model.EntityType `json:"entity"`
	PackID    int64            `json:"pack_id,omitempty"`
	Form      form.Form        `json:"form"`
	Record    model.Record     `json:"record"`
	Dirty     bool             `json:"dirty"`
	Saving    bool             `json:"saving"`
	LastError string           `json:"last_error,omitempty"`
}

func editorResponse(s *form.Session) *EditorResponse {
	if s == nil {
		return nil
	}
	resp := &EditorResponse{
		Entity: s.Entity(),
		PackID: s.PackID(),
		Form:   s.Form(),
		Record: s.Working(),
		Dirty:  s.Dirty(),
		Saving: s.Saving(),
	}
	if err := s.LastError(); err != nil {
		resp.LastError = err.Error()
	}
	return resp
}

// SelectTabRequest is the body of POST /catalog/tab.
type SelectTabRequest struct {
	Tab model.Tab `json:"tab"`
}

// OpenEditorRequest is the body of POST /catalog/editor. ID 0 opens a new record.
type OpenEditorRequest struct {
	ID int64 `json:"id"`
}

// UpdateEditorRequest is the body of PATCH /catalog/editor.
type UpdateEditorRequest struct {
	Fields map[string]any `json:"fields"`
}

// GetCatalog handles GET /api/v1/catalog.
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	nav := h.navigator(r.Context(), middleware.GetOperator(r))
	WriteSuccess(w, nav.Snapshot())
}

// SelectTab handles POST /api/v1/catalog/tab.
func (h *Handler) SelectTab(w http.ResponseWriter, r *http.Request) {
	var req SelectTabRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}
	if !req.Tab.Valid() {
		WriteBadRequest(w, "Unknown tab")
		return
	}

	nav := h.navigator(r.Context(), middleware.GetOperator(r))
	if err := nav.SelectTab(r.Context(), req.Tab); err != nil && !errors.Is(err, catalog.ErrStale) {
		h.writeDomainError(w, err, nav.Snapshot())
		return
	}
	WriteSuccess(w, nav.Snapshot())
}

// EnterPack handles POST /api/v1/catalog/packs/{id}.
func (h *Handler) EnterPack(w http.ResponseWriter, r *http.Request) {
	id, err := util.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		WriteBadRequest(w, "Invalid pack ID")
		return
	}

	nav := h.navigator(r.Context(), middleware.GetOperator(r))
	if err := nav.EnterPack(r.Context(), id); err != nil && !errors.Is(err, catalog.ErrStale) {
		h.writeDomainError(w, err, nav.Snapshot())
		return
	}
	WriteSuccess(w, nav.Snapshot())
}

// Back handles POST /api/v1/catalog/back.
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	nav := h.navigator(r.Context(), middleware.GetOperator(r))
	if err := nav.Back(r.Context()); err != nil && !errors.Is(err, catalog.ErrStale) {
		h.writeDomainError(w, err, nav.Snapshot())
		return
	}
	WriteSuccess(w, nav.Snapshot())
}

// Refresh handles POST /api/v1/catalog/refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	nav := h.navigator(r.Context(), middleware.GetOperator(r))
	if err := nav.Refresh(r.Context()); err != nil && !errors.Is(err, catalog.ErrStale) {
		h.writeDomainError(w, err, nav.Snapshot())
		return
	}
	WriteSuccess(w, nav.Snapshot())
}

// DeleteRecord handles DELETE /api/v1/catalog/{entity}/{id}?confirm=true.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	entity := model.EntityType(chi.URLParam(r, "entity"))
	if !entity.Valid() {
		WriteNotFound(w, "Unknown entity")
		return
	}
	id, err := util.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		WriteBadRequest(w, "Invalid ID")
		return
	}
	confirmed := r.URL.Query().Get("confirm") == "true"

	nav := h.navigator(r.Context(), middleware.GetOperator(r))
	if err := nav.Delete(r.Context(), entity, id, confirmed); err != nil {
		h.writeDomainError(w, err, nil)
		return
	}
	WriteSuccess(w, nav.Snapshot())
}

// OpenEditor handles POST /api/v1/catalog/editor.
func (h *Handler) OpenEditor(w http.ResponseWriter, r *http.Request) {
	var req OpenEditorRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteBadRequest(w, "Invalid JSON body")
			return
		}
	}
	if req.ID < 0 {
		WriteBadRequest(w, "Invalid ID")
		return
	}

	nav := h.navigator(r.Context(), middleware.GetOperator(r))
	sess, err := nav.OpenEditor(r.Context(), req.ID)
	if err != nil {
		h.writeDomainError(w, err, nil)
		return
	}
	WriteSuccess(w, editorResponse(sess))
}

// GetEditor handles GET /api/v1/catalog/editor.
func (h *Handler) GetEditor(w http.ResponseWriter, r *http.Request) {
	sess := h.navigator(r.Context(), middleware.GetOperator(r)).Editor()
	if sess == nil {
		h.writeDomainError(w, catalog.ErrNoEditor, nil)
		return
	}
	WriteSuccess(w, editorResponse(sess))
}

// UpdateEditor handles PATCH /api/v1/catalog/editor. Fields are applied in
// name order and the first rejected field aborts the request.
func (h *Handler) UpdateEditor(w http.ResponseWriter, r *http.Request) {
	sess := h.navigator(r.Context(), middleware.GetOperator(r)).Editor()
	if sess == nil {
		h.writeDomainError(w, catalog.ErrNoEditor, nil)
		return
	}

	req, err := decodeUpdate(r)
	if err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}

	names := make([]string, 0, len(req.Fields))
	for name := range req.Fields {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if err := sess.Set(name, req.Fields[name]); err != nil {
			h.writeDomainError(w, err, editorResponse(sess))
			return
		}
	}
	WriteSuccess(w, editorResponse(sess))
}

// UploadImage handles POST /api/v1/catalog/editor/images/{field}.
// The multipart "file" part is stored through the uploader and its URL is
// written into the field.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		WriteError(w, http.StatusNotImplemented, "not_implemented", "Uploads are disabled")
		return
	}
	sess := h.navigator(r.Context(), middleware.GetOperator(r)).Editor()
	if sess == nil {
		h.writeDomainError(w, catalog.ErrNoEditor, nil)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		WriteBadRequest(w, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteBadRequest(w, "Missing file")
		return
	}
	defer func() { _ = file.Close() }()

	field := chi.URLParam(r, "field")
	if err := sess.SetImage(r.Context(), h.uploader, field, file, header.Filename); err != nil {
		h.logger.Warn("image upload failed", "field", field, "filename", header.Filename, "error", err)
		h.writeDomainError(w, err, editorResponse(sess))
		return
	}
	WriteSuccess(w, editorResponse(sess))
}

// SaveEditor handles POST /api/v1/catalog/editor/save. On failure the
// response carries the editor with its edits and the error.
func (h *Handler) SaveEditor(w http.ResponseWriter, r *http.Request) {
	nav := h.navigator(r.Context(), middleware.GetOperator(r))
	sess := nav.Editor()

	saved, err := nav.SaveEditor(r.Context())
	if err != nil {
		h.writeDomainError(w, err, editorResponse(sess))
		return
	}
	WriteSuccess(w, saved)
}

// CloseEditor handles DELETE /api/v1/catalog/editor.
func (h *Handler) CloseEditor(w http.ResponseWriter, r *http.Request) {
	h.navigator(r.Context(), middleware.GetOperator(r)).CloseEditor()
	w.WriteHeader(http.StatusNoContent)
}

// decodeUpdate decodes an update body keeping integers as int64.
func decodeUpdate(r *http.Request) (UpdateEditorRequest, error) {
	var raw struct {
		Fields map[string]any `json:"fields"`
	}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return UpdateEditorRequest{}, err
	}

	req := UpdateEditorRequest{Fields: make(map[string]any, len(raw.Fields))}
	for k, v := range raw.Fields {
		val, err := scalar(v)
		if err != nil {
			return UpdateEditorRequest{}, err
		}
		req.Fields[k] = val
	}
	return req, nil
}

var errNotScalar = errors.New("field value must be a scalar")

// scalar converts a decoded JSON value to a record scalar.
func scalar(v any) (any, error) {
	switch t := v.(type) {
	case nil, string, bool:
		return t, nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		return t.Float64()
	default:
		return nil, errNotScalar
	}
}
