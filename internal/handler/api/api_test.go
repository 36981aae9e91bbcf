// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/packstudio/internal/blocks"
	"github.com/olegiv/packstudio/internal/cache"
	"github.com/olegiv/packstudio/internal/catalog"
	"github.com/olegiv/packstudio/internal/favorites"
	"github.com/olegiv/packstudio/internal/form"
	"github.com/olegiv/packstudio/internal/media"
	"github.com/olegiv/packstudio/internal/middleware"
	"github.com/olegiv/packstudio/internal/model"
	"github.com/olegiv/packstudio/internal/scheduler"
	"github.com/olegiv/packstudio/internal/store"
	"github.com/olegiv/packstudio/internal/testutil"
)

type testEnv struct {
	t          *testing.T
	queries    *store.Queries
	reconciler *favorites.Reconciler
	router     http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := testutil.TestLoggerSilent()
	q := store.New(testutil.MemoryDB(t))

	c := cache.NewMemoryCache(cache.MemoryOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = c.Close() })

	rec := favorites.NewReconciler(q, logger, favorites.ReconcilerOptions{
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		MaxRetries: 1,
	})
	rec.Start(context.Background())
	t.Cleanup(rec.Stop)

	jobs := scheduler.New(logger, time.Second)
	require.NoError(t, jobs.AddFavoritesSweep("@every 1h", rec))

	h := NewHandler(Deps{
		Queries:   q,
		Composer:  blocks.NewComposer(q, c, time.Minute, logger),
		Favorites: favorites.NewRegistry(q, rec),
		Uploader:  media.NewUploader(media.Options{Dir: t.TempDir(), BaseURL: "/uploads"}, logger),
		Jobs:      jobs,
		Logger:    logger,
	})

	return &testEnv{
		t:          t,
		queries:    q,
		reconciler: rec,
		router:     h.Router(RouterOptions{UploadRate: 100, UploadBurst: 100}),
	}
}

// do sends a request. headers are key/value pairs.
func (e *testEnv) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	e.t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// data decodes the data member of a JSON response into v.
func data(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, v), rr.Body.String())
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return resp.Error.Code
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "healthy", status.Checks["database"].Status)
}

func TestCatalog_Initial(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/api/v1/catalog", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var snap catalog.Snapshot
	data(t, rr, &snap)
	assert.Equal(t, model.TabPacks, snap.Tab)
	assert.Equal(t, catalog.StatePackList, snap.State)
	assert.Empty(t, snap.Records)
}

func TestCatalog_SelectTab(t *testing.T) {
	env := newTestEnv(t)
	testutil.MustUpsert(t, env.queries, "news", model.Record{"title": "first"})
	testutil.MustUpsert(t, env.queries, "news", model.Record{"title": "second"})

	rr := env.do(http.MethodPost, "/api/v1/catalog/tab", SelectTabRequest{Tab: model.TabNews})
	require.Equal(t, http.StatusOK, rr.Code)

	var snap catalog.Snapshot
	data(t, rr, &snap)
	assert.Equal(t, catalog.StateFlatList, snap.State)
	require.Len(t, snap.Records, 2)
	assert.Equal(t, "second", snap.Records[0].String("title"))

	rr = env.do(http.MethodPost, "/api/v1/catalog/tab", SelectTabRequest{Tab: "orders"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCatalog_CreateItemInPack(t *testing.T) {
	env := newTestEnv(t)
	pack := testutil.MustUpsert(t, env.queries, "packs", model.Record{"title": "Cyberpunk Girls"})
	other := testutil.MustUpsert(t, env.queries, "packs", model.Record{"title": "Other"})
	testutil.MustUpsert(t, env.queries, "items", model.Record{"pack_id": other.ID(), "title": "elsewhere"})

	rr := env.do(http.MethodPost, fmt.Sprintf("/api/v1/catalog/packs/%d", pack.ID()), nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = env.do(http.MethodPost, "/api/v1/catalog/editor", OpenEditorRequest{})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var ed EditorResponse
	data(t, rr, &ed)
	assert.Equal(t, model.EntityItem, ed.Entity)
	assert.Equal(t, pack.ID(), ed.PackID)

	rr = env.do(http.MethodPatch, "/api/v1/catalog/editor", map[string]any{
		"fields": map[string]any{"title": "Retrato Neon", "prompt": "/imagine neon", "position": 3},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	data(t, rr, &ed)
	assert.True(t, ed.Dirty)

	rr = env.do(http.MethodPost, "/api/v1/catalog/editor/save", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = env.do(http.MethodGet, "/api/v1/catalog", nil)
	var snap catalog.Snapshot
	data(t, rr, &snap)
	assert.Equal(t, catalog.StatePackDetail, snap.State)
	assert.False(t, snap.Editing)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "Retrato Neon", snap.Records[0].String("title"))
	assert.Equal(t, int64(3), snap.Records[0].Int("position"))

	items, err := env.queries.Collection("items")
	require.NoError(t, err)
	inOther, err := items.List(context.Background(), store.ListOptions{Filter: map[string]any{"pack_id": other.ID()}})
	require.NoError(t, err)
	require.Len(t, inOther, 1)
	assert.Equal(t, "elsewhere", inOther[0].String("title"))
}

func TestCatalog_SaveFailureKeepsEdits(t *testing.T) {
	env := newTestEnv(t)
	pack := testutil.MustUpsert(t, env.queries, "packs", model.Record{"title": "Doomed"})

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, fmt.Sprintf("/api/v1/catalog/packs/%d", pack.ID()), nil).Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/v1/catalog/editor", nil).Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodPatch, "/api/v1/catalog/editor",
		map[string]any{"fields": map[string]any{"title": "Orphan"}}).Code)

	packs, err := env.queries.Collection("packs")
	require.NoError(t, err)
	require.NoError(t, packs.Delete(context.Background(), pack.ID()))

	rr := env.do(http.MethodPost, "/api/v1/catalog/editor/save", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())

	var ed EditorResponse
	data(t, rr, &ed)
	assert.Equal(t, "Orphan", ed.Record.String("title"))
	assert.NotEmpty(t, ed.LastError)

	rr = env.do(http.MethodGet, "/api/v1/catalog/editor", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCatalog_EditorErrors(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/api/v1/catalog/editor", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = env.do(http.MethodPost, "/api/v1/catalog/editor/save", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/v1/catalog/editor", nil).Code)

	rr = env.do(http.MethodPatch, "/api/v1/catalog/editor", map[string]any{"fields": map[string]any{"id": 99}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "validation_error", errorCode(t, rr))

	rr = env.do(http.MethodPatch, "/api/v1/catalog/editor", map[string]any{"fields": map[string]any{"title": []int{1}}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(http.MethodDelete, "/api/v1/catalog/editor", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(http.MethodGet, "/api/v1/catalog/editor", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestCatalog_OperatorsAreIsolated(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/v1/catalog/tab", SelectTabRequest{Tab: model.TabUsers},
		middleware.HeaderOperatorID, "alice")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(http.MethodGet, "/api/v1/catalog", nil, middleware.HeaderOperatorID, "bob")
	var snap catalog.Snapshot
	data(t, rr, &snap)
	assert.Equal(t, model.TabPacks, snap.Tab)
}

func TestCatalog_Delete(t *testing.T) {
	env := newTestEnv(t)
	pack := testutil.MustUpsert(t, env.queries, "packs", model.Record{"title": "P"})
	item := testutil.MustUpsert(t, env.queries, "items", model.Record{"pack_id": pack.ID(), "title": "I"})

	rr := env.do(http.MethodDelete, fmt.Sprintf("/api/v1/catalog/pack/%d?confirm=true", pack.ID()), nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, fmt.Sprintf("/api/v1/catalog/packs/%d", pack.ID()), nil).Code)

	rr = env.do(http.MethodDelete, fmt.Sprintf("/api/v1/catalog/item/%d", item.ID()), nil)
	assert.Equal(t, http.StatusPreconditionRequired, rr.Code)

	rr = env.do(http.MethodDelete, fmt.Sprintf("/api/v1/catalog/item/%d?confirm=true", item.ID()), nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var snap catalog.Snapshot
	data(t, rr, &snap)
	assert.Equal(t, catalog.StatePackDetail, snap.State)
	assert.Empty(t, snap.Records)

	rr = env.do(http.MethodDelete, "/api/v1/catalog/settings/1?confirm=true", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = env.do(http.MethodDelete, "/api/v1/catalog/widget/1?confirm=true", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPages_RenderForViewer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.queries.CreateContentBlock(ctx, store.CreateContentBlockParams{
		PageID: "home", Position: 2, Type: model.BlockVideo, Media: "abc123",
	})
	require.NoError(t, err)
	_, err = env.queries.CreateContentBlock(ctx, store.CreateContentBlockParams{
		PageID: "home", Position: 1, Type: model.BlockSectionTitle, Title: "Hello, {name}!",
	})
	require.NoError(t, err)

	rr := env.do(http.MethodGet, "/api/v1/pages/home", nil,
		middleware.HeaderViewerID, "v-1", middleware.HeaderViewerName, "Ana Silva")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var page blocks.RenderedPage
	data(t, rr, &page)
	require.Len(t, page.Blocks, 2)
	assert.Equal(t, "Hello, Ana!", page.Blocks[0].Heading)
	assert.Equal(t, model.BlockVideo, page.Blocks[1].Type)
	require.NotNil(t, page.Header)
	assert.Equal(t, "HOME", page.Header.Title)

	rr = env.do(http.MethodGet, "/api/v1/pages/home", nil)
	data(t, rr, &page)
	assert.Equal(t, "Hello, friend!", page.Blocks[0].Heading)

	rr = env.do(http.MethodGet, "/api/v1/pages/home/html", nil,
		middleware.HeaderViewerID, "v-1", middleware.HeaderViewerName, "Ana Silva")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "Hello, Ana!")

	rr = env.do(http.MethodGet, "/api/v1/pages/Home!", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPages_EditInvalidatesCache(t *testing.T) {
	env := newTestEnv(t)
	block, err := env.queries.CreateContentBlock(context.Background(), store.CreateContentBlockParams{
		PageID: "home", Type: model.BlockSectionTitle, Title: "Before",
	})
	require.NoError(t, err)

	var page blocks.RenderedPage
	data(t, env.do(http.MethodGet, "/api/v1/pages/home", nil), &page)
	require.Equal(t, "Before", page.Blocks[0].Heading)

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/v1/catalog/tab", SelectTabRequest{Tab: model.TabBlocks}).Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/v1/catalog/editor", OpenEditorRequest{ID: block.ID}).Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodPatch, "/api/v1/catalog/editor",
		map[string]any{"fields": map[string]any{"title": "After"}}).Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/v1/catalog/editor/save", nil).Code)

	data(t, env.do(http.MethodGet, "/api/v1/pages/home", nil), &page)
	assert.Equal(t, "After", page.Blocks[0].Heading)
}

func TestPages_MovedBlockInvalidatesBothPages(t *testing.T) {
	env := newTestEnv(t)
	block, err := env.queries.CreateContentBlock(context.Background(), store.CreateContentBlockParams{
		PageID: "home", Type: model.BlockSectionTitle, Title: "Wanderer",
	})
	require.NoError(t, err)

	var home, about blocks.RenderedPage
	data(t, env.do(http.MethodGet, "/api/v1/pages/home", nil), &home)
	require.Len(t, home.Blocks, 1)
	data(t, env.do(http.MethodGet, "/api/v1/pages/about", nil), &about)
	require.Empty(t, about.Blocks)

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/v1/catalog/tab", SelectTabRequest{Tab: model.TabBlocks}).Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/v1/catalog/editor", OpenEditorRequest{ID: block.ID}).Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodPatch, "/api/v1/catalog/editor",
		map[string]any{"fields": map[string]any{"page_id": "about"}}).Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/v1/catalog/editor/save", nil).Code)

	home, about = blocks.RenderedPage{}, blocks.RenderedPage{}
	data(t, env.do(http.MethodGet, "/api/v1/pages/home", nil), &home)
	assert.Empty(t, home.Blocks)
	data(t, env.do(http.MethodGet, "/api/v1/pages/about", nil), &about)
	require.Len(t, about.Blocks, 1)
	assert.Equal(t, "Wanderer", about.Blocks[0].Heading)
}

func TestFavorites(t *testing.T) {
	env := newTestEnv(t)
	pack := testutil.MustUpsert(t, env.queries, "packs", model.Record{"title": "P"})
	item := testutil.MustUpsert(t, env.queries, "items", model.Record{"pack_id": pack.ID(), "title": "I"})
	viewer := []string{middleware.HeaderViewerID, "v-42"}

	rr := env.do(http.MethodGet, "/api/v1/favorites", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(http.MethodPost, fmt.Sprintf("/api/v1/favorites/%d/toggle", item.ID()), nil, viewer...)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var fav FavoriteResponse
	data(t, rr, &fav)
	assert.True(t, fav.Favorite)

	var list FavoritesResponse
	data(t, env.do(http.MethodGet, "/api/v1/favorites", nil, viewer...), &list)
	assert.Equal(t, []int64{item.ID()}, list.ItemIDs)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, env.reconciler.WaitIdle(ctx))
	stored, err := env.queries.ListFavorites(ctx, "v-42")
	require.NoError(t, err)
	assert.Equal(t, []int64{item.ID()}, stored)

	rr = env.do(http.MethodPut, fmt.Sprintf("/api/v1/favorites/%d", item.ID()), SetFavoriteRequest{Favorite: false}, viewer...)
	require.Equal(t, http.StatusOK, rr.Code)
	data(t, env.do(http.MethodGet, "/api/v1/favorites", nil, viewer...), &list)
	assert.Empty(t, list.ItemIDs)

	rr = env.do(http.MethodPost, "/api/v1/favorites/abc/toggle", nil, viewer...)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func pngFile(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := range 8 {
		img.Set(x, x, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (e *testEnv) upload(field, filename string, content []byte) *httptest.ResponseRecorder {
	e.t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(e.t, err)
	_, err = part.Write(content)
	require.NoError(e.t, err)
	require.NoError(e.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/editor/images/"+field, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func TestUploadImage(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/v1/catalog/tab", SelectTabRequest{Tab: model.TabNews}).Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/v1/catalog/editor", nil).Code)

	rr := env.upload("image", "Launch Day.png", pngFile(t))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var ed EditorResponse
	data(t, rr, &ed)
	url := ed.Record.String("image")
	assert.True(t, strings.HasPrefix(url, "/uploads/"), url)
	assert.True(t, strings.HasSuffix(url, "/launch-day.png"), url)

	rr = env.upload("title", "x.png", pngFile(t))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = env.upload("image", "notes.png", []byte("plain text, not an image"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}

func TestJobs(t *testing.T) {
	env := newTestEnv(t)

	var jobs []scheduler.JobInfo
	data(t, env.do(http.MethodGet, "/api/v1/jobs", nil), &jobs)
	require.Len(t, jobs, 1)
	assert.Equal(t, scheduler.JobFavoritesSweep, jobs[0].Name)

	rr := env.do(http.MethodPost, "/api/v1/jobs/"+scheduler.JobFavoritesSweep+"/run", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(http.MethodPost, "/api/v1/jobs/nope/run", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for _, msg := range []string{"one", "two"} {
		_, err := env.queries.CreateEvent(ctx, store.CreateEventParams{
			Level: model.EventLevelWarning, Category: model.EventCategorySystem, Message: msg,
		})
		require.NoError(t, err)
	}

	var events []model.Event
	data(t, env.do(http.MethodGet, "/api/v1/events?limit=1", nil), &events)
	require.Len(t, events, 1)
	assert.Equal(t, "two", events[0].Message)

	rr := env.do(http.MethodGet, "/api/v1/events?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{store.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", store.ErrParentNotFound), http.StatusUnprocessableEntity},
		{form.ErrReadOnlyField, http.StatusUnprocessableEntity},
		{store.ErrHasChildren, http.StatusConflict},
		{form.ErrSaveInFlight, http.StatusConflict},
		{catalog.ErrNotConfirmed, http.StatusPreconditionRequired},
		{media.ErrTooLarge, http.StatusRequestEntityTooLarge},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{errors.New("disk I/O error"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := errorStatus(tt.err); got != tt.want {
			t.Errorf("errorStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestScalar(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{json.Number("7"), int64(7)},
		{json.Number("2.5"), 2.5},
		{"text", "text"},
		{true, true},
		{nil, nil},
	}
	for _, tt := range tests {
		got, err := scalar(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("scalar(%v) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := scalar(map[string]any{}); err == nil {
		t.Error("expected error for object value")
	}
}
