// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testPage struct {
	Title  string   `json:"title"`
	Blocks []string `json:"blocks"`
}

func TestTypedCache_GetOrSet(t *testing.T) {
	mem := NewMemoryCache(MemoryOptions{DefaultTTL: time.Minute})
	defer func() { _ = mem.Close() }()
	pages := NewTypedCache[testPage](mem, "page:", time.Minute)
	ctx := context.Background()

	calls := 0
	load := func() (*testPage, error) {
		calls++
		return &testPage{Title: "HOME", Blocks: []string{"a", "b"}}, nil
	}

	for range 3 {
		got, err := pages.GetOrSet(ctx, "home", load)
		if err != nil {
			t.Fatalf("GetOrSet: %v", err)
		}
		if got.Title != "HOME" || len(got.Blocks) != 2 {
			t.Errorf("GetOrSet = %+v", got)
		}
	}
	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}

	if _, err := mem.Get(ctx, "page:home"); err != nil {
		t.Errorf("namespaced key not stored: %v", err)
	}
}

func TestTypedCache_LoaderError(t *testing.T) {
	mem := NewMemoryCache(MemoryOptions{DefaultTTL: time.Minute})
	defer func() { _ = mem.Close() }()
	pages := NewTypedCache[testPage](mem, "page:", time.Minute)

	wantErr := errors.New("backend down")
	_, err := pages.GetOrSet(context.Background(), "home", func() (*testPage, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
	if _, ok := pages.Get(context.Background(), "home"); ok {
		t.Error("failed load was cached")
	}
}

func TestTypedCache_Invalidate(t *testing.T) {
	mem := NewMemoryCache(MemoryOptions{DefaultTTL: time.Minute})
	defer func() { _ = mem.Close() }()
	ctx := context.Background()
	pages := NewTypedCache[testPage](mem, "page:", time.Minute)

	_ = pages.Set(ctx, "home", &testPage{Title: "HOME"})
	_ = pages.Set(ctx, "about", &testPage{Title: "ABOUT"})
	_ = mem.Set(ctx, "unrelated", []byte("x"), 0)

	if err := pages.Delete(ctx, "about"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := pages.Get(ctx, "about"); ok {
		t.Error("about still cached after Delete")
	}

	if err := pages.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok := pages.Get(ctx, "home"); ok {
		t.Error("home still cached after Invalidate")
	}
	if _, err := mem.Get(ctx, "unrelated"); err != nil {
		t.Errorf("Invalidate removed a key outside the namespace: %v", err)
	}
}

func TestTypedCache_UndecodableIsMiss(t *testing.T) {
	mem := NewMemoryCache(MemoryOptions{DefaultTTL: time.Minute})
	defer func() { _ = mem.Close() }()
	ctx := context.Background()
	_ = mem.Set(ctx, "page:home", []byte("{not json"), 0)

	pages := NewTypedCache[testPage](mem, "page:", time.Minute)
	if _, ok := pages.Get(ctx, "home"); ok {
		t.Error("Get decoded invalid JSON")
	}
}
