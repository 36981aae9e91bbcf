// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package blocks composes pages from ordered content blocks and renders
// them for a viewer.
package blocks

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/olegiv/packstudio/internal/cache"
	"github.com/olegiv/packstudio/internal/model"
	"github.com/olegiv/packstudio/internal/store"
)

// Source is the read side of the block backend.
type Source interface {
	ListContentBlocks(ctx context.Context, pageID string) ([]model.ContentBlock, error)
	GetPageConfig(ctx context.Context, pageID string) (model.PageConfig, error)
}

// Page is a loaded page: its config and its blocks in render order.
type Page struct {
	Config model.PageConfig     `json:"config"`
	Blocks []model.ContentBlock `json:"blocks"`
}

// Composer loads pages from a Source, caching composed pages when a cache is given.
type Composer struct {
	source Source
	pages  *cache.TypedCache[Page]
	logger *slog.Logger
}

// NewComposer creates a composer. c may be nil to disable caching.
func NewComposer(source Source, c cache.Cache, ttl time.Duration, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	comp := &Composer{source: source, logger: logger}
	if c != nil {
		comp.pages = cache.NewTypedCache[Page](c, "page:", ttl)
	}
	return comp
}

// Load returns the page with its blocks sorted by position, ties by id.
// A page without a stored config gets the default config.
func (c *Composer) Load(ctx context.Context, pageID string) (*Page, error) {
	if c.pages == nil {
		return c.load(ctx, pageID)
	}
	return c.pages.GetOrSet(ctx, pageID, func() (*Page, error) {
		return c.load(ctx, pageID)
	})
}

func (c *Composer) load(ctx context.Context, pageID string) (*Page, error) {
	blocks, err := c.source.ListContentBlocks(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("loading page %s: %w", pageID, err)
	}

	cfg, err := c.source.GetPageConfig(ctx, pageID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		cfg = model.DefaultPageConfig(pageID)
	case err != nil:
		return nil, fmt.Errorf("loading page config %s: %w", pageID, err)
	}

	SortBlocks(blocks)
	for i := range blocks {
		if blocks[i].Align == "" {
			blocks[i].Align = model.AlignLeft
		}
	}
	return &Page{Config: cfg, Blocks: blocks}, nil
}

// Invalidate drops the cached composition of one page.
func (c *Composer) Invalidate(ctx context.Context, pageID string) {
	if c.pages == nil {
		return
	}
	if err := c.pages.Delete(ctx, pageID); err != nil {
		c.logger.Warn("failed to invalidate page cache", "page_id", pageID, "error", err)
	}
}

// InvalidateAll drops every cached page.
func (c *Composer) InvalidateAll(ctx context.Context) {
	if c.pages == nil {
		return
	}
	if err := c.pages.Invalidate(ctx); err != nil {
		c.logger.Warn("failed to invalidate page cache", "error", err)
	}
}

// SortBlocks orders blocks by position, ties broken by id.
func SortBlocks(blocks []model.ContentBlock) {
	slices.SortFunc(blocks, func(a, b model.ContentBlock) int {
		return cmp.Or(cmp.Compare(a.Position, b.Position), cmp.Compare(a.ID, b.ID))
	})
}
