// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/olegiv/packstudio/internal/model"
)

// ListContentBlocks returns the blocks of a page in storage order.
// Callers that render must sort by position themselves.
func (q *Queries) ListContentBlocks(ctx context.Context, pageID string) ([]model.ContentBlock, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, page_id, position, block_type, title, subtitle, media, link, link_label, align
		FROM content_blocks WHERE page_id = ?`, pageID)
	if err != nil {
		return nil, fmt.Errorf("listing blocks of %s: %w", pageID, err)
	}
	defer func() { _ = rows.Close() }()

	var blocks []model.ContentBlock
	for rows.Next() {
		var b model.ContentBlock
		var blockType string
		if err := rows.Scan(&b.ID, &b.PageID, &b.Position, &blockType, &b.Title, &b.Subtitle,
			&b.Media, &b.Link, &b.LinkLabel, &b.Align); err != nil {
			return nil, err
		}
		b.Type = model.BlockType(blockType)
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// CreateContentBlockParams holds the fields of a new content block.
type CreateContentBlockParams struct {
	PageID    string
	Position  int64
	Type      model.BlockType
	Title     string
	Subtitle  string
	Media     string
	Link      string
	LinkLabel string
	Align     string
}

// CreateContentBlock inserts a content block and returns it with its id.
func (q *Queries) CreateContentBlock(ctx context.Context, arg CreateContentBlockParams) (model.ContentBlock, error) {
	align := arg.Align
	if align == "" {
		align = model.AlignLeft
	}
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO content_blocks (page_id, position, block_type, title, subtitle, media, link, link_label, align)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.PageID, arg.Position, string(arg.Type), arg.Title, arg.Subtitle, arg.Media, arg.Link, arg.LinkLabel, align)
	if err != nil {
		return model.ContentBlock{}, fmt.Errorf("creating block: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ContentBlock{}, fmt.Errorf("creating block: %w", err)
	}
	return model.ContentBlock{
		ID:        id,
		PageID:    arg.PageID,
		Position:  arg.Position,
		Type:      arg.Type,
		Title:     arg.Title,
		Subtitle:  arg.Subtitle,
		Media:     arg.Media,
		Link:      arg.Link,
		LinkLabel: arg.LinkLabel,
		Align:     align,
	}, nil
}

// GetPageConfig returns the config of a page or ErrNotFound.
func (q *Queries) GetPageConfig(ctx context.Context, pageID string) (model.PageConfig, error) {
	var cfg model.PageConfig
	var showHeader any
	err := q.db.QueryRowContext(ctx, `
		SELECT page_id, title, subtitle, show_header, cover
		FROM page_configs WHERE page_id = ?`, pageID).
		Scan(&cfg.PageID, &cfg.Title, &cfg.Subtitle, &showHeader, &cfg.Cover)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PageConfig{}, fmt.Errorf("page config %s: %w", pageID, ErrNotFound)
	}
	if err != nil {
		return model.PageConfig{}, fmt.Errorf("getting page config %s: %w", pageID, err)
	}
	cfg.ShowHeader = dbBool(showHeader)
	return cfg, nil
}

// UpsertPageConfig stores the config of a page.
func (q *Queries) UpsertPageConfig(ctx context.Context, cfg model.PageConfig) error {
	showHeader := 0
	if cfg.ShowHeader {
		showHeader = 1
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO page_configs (page_id, title, subtitle, show_header, cover)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(page_id) DO UPDATE SET
			title = excluded.title,
			subtitle = excluded.subtitle,
			show_header = excluded.show_header,
			cover = excluded.cover`,
		cfg.PageID, cfg.Title, cfg.Subtitle, showHeader, cfg.Cover)
	if err != nil {
		return fmt.Errorf("saving page config %s: %w", cfg.PageID, err)
	}
	return nil
}
