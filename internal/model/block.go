// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "strings"

// BlockType is one of the closed set of content block kinds.
type BlockType string

// Block types
const (
	BlockSectionTitle BlockType = "section_title"
	BlockVideo        BlockType = "video"
	BlockBannerLarge  BlockType = "banner_large"
	BlockBannerSmall  BlockType = "banner_small"
)

// Valid reports whether b is part of the closed block type set.
func (b BlockType) Valid() bool {
	switch b {
	case BlockSectionTitle, BlockVideo, BlockBannerLarge, BlockBannerSmall:
		return true
	}
	return false
}

// Block alignments for section titles.
const (
	AlignLeft   = "left"
	AlignCenter = "center"
	AlignRight  = "right"
)

// ContentBlock is one typed, ordered unit of a composed page.
type ContentBlock struct {
	ID        int64     `json:"id"`
	PageID    string    `json:"page_id"`
	Position  int64     `json:"position"`
	Type      BlockType `json:"block_type"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	Media     string    `json:"media"`
	Link      string    `json:"link"`
	LinkLabel string    `json:"link_label"`
	Align     string    `json:"align"`
}

// PageConfig holds the per-page header settings.
type PageConfig struct {
	PageID     string `json:"page_id"`
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle"`
	ShowHeader bool   `json:"show_header"`
	Cover      string `json:"cover"`
}

// DefaultPageConfig returns the config used when a page has none stored.
func DefaultPageConfig(pageID string) PageConfig {
	return PageConfig{
		PageID:     pageID,
		Title:      strings.ToUpper(pageID),
		ShowHeader: true,
	}
}
