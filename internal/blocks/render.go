// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blocks

import (
	"net/url"

	"github.com/olegiv/packstudio/internal/model"
)

// EmbedBaseURL is the player the video block embeds.
const EmbedBaseURL = "https://www.youtube.com/embed/"

// Header is the rendered page header.
type Header struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Cover    string `json:"cover,omitempty"`
}

// RenderedBlock is the view of one block. Which fields are set depends on Type.
type RenderedBlock struct {
	ID       int64           `json:"id"`
	Type     model.BlockType `json:"type"`
	Heading  string          `json:"heading,omitempty"`
	Subtitle string          `json:"subtitle,omitempty"`
	Align    string          `json:"align,omitempty"`
	Image    string          `json:"image,omitempty"`
	EmbedURL string          `json:"embed_url,omitempty"`
	// Href is the action target; empty means the block is not actionable.
	Href      string `json:"href,omitempty"`
	LinkLabel string `json:"link_label,omitempty"`
	// CTA is true when a call to action is shown, even if it is inert.
	CTA bool `json:"cta,omitempty"`
}

// RenderedPage is a page rendered for one viewer.
type RenderedPage struct {
	PageID string          `json:"page_id"`
	Header *Header         `json:"header,omitempty"`
	Blocks []RenderedBlock `json:"blocks"`
}

// Render renders a loaded page for viewer. Block order is preserved and
// blocks of unknown type are left out.
func Render(page *Page, viewer *model.Viewer) RenderedPage {
	out := RenderedPage{
		PageID: page.Config.PageID,
		Blocks: make([]RenderedBlock, 0, len(page.Blocks)),
	}
	if page.Config.ShowHeader {
		out.Header = &Header{
			Title:    Substitute(page.Config.Title, viewer),
			Subtitle: Substitute(page.Config.Subtitle, viewer),
			Cover:    page.Config.Cover,
		}
	}
	for _, b := range page.Blocks {
		if rb, ok := RenderBlock(b, viewer); ok {
			out.Blocks = append(out.Blocks, rb)
		}
	}
	return out
}

// RenderBlock renders one block. It reports false for block types outside the closed set.
func RenderBlock(b model.ContentBlock, viewer *model.Viewer) (RenderedBlock, bool) {
	rb := RenderedBlock{ID: b.ID, Type: b.Type}

	switch b.Type {
	case model.BlockSectionTitle:
		rb.Heading = Substitute(b.Title, viewer)
		rb.Align = alignment(b.Align)
	case model.BlockVideo:
		rb.Heading = Substitute(b.Title, viewer)
		rb.EmbedURL = EmbedURL(b.Media)
	case model.BlockBannerLarge:
		rb.Image = b.Media
		rb.Heading = Substitute(b.Title, viewer)
		rb.Subtitle = Substitute(b.Subtitle, viewer)
		rb.LinkLabel = Substitute(b.LinkLabel, viewer)
		rb.CTA = rb.LinkLabel != ""
		rb.Href = b.Link
	case model.BlockBannerSmall:
		rb.Image = b.Media
		rb.Heading = Substitute(b.Title, viewer)
		rb.Subtitle = Substitute(b.Subtitle, viewer)
		rb.Href = b.Link
		rb.LinkLabel = Substitute(b.LinkLabel, viewer)
	default:
		return RenderedBlock{}, false
	}
	return rb, true
}

// EmbedURL returns the player URL for an opaque media id, or "" when there is none.
func EmbedURL(mediaID string) string {
	if mediaID == "" {
		return ""
	}
	return EmbedBaseURL + url.PathEscape(mediaID)
}

func alignment(a string) string {
	switch a {
	case model.AlignCenter, model.AlignRight:
		return a
	default:
		return model.AlignLeft
	}
}
