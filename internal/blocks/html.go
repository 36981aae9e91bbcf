// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blocks

import (
	"embed"
	"html/template"
	"io"

	"github.com/microcosm-cc/bluemonday"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	pageTemplate = template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
	ugcPolicy    = bluemonday.UGCPolicy()
)

// htmlPage is the template view of a rendered page. The header subtitle
// may carry operator-authored markup and is sanitized before output.
type htmlPage struct {
	PageID string
	Header *htmlHeader
	Blocks []RenderedBlock
}

type htmlHeader struct {
	Title    string
	Subtitle template.HTML
	Cover    string
}

// WriteHTML writes the rendered page as an HTML fragment.
func WriteHTML(w io.Writer, page RenderedPage) error {
	view := htmlPage{PageID: page.PageID, Blocks: page.Blocks}
	if page.Header != nil {
		view.Header = &htmlHeader{
			Title:    page.Header.Title,
			Subtitle: template.HTML(ugcPolicy.Sanitize(page.Header.Subtitle)), //nolint:gosec // sanitized by the UGC policy
			Cover:    page.Header.Cover,
		}
	}
	return pageTemplate.ExecuteTemplate(w, "page", view)
}
