// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blocks

import (
	"strings"

	"github.com/olegiv/packstudio/internal/model"
)

// NameToken is replaced with the viewer's first name at render time.
const NameToken = "{name}"

// FallbackName is used for anonymous viewers and viewers without a display name.
const FallbackName = "friend"

// Substitute replaces every occurrence of NameToken in text in a single,
// non-recursive, case-sensitive pass.
func Substitute(text string, viewer *model.Viewer) string {
	if !strings.Contains(text, NameToken) {
		return text
	}
	return strings.ReplaceAll(text, NameToken, displayName(viewer))
}

func displayName(viewer *model.Viewer) string {
	if viewer.Anonymous() {
		return FallbackName
	}
	if first := viewer.FirstName(); first != "" {
		return first
	}
	return FallbackName
}
