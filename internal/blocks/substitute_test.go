// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blocks

import (
	"testing"

	"github.com/olegiv/packstudio/internal/model"
)

func TestSubstitute(t *testing.T) {
	ana := &model.Viewer{ID: "u1", DisplayName: "Ana Silva"}

	tests := []struct {
		name   string
		text   string
		viewer *model.Viewer
		want   string
	}{
		{"first name", "Hello, {name}!", ana, "Hello, Ana!"},
		{"anonymous nil", "Hello, {name}!", nil, "Hello, friend!"},
		{"anonymous empty id", "Hello, {name}!", &model.Viewer{DisplayName: "Ana Silva"}, "Hello, friend!"},
		{"no display name", "Hi {name}", &model.Viewer{ID: "u2"}, "Hi friend"},
		{"no token", "Welcome back", ana, "Welcome back"},
		{"case sensitive", "Hello, {Name}!", ana, "Hello, {Name}!"},
		{"every occurrence", "{name}, {name}", ana, "Ana, Ana"},
		{"single pass", "Hello, {name}!", &model.Viewer{ID: "u3", DisplayName: "{name}"}, "Hello, {name}!"},
		{"extra whitespace", "Oi {name}", &model.Viewer{ID: "u4", DisplayName: "  Bruno   Costa "}, "Oi Bruno"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Substitute(tt.text, tt.viewer); got != tt.want {
				t.Errorf("Substitute(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
