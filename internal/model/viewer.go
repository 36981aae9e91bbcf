// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "strings"

// Viewer is the identity supplied by the external identity collaborator.
// A nil *Viewer or one with an empty ID is anonymous.
type Viewer struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Plan        string `json:"plan"`
}

// Anonymous reports whether no viewer is identified.
func (v *Viewer) Anonymous() bool {
	return v == nil || v.ID == ""
}

// FirstName returns the first whitespace-separated token of the display name.
func (v *Viewer) FirstName() string {
	if v == nil {
		return ""
	}
	fields := strings.Fields(v.DisplayName)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
