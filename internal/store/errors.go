// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrParentNotFound is returned when a record references a parent that does not exist.
	ErrParentNotFound = errors.New("parent record not found")

	// ErrHasChildren is returned when deleting a record that still has children.
	ErrHasChildren = errors.New("record has child records")

	// ErrNoSingleton is returned when a singleton collection has no row.
	ErrNoSingleton = errors.New("singleton record not found")

	// ErrUnknownCollection is returned for a collection name outside the whitelist.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrUnknownField is returned when a record or query names a column the collection lacks.
	ErrUnknownField = errors.New("unknown field")
)
