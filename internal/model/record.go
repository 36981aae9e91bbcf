// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain types shared by the studio packages:
// generic records, entity types and tabs, content blocks, page configs and viewers.
package model

import (
	"fmt"
	"strconv"
)

// Reserved record fields. They are never edited through generic form fields.
const (
	FieldID         = "id"
	FieldCreatedAt  = "created_at"
	FieldPackID     = "pack_id"
	FieldIsFeatured = "is_featured"
)

// FieldPageID links content blocks and page configs to their page.
const FieldPageID = "page_id"

// Record is a flat mapping of field name to scalar value
// (string, bool, int64, float64 or nil) as returned by a backend collection.
type Record map[string]any

// Clone returns a shallow copy of the record. Values are scalars, so the copy
// is independent of the original.
func (r Record) Clone() Record {
	if r == nil {
		return Record{}
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ID returns the server-assigned id, or 0 for a record that was never saved.
func (r Record) ID() int64 {
	return r.Int(FieldID)
}

// PackID returns the parent pack id and whether it is set.
func (r Record) PackID() (int64, bool) {
	v, ok := r[FieldPackID]
	if !ok || v == nil {
		return 0, false
	}
	id := toInt64(v)
	return id, id != 0
}

// Int returns the named field as int64. Missing, nil or unparsable values yield 0.
func (r Record) Int(name string) int64 {
	return toInt64(r[name])
}

// String returns the named field formatted as a string. Nil yields "".
func (r Record) String(name string) string {
	switch v := r[name].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// Bool returns the named field as a boolean. Integers are true when non-zero.
func (r Record) Bool(name string) bool {
	switch v := r[name].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	case float64:
		return v != 0
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		id, _ := strconv.ParseInt(n, 10, 64)
		return id
	case []byte:
		id, _ := strconv.ParseInt(string(n), 10, 64)
		return id
	default:
		return 0
	}
}
