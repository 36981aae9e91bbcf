// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package form infers editable fields from the shape of a record and
// manages the uncommitted working copy of an open editor.
package form

import (
	"slices"
	"strings"

	"github.com/olegiv/packstudio/internal/model"
)

// Field is one editable (or display-only) control of a generated form.
type Field struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Widget   Widget   `json:"widget"`
	Options  []string `json:"options,omitempty"`
	Value    any      `json:"value"`
	ReadOnly bool     `json:"read_only,omitempty"`
}

// Form is the set of controls generated for a record.
type Form struct {
	Entity model.EntityType `json:"entity"`
	// Fields are inferred from the record shape through Rules.
	Fields []Field `json:"fields"`
	// Controls are the fixed controls that apply to the record.
	Controls []Field `json:"controls"`
}

// Generate builds the form of a record of the given entity type.
// Reserved fields never appear as generic fields. For users only plan is
// writable; every other field is display data.
func Generate(rec model.Record, entity model.EntityType) Form {
	f := Form{Entity: entity}

	for _, name := range fieldNames(rec) {
		if ctrl, ok := controlFor(name); ok {
			if ctrl.shownFor(entity) {
				f.Controls = append(f.Controls, Field{
					Name:    name,
					Label:   label(name),
					Widget:  ctrl.Widget,
					Options: ctrl.Options,
					Value:   rec[name],
				})
			}
			continue
		}
		if IsReserved(name) {
			continue
		}
		f.Fields = append(f.Fields, Field{
			Name:     name,
			Label:    label(name),
			Widget:   InferWidget(name),
			Value:    rec[name],
			ReadOnly: entity == model.EntityUser,
		})
	}

	// The featured toggle is offered for new records too.
	if _, ok := rec[model.FieldIsFeatured]; !ok {
		if ctrl, _ := controlFor(model.FieldIsFeatured); ctrl.shownFor(entity) {
			f.Controls = append(f.Controls, Field{
				Name:   model.FieldIsFeatured,
				Label:  label(model.FieldIsFeatured),
				Widget: WidgetToggle,
				Value:  false,
			})
		}
	}

	return f
}

// Field returns the generic field or fixed control with the given name.
func (f Form) Field(name string) (Field, bool) {
	for _, fl := range f.Fields {
		if fl.Name == name {
			return fl, true
		}
	}
	for _, fl := range f.Controls {
		if fl.Name == name {
			return fl, true
		}
	}
	return Field{}, false
}

// Writable reports whether the form lets the operator change the named field.
func (f Form) Writable(name string) bool {
	fl, ok := f.Field(name)
	return ok && !fl.ReadOnly
}

func label(name string) string {
	return strings.ToUpper(name)
}

func fieldNames(rec model.Record) []string {
	names := make([]string, 0, len(rec))
	for k := range rec {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}
