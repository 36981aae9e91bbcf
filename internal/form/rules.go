// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package form

import (
	"slices"

	"github.com/olegiv/packstudio/internal/model"
)

// Widget is the kind of control rendered for a field.
type Widget string

// Widgets
const (
	WidgetText     Widget = "text"
	WidgetTextarea Widget = "textarea"
	WidgetImage    Widget = "image"
	WidgetSelect   Widget = "select"
	WidgetToggle   Widget = "toggle"
)

// Rule maps a set of field names to a widget. Rules are evaluated in order;
// the first match wins.
type Rule struct {
	Names  []string
	Widget Widget
}

// Matches reports whether the rule applies to the field name.
// A rule without names matches every field.
func (r Rule) Matches(name string) bool {
	return len(r.Names) == 0 || slices.Contains(r.Names, name)
}

// Rules is the generic field → widget table.
var Rules = []Rule{
	{Names: []string{"cover", "url", "thumbnail", "image"}, Widget: WidgetImage},
	{Names: []string{"prompt", "content", "description"}, Widget: WidgetTextarea},
	{Widget: WidgetText},
}

// InferWidget returns the widget of the first rule matching name.
func InferWidget(name string) Widget {
	for _, r := range Rules {
		if r.Matches(name) {
			return r.Widget
		}
	}
	return WidgetText
}

// Control is a fixed, non-generic control bound to one field name.
type Control struct {
	Name    string
	Widget  Widget
	Options []string
	// Entities limits the control to these entity types; empty means all.
	Entities []model.EntityType
}

// Controls is the table of fixed controls. Fields named here never get a generic widget.
var Controls = []Control{
	{Name: "plan", Widget: WidgetSelect, Options: model.Plans},
	{Name: model.FieldIsFeatured, Widget: WidgetToggle, Entities: []model.EntityType{model.EntityItem, model.EntityTutorial}},
	{Name: "logo_position", Widget: WidgetSelect, Options: model.LogoPositions},
}

// controlFor returns the fixed control for a field, if any.
func controlFor(name string) (Control, bool) {
	for _, c := range Controls {
		if c.Name == name {
			return c, true
		}
	}
	return Control{}, false
}

// shownFor reports whether the control is displayed for the entity.
func (c Control) shownFor(entity model.EntityType) bool {
	return len(c.Entities) == 0 || slices.Contains(c.Entities, entity)
}

// reserved fields are handled by fixed controls or the server and never get a generic widget.
var reserved = []string{model.FieldID, model.FieldCreatedAt, model.FieldPackID, model.FieldIsFeatured}

// IsReserved reports whether name is a reserved field.
func IsReserved(name string) bool {
	return slices.Contains(reserved, name)
}
