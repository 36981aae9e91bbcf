// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/packstudio/internal/model"
)

func TestInferWidget(t *testing.T) {
	tests := []struct {
		name string
		want Widget
	}{
		{"cover", WidgetImage},
		{"url", WidgetImage},
		{"thumbnail", WidgetImage},
		{"image", WidgetImage},
		{"prompt", WidgetTextarea},
		{"content", WidgetTextarea},
		{"description", WidgetTextarea},
		{"title", WidgetText},
		{"Cover", WidgetText}, // names are case-sensitive
		{"cover_url", WidgetText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferWidget(tt.name))
		})
	}
}

func TestRulesEndWithCatchAll(t *testing.T) {
	require.NotEmpty(t, Rules)
	last := Rules[len(Rules)-1]
	assert.Empty(t, last.Names)
	assert.True(t, last.Matches("anything"))
}

func TestGenerate_ItemRecord(t *testing.T) {
	rec := model.Record{
		"id":          int64(1),
		"title":       "X",
		"prompt":      "Y",
		"cover":       "http://img",
		"is_featured": true,
	}

	f := Generate(rec, model.EntityItem)

	require.Len(t, f.Fields, 3)
	widgets := map[string]Widget{}
	for _, fl := range f.Fields {
		widgets[fl.Name] = fl.Widget
	}
	assert.Equal(t, map[string]Widget{
		"title":  WidgetText,
		"prompt": WidgetTextarea,
		"cover":  WidgetImage,
	}, widgets)

	require.Len(t, f.Controls, 1)
	assert.Equal(t, model.FieldIsFeatured, f.Controls[0].Name)
	assert.Equal(t, WidgetToggle, f.Controls[0].Widget)
	assert.Equal(t, true, f.Controls[0].Value)

	_, hasID := f.Field("id")
	assert.False(t, hasID, "id must not be editable")
}

func TestGenerate_Labels(t *testing.T) {
	f := Generate(model.Record{"site_name": "S"}, model.EntitySettings)
	require.Len(t, f.Fields, 1)
	assert.Equal(t, "SITE_NAME", f.Fields[0].Label)
}

func TestGenerate_FeaturedOnlyForItemsAndTutorials(t *testing.T) {
	rec := model.Record{"id": int64(1), "title": "t", "is_featured": false}

	for _, entity := range []model.EntityType{model.EntityItem, model.EntityTutorial} {
		_, ok := Generate(rec, entity).Field(model.FieldIsFeatured)
		assert.True(t, ok, "%s should offer the featured toggle", entity)
	}
	for _, entity := range []model.EntityType{model.EntityPack, model.EntityNews} {
		_, ok := Generate(rec, entity).Field(model.FieldIsFeatured)
		assert.False(t, ok, "%s should not offer the featured toggle", entity)
	}

	// New records still get the toggle.
	_, ok := Generate(model.Record{"title": ""}, model.EntityTutorial).Field(model.FieldIsFeatured)
	assert.True(t, ok)
}

func TestGenerate_FixedSelects(t *testing.T) {
	f := Generate(model.Record{"plan": "pro", "logo_position": "center"}, model.EntitySettings)
	assert.Empty(t, f.Fields)

	plan, ok := f.Field("plan")
	require.True(t, ok)
	assert.Equal(t, WidgetSelect, plan.Widget)
	assert.Equal(t, []string{"free", "pro", "gold", "admin"}, plan.Options)

	logo, ok := f.Field("logo_position")
	require.True(t, ok)
	assert.Equal(t, []string{"flex-start", "center", "flex-end"}, logo.Options)
}

func TestGenerate_UserOnlyPlanWritable(t *testing.T) {
	f := Generate(model.Record{"id": int64(3), "name": "Ana", "email": "a@x", "plan": "free"}, model.EntityUser)

	assert.True(t, f.Writable("plan"))
	assert.False(t, f.Writable("name"))
	assert.False(t, f.Writable("email"))
	for _, fl := range f.Fields {
		assert.True(t, fl.ReadOnly, "%s should be read-only", fl.Name)
	}
}

func TestGenerate_ReservedFieldsHidden(t *testing.T) {
	rec := model.Record{"id": int64(1), "created_at": "2026-01-01", "pack_id": int64(7), "title": "t"}
	f := Generate(rec, model.EntityItem)
	for _, name := range []string{"id", "created_at", "pack_id"} {
		_, ok := f.Field(name)
		assert.False(t, ok, "%s must not be a form field", name)
	}
}
