// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog

import (
	"github.com/olegiv/packstudio/internal/model"
	"github.com/olegiv/packstudio/internal/store"
)

// listOptions returns the list query of an entity. packID scopes items to
// one pack and is ignored for every other entity.
func listOptions(coll store.Collection, entity model.EntityType, packID int64) store.ListOptions {
	var opts store.ListOptions

	switch entity {
	case model.EntityPack, model.EntityItem:
		if coll.HasField("position") {
			opts.Order = append(opts.Order, store.OrderBy{Field: "position"})
		}
		opts.Order = append(opts.Order, store.OrderBy{Field: model.FieldID})
	case model.EntityNews:
		opts.Order = []store.OrderBy{{Field: model.FieldID, Desc: true}}
	case model.EntityBlock:
		opts.Order = []store.OrderBy{{Field: "page_id"}, {Field: "position"}, {Field: model.FieldID}}
	default:
		opts.Order = []store.OrderBy{{Field: model.FieldID}}
	}

	if entity == model.EntityItem {
		opts.Filter = map[string]any{model.FieldPackID: packID}
	}
	return opts
}
