// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/olegiv/packstudio/internal/model"
)

// Default site settings
const (
	DefaultSiteName     = "Pack Studio"
	DefaultLogoPosition = "center"
)

// Seed ensures the settings singleton exists and, when demo is true,
// loads demo packs, items, tutorials, news and a home page.
func Seed(ctx context.Context, db *sql.DB, demo bool) error {
	queries := New(db)

	settings, err := queries.Collection("settings")
	if err != nil {
		return err
	}

	_, err = settings.GetSingleton(ctx)
	switch {
	case err == nil:
		slog.Debug("settings row already exists, skipping")
	case errors.Is(err, ErrNoSingleton):
		if _, err := settings.Upsert(ctx, model.Record{
			"site_name":     DefaultSiteName,
			"logo_position": DefaultLogoPosition,
		}); err != nil {
			return fmt.Errorf("creating settings: %w", err)
		}
		slog.Info("created default settings", "site_name", DefaultSiteName)
	default:
		return fmt.Errorf("checking settings: %w", err)
	}

	if !demo {
		return nil
	}
	return seedDemo(ctx, queries)
}

func seedDemo(ctx context.Context, queries *Queries) error {
	packs, err := queries.Collection("packs")
	if err != nil {
		return err
	}
	existing, err := packs.List(ctx, ListOptions{})
	if err != nil {
		return fmt.Errorf("checking demo packs: %w", err)
	}
	if len(existing) > 0 {
		slog.Info("demo content already present, skipping")
		return nil
	}

	items, err := queries.Collection("items")
	if err != nil {
		return err
	}

	pack, err := packs.Upsert(ctx, model.Record{
		"title":       "Cyberpunk Girls",
		"description": "Neon portraits and rainy city nights",
		"is_featured": true,
	})
	if err != nil {
		return fmt.Errorf("seeding pack: %w", err)
	}
	for i, title := range []string{"Retrato Neon", "Chuva na Cidade"} {
		if _, err := items.Upsert(ctx, model.Record{
			model.FieldPackID: pack.ID(),
			"title":           title,
			"prompt":          "/imagine " + title,
			"position":        int64(i),
		}); err != nil {
			return fmt.Errorf("seeding item: %w", err)
		}
	}

	for _, rec := range []struct {
		collection string
		record     model.Record
	}{
		{"tutorials", model.Record{"title": "Getting started", "description": "Your first prompt", "url": "dQw4w9WgXcQ"}},
		{"news", model.Record{"title": "Welcome", "content": "The studio is open."}},
		{"users", model.Record{"name": "Ana Silva", "email": "ana@example.com", "plan": model.PlanFree}},
	} {
		c, err := queries.Collection(rec.collection)
		if err != nil {
			return err
		}
		if _, err := c.Upsert(ctx, rec.record); err != nil {
			return fmt.Errorf("seeding %s: %w", rec.collection, err)
		}
	}

	blocks := []CreateContentBlockParams{
		{PageID: "home", Position: 0, Type: model.BlockSectionTitle, Title: "Hello, {name}!", Align: model.AlignCenter},
		{PageID: "home", Position: 1, Type: model.BlockBannerLarge, Title: "Cyberpunk Girls", Subtitle: "New pack", Link: "/packs/1", LinkLabel: "Open"},
		{PageID: "home", Position: 2, Type: model.BlockVideo, Media: "dQw4w9WgXcQ"},
	}
	for _, b := range blocks {
		if _, err := queries.CreateContentBlock(ctx, b); err != nil {
			return err
		}
	}

	slog.Info("seeded demo content", "pack_id", pack.ID(), "blocks", len(blocks))
	return nil
}
