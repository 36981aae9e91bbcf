// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// EntityType identifies a record shape handled by the generic editor.
type EntityType string

// Entity types
const (
	EntityPack       EntityType = "pack"
	EntityItem       EntityType = "item"
	EntityTutorial   EntityType = "tutorial"
	EntityNews       EntityType = "news"
	EntityUser       EntityType = "user"
	EntitySettings   EntityType = "settings"
	EntityBlock      EntityType = "block"
	EntityPageConfig EntityType = "page_config"
)

// Collection returns the backend collection (table) the entity lives in.
func (e EntityType) Collection() string {
	switch e {
	case EntityPack:
		return "packs"
	case EntityItem:
		return "items"
	case EntityTutorial:
		return "tutorials"
	case EntityNews:
		return "news"
	case EntityUser:
		return "users"
	case EntitySettings:
		return "settings"
	case EntityBlock:
		return "content_blocks"
	case EntityPageConfig:
		return "page_configs"
	default:
		return ""
	}
}

// Valid reports whether e is a known entity type.
func (e EntityType) Valid() bool {
	return e.Collection() != ""
}

// Tab is an operator-facing entity tab in the catalog.
type Tab string

// Tabs
const (
	TabPacks     Tab = "packs"
	TabTutorials Tab = "tutorials"
	TabNews      Tab = "news"
	TabUsers     Tab = "users"
	TabSettings  Tab = "settings"
	TabBlocks    Tab = "blocks"
	TabPages     Tab = "pages"
)

// Tabs lists every tab in display order.
var Tabs = []Tab{TabPacks, TabTutorials, TabNews, TabUsers, TabSettings, TabBlocks, TabPages}

// Entity returns the entity type listed by the tab. The packs tab lists packs;
// its items are reached through a selected pack.
func (t Tab) Entity() EntityType {
	switch t {
	case TabPacks:
		return EntityPack
	case TabTutorials:
		return EntityTutorial
	case TabNews:
		return EntityNews
	case TabUsers:
		return EntityUser
	case TabSettings:
		return EntitySettings
	case TabBlocks:
		return EntityBlock
	case TabPages:
		return EntityPageConfig
	default:
		return ""
	}
}

// HasPacks reports whether the tab carries the pack → item hierarchy.
func (t Tab) HasPacks() bool {
	return t == TabPacks
}

// Valid reports whether t is a known tab.
func (t Tab) Valid() bool {
	return t.Entity() != ""
}

// User plans
const (
	PlanFree  = "free"
	PlanPro   = "pro"
	PlanGold  = "gold"
	PlanAdmin = "admin"
)

// Plans is the closed set of user plans.
var Plans = []string{PlanFree, PlanPro, PlanGold, PlanAdmin}

// LogoPositions is the closed set of logo alignments for site settings.
var LogoPositions = []string{"flex-start", "center", "flex-end"}
