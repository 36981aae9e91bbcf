// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package catalog implements the operator's entity catalog: tab selection,
// the pack → item hierarchy and the editor lifecycle on top of the generic
// backend collections.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/olegiv/packstudio/internal/form"
	"github.com/olegiv/packstudio/internal/model"
	"github.com/olegiv/packstudio/internal/store"
)

var (
	// ErrNotConfirmed is returned when a delete is requested without confirmation.
	ErrNotConfirmed = errors.New("delete not confirmed")

	// ErrStale is returned when a result arrives after the navigation moved on.
	ErrStale = errors.New("result is stale")

	// ErrNoEditor is returned when no editor session is open.
	ErrNoEditor = errors.New("no editor open")

	// ErrNotInPack is returned when a pack operation is requested outside the packs tab.
	ErrNotInPack = errors.New("packs tab not selected")

	// ErrNotDeletable is returned for entities that cannot be deleted from the catalog.
	ErrNotDeletable = errors.New("entity cannot be deleted")

	// ErrCreateNotAllowed is returned for entities that cannot be created from the catalog.
	ErrCreateNotAllowed = errors.New("entity cannot be created")
)

// State is the navigation state of the catalog.
type State string

// Navigation states
const (
	StateFlatList   State = "flat_list"
	StatePackList   State = "pack_list"
	StatePackDetail State = "pack_detail"
)

// Change describes a persisted mutation, passed to change hooks. Previous is
// the record as it was before a save, nil for deletes.
type Change struct {
	Entity   model.EntityType
	ID       int64
	Record   model.Record
	Previous model.Record
	Deleted  bool
}

// ChangeHook is called after every successful save or delete.
type ChangeHook func(ctx context.Context, c Change)

// Snapshot is a consistent copy of the navigator state.
type Snapshot struct {
	Tab        model.Tab        `json:"tab"`
	State      State            `json:"state"`
	Entity     model.EntityType `json:"entity"`
	Pack       model.Record     `json:"pack,omitempty"`
	Records    []model.Record   `json:"records"`
	Generation uint64           `json:"generation"`
	Editing    bool             `json:"editing"`
}

// Navigator is the single-operator catalog state machine. Its lock is never
// held while the backend is called.
type Navigator struct {
	backend store.Backend
	logger  *slog.Logger

	mu      sync.Mutex
	tab     model.Tab
	pack    model.Record
	records []model.Record
	gen     uint64
	editor  *form.Session
	hooks   []ChangeHook
}

// NewNavigator creates a navigator on the packs tab. Call Refresh to load the first list.
func NewNavigator(backend store.Backend, logger *slog.Logger) *Navigator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{
		backend: backend,
		logger:  logger,
		tab:     model.TabPacks,
	}
}

// OnChange registers a hook called after every successful save or delete.
func (n *Navigator) OnChange(hook ChangeHook) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hooks = append(n.hooks, hook)
}

// Snapshot returns a copy of the current state.
func (n *Navigator) Snapshot() Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()

	records := make([]model.Record, len(n.records))
	for i, r := range n.records {
		records[i] = r.Clone()
	}
	snap := Snapshot{
		Tab:        n.tab,
		State:      n.stateLocked(),
		Entity:     n.entityLocked(),
		Records:    records,
		Generation: n.gen,
		Editing:    n.editor != nil,
	}
	if n.pack != nil {
		snap.Pack = n.pack.Clone()
	}
	return snap
}

// Editor returns the open editor session, or nil.
func (n *Navigator) Editor() *form.Session {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.editor
}

func (n *Navigator) stateLocked() State {
	switch {
	case !n.tab.HasPacks():
		return StateFlatList
	case n.pack != nil:
		return StatePackDetail
	default:
		return StatePackList
	}
}

// entityLocked returns the entity type of the visible list.
func (n *Navigator) entityLocked() model.EntityType {
	if n.pack != nil {
		return model.EntityItem
	}
	return n.tab.Entity()
}

// SelectTab switches the active tab. Any selected pack is cleared.
func (n *Navigator) SelectTab(ctx context.Context, tab model.Tab) error {
	if !tab.Valid() {
		return fmt.Errorf("unknown tab %q", tab)
	}

	n.mu.Lock()
	n.tab = tab
	n.pack = nil
	n.records = nil
	n.closeEditorLocked()
	gen := n.bumpLocked()
	n.mu.Unlock()

	return n.load(ctx, gen, tab.Entity(), 0)
}

// EnterPack selects a pack and loads only that pack's items.
func (n *Navigator) EnterPack(ctx context.Context, packID int64) error {
	n.mu.Lock()
	if !n.tab.HasPacks() {
		n.mu.Unlock()
		return ErrNotInPack
	}
	gen := n.bumpLocked()
	n.mu.Unlock()

	packs, err := n.backend.Collection(model.EntityPack.Collection())
	if err != nil {
		return err
	}
	pack, err := packs.GetByID(ctx, packID)
	if err != nil {
		return fmt.Errorf("entering pack %d: %w", packID, err)
	}

	n.mu.Lock()
	if n.gen != gen {
		n.mu.Unlock()
		return ErrStale
	}
	n.pack = pack
	n.records = nil
	n.closeEditorLocked()
	n.mu.Unlock()

	return n.load(ctx, gen, model.EntityItem, packID)
}

// Back leaves the selected pack and returns to the pack list.
func (n *Navigator) Back(ctx context.Context) error {
	n.mu.Lock()
	if n.pack == nil {
		n.mu.Unlock()
		return nil
	}
	n.pack = nil
	n.records = nil
	n.closeEditorLocked()
	gen := n.bumpLocked()
	n.mu.Unlock()

	return n.load(ctx, gen, model.EntityPack, 0)
}

// Refresh reloads the visible list. On failure the previous list is kept.
func (n *Navigator) Refresh(ctx context.Context) error {
	n.mu.Lock()
	gen := n.gen
	entity := n.entityLocked()
	packID := n.pack.ID()
	n.mu.Unlock()

	return n.load(ctx, gen, entity, packID)
}

func (n *Navigator) bumpLocked() uint64 {
	n.gen++
	return n.gen
}

func (n *Navigator) closeEditorLocked() {
	if n.editor != nil {
		n.editor.Cancel()
		n.editor = nil
	}
}

// load fetches a list and installs it when gen is still current.
func (n *Navigator) load(ctx context.Context, gen uint64, entity model.EntityType, packID int64) error {
	coll, err := n.backend.Collection(entity.Collection())
	if err != nil {
		return err
	}
	records, err := coll.List(ctx, listOptions(coll, entity, packID))
	if err != nil {
		return fmt.Errorf("listing %s: %w", coll.Name(), err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.gen != gen {
		n.logger.Debug("discarding stale list", "collection", coll.Name(), "generation", gen, "current", n.gen)
		return ErrStale
	}
	n.records = records
	return nil
}

// reload is a passive reload after a mutation: failures are logged, not returned.
func (n *Navigator) reload(ctx context.Context, gen uint64, entity model.EntityType, packID int64) {
	err := n.load(ctx, gen, entity, packID)
	switch {
	case err == nil, errors.Is(err, ErrStale):
	default:
		n.logger.Warn("failed to reload list", "entity", entity, "pack_id", packID, "error", err)
	}
}

// OpenEditor opens an editor on the record with the given id of the visible
// list, or on a blank record when id is 0. Settings always open the singleton.
func (n *Navigator) OpenEditor(ctx context.Context, id int64) (*form.Session, error) {
	n.mu.Lock()
	entity := n.entityLocked()
	packID := n.pack.ID()
	gen := n.gen
	n.mu.Unlock()

	coll, err := n.backend.Collection(entity.Collection())
	if err != nil {
		return nil, err
	}

	var rec model.Record
	switch {
	case entity == model.EntitySettings:
		rec, err = coll.GetSingleton(ctx)
	case id != 0:
		rec, err = coll.GetByID(ctx, id)
	case entity == model.EntityUser:
		return nil, fmt.Errorf("%s: %w", entity, ErrCreateNotAllowed)
	default:
		rec = coll.Template()
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s editor: %w", entity, err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.gen != gen {
		return nil, ErrStale
	}
	n.closeEditorLocked()
	n.editor = form.NewSession(entity, rec, packID)
	return n.editor, nil
}

// CloseEditor discards the open editor without saving.
func (n *Navigator) CloseEditor() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closeEditorLocked()
}

// SaveEditor saves the open editor. On success the editor closes and the
// affected list is reloaded: an item saved inside a pack reloads only that
// pack's items. On failure the editor stays open with its edits.
func (n *Navigator) SaveEditor(ctx context.Context) (model.Record, error) {
	n.mu.Lock()
	sess := n.editor
	gen := n.gen
	entity := n.entityLocked()
	packID := n.pack.ID()
	n.mu.Unlock()

	if sess == nil {
		return nil, ErrNoEditor
	}

	saved, err := sess.Save(ctx, n.backend)
	if err != nil {
		n.logger.Warn("save failed", "entity", sess.Entity(), "error", err)
		return nil, err
	}

	n.notify(ctx, Change{Entity: sess.Entity(), ID: saved.ID(), Record: saved, Previous: sess.Original()})

	n.mu.Lock()
	if n.editor == sess {
		n.editor = nil
	}
	current := n.gen == gen
	n.mu.Unlock()

	if current {
		n.reload(ctx, gen, entity, packID)
	}
	return saved, nil
}

// Delete removes a record of the visible list after confirmation. An item
// deleted inside a pack reloads only that pack's items. Deleting the selected
// pack returns to the pack list.
func (n *Navigator) Delete(ctx context.Context, entity model.EntityType, id int64, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if entity == model.EntitySettings {
		return fmt.Errorf("%s: %w", entity, ErrNotDeletable)
	}

	n.mu.Lock()
	gen := n.gen
	visible := n.entityLocked()
	packID := n.pack.ID()
	n.mu.Unlock()

	coll, err := n.backend.Collection(entity.Collection())
	if err != nil {
		return err
	}
	// Read first so change hooks see what was removed.
	rec, err := coll.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting %s %d: %w", entity, id, err)
	}
	if err := coll.Delete(ctx, id); err != nil {
		return err
	}

	n.notify(ctx, Change{Entity: entity, ID: id, Record: rec, Deleted: true})

	n.mu.Lock()
	if entity == model.EntityPack && n.pack.ID() == id {
		n.pack = nil
		n.records = nil
		n.closeEditorLocked()
		gen = n.bumpLocked()
		visible, packID = model.EntityPack, 0
	}
	current := n.gen == gen
	n.mu.Unlock()

	if current {
		n.reload(ctx, gen, visible, packID)
	}
	return nil
}

func (n *Navigator) notify(ctx context.Context, c Change) {
	n.mu.Lock()
	hooks := make([]ChangeHook, len(n.hooks))
	copy(hooks, n.hooks)
	n.mu.Unlock()

	for _, hook := range hooks {
		hook(ctx, c)
	}
}
