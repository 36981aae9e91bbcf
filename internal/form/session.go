// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package form

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/olegiv/packstudio/internal/model"
	"github.com/olegiv/packstudio/internal/store"
)

var (
	// ErrSaveInFlight is returned when a save is requested while another is outstanding.
	ErrSaveInFlight = errors.New("save already in progress")

	// ErrSessionClosed is returned when a saved or cancelled session is used.
	ErrSessionClosed = errors.New("editor session closed")

	// ErrReservedField is returned when a reserved field is edited directly.
	ErrReservedField = errors.New("reserved field")

	// ErrReadOnlyField is returned when a display-only field is edited.
	ErrReadOnlyField = errors.New("read-only field")

	// ErrUnknownField is returned when a field is not part of the form.
	ErrUnknownField = errors.New("field not in form")

	// ErrNotImageField is returned when an upload targets a non-image field.
	ErrNotImageField = errors.New("field does not take an image")
)

// Uploader is the asset-upload collaborator: it stores a file and returns
// a publicly resolvable URL.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, filename string) (string, error)
}

// Session is an open editor: it owns the working copy of one record until
// the operator saves or cancels. Nothing is persisted before Save.
type Session struct {
	mu       sync.Mutex
	entity   model.EntityType
	packID   int64
	original model.Record
	working  model.Record
	saving   bool
	closed   bool
	lastErr  error
}

// NewSession opens an editor on rec. packID is the selected pack when an
// item is edited under a pack, or 0.
func NewSession(entity model.EntityType, rec model.Record, packID int64) *Session {
	return &Session{
		entity:   entity,
		packID:   packID,
		original: rec.Clone(),
		working:  rec.Clone(),
	}
}

// Entity returns the entity type being edited.
func (s *Session) Entity() model.EntityType {
	return s.entity
}

// PackID returns the pack context of the session, 0 when none.
func (s *Session) PackID() int64 {
	return s.packID
}

// Form returns the form generated from the current working copy.
func (s *Session) Form() Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Generate(s.working, s.entity)
}

// Original returns a copy of the record as it was when the editor opened.
func (s *Session) Original() model.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.original.Clone()
}

// Working returns a copy of the working record.
func (s *Session) Working() model.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working.Clone()
}

// Dirty reports whether the working copy differs from the opened record.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.working) != len(s.original) {
		return true
	}
	for k, v := range s.working {
		if ov, ok := s.original[k]; !ok || ov != v {
			return true
		}
	}
	return false
}

// Saving reports whether a save is in flight. The save control is disabled while true.
func (s *Session) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

// Closed reports whether the session was saved or cancelled.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// LastError returns the error of the last failed save, nil after a success.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Set changes one field of the working copy.
func (s *Session) Set(name string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEditableLocked(name); err != nil {
		return err
	}
	s.working[name] = value
	return nil
}

// SetImage uploads a file through the collaborator and stores the returned
// URL verbatim in an image field.
func (s *Session) SetImage(ctx context.Context, up Uploader, name string, r io.Reader, filename string) error {
	s.mu.Lock()
	if err := s.checkEditableLocked(name); err != nil {
		s.mu.Unlock()
		return err
	}
	if InferWidget(name) != WidgetImage {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotImageField, name)
	}
	s.mu.Unlock()

	url, err := up.Upload(ctx, r, filename)
	if err != nil {
		return fmt.Errorf("uploading %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	// A save that started during the upload already took its payload.
	if s.saving {
		return fmt.Errorf("storing %s: %w", name, ErrSaveInFlight)
	}
	s.working[name] = url
	return nil
}

func (s *Session) checkEditableLocked(name string) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.saving {
		return ErrSaveInFlight
	}
	f := Generate(s.working, s.entity)
	fl, ok := f.Field(name)
	if !ok {
		if IsReserved(name) {
			return fmt.Errorf("%w: %s", ErrReservedField, name)
		}
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if fl.ReadOnly {
		return fmt.Errorf("%w: %s", ErrReadOnlyField, name)
	}
	return nil
}

// Cancel discards every change. Nothing is persisted.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.working = s.original.Clone()
}

// Save persists the working copy according to the entity's save rule.
// On failure the session stays open with the edits intact and the error is
// kept in LastError for the operator to retry. On success the session closes.
func (s *Session) Save(ctx context.Context, backend store.Backend) (model.Record, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if s.saving {
		s.mu.Unlock()
		return nil, ErrSaveInFlight
	}
	s.saving = true
	payload := s.payloadLocked()
	s.mu.Unlock()

	saved, err := s.persist(ctx, backend, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	if err != nil {
		s.lastErr = err
		return nil, err
	}
	s.lastErr = nil
	s.closed = true
	return saved, nil
}

// payloadLocked builds the record sent to the backend.
func (s *Session) payloadLocked() model.Record {
	if s.entity == model.EntityUser {
		// Only the plan of a user is writable.
		p := model.Record{model.FieldID: s.working.ID()}
		if v, ok := s.working["plan"]; ok {
			p["plan"] = v
		}
		return p
	}

	p := s.working.Clone()
	delete(p, model.FieldCreatedAt)
	if s.entity == model.EntityItem && s.packID != 0 {
		p[model.FieldPackID] = s.packID
	}
	return p
}

func (s *Session) persist(ctx context.Context, backend store.Backend, payload model.Record) (model.Record, error) {
	coll, err := backend.Collection(s.entity.Collection())
	if err != nil {
		return nil, fmt.Errorf("saving %s: %w", s.entity, err)
	}

	switch s.entity {
	case model.EntitySettings:
		// Settings are a singleton: always update the existing row.
		current, err := coll.GetSingleton(ctx)
		if err != nil {
			return nil, fmt.Errorf("saving %s: %w", s.entity, err)
		}
		payload[model.FieldID] = current.ID()
	case model.EntityUser:
		if payload.ID() == 0 {
			return nil, fmt.Errorf("saving %s: users are created by the identity provider: %w", s.entity, ErrReadOnlyField)
		}
	}

	saved, err := coll.Upsert(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("saving %s: %w", s.entity, err)
	}
	return saved, nil
}
