// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that mirrors warnings and errors
// into the database-backed event log.
package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/packstudio/internal/model"
	"github.com/olegiv/packstudio/internal/store"
)

// CategoryKey is the attribute key that selects the event category.
const CategoryKey = "category"

// writeTimeout bounds a single event log insert.
const writeTimeout = 2 * time.Second

// EventWriter persists event log entries.
type EventWriter interface {
	CreateEvent(ctx context.Context, arg store.CreateEventParams) (int64, error)
}

// EventLogHandler wraps another handler and also writes records at or above
// its level to the event log.
type EventLogHandler struct {
	inner  slog.Handler
	events EventWriter
	level  slog.Level
	attrs  []slog.Attr
}

// NewEventLogHandler forwards WARN and above to the event log.
func NewEventLogHandler(inner slog.Handler, events EventWriter) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, events, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel forwards records at or above level to the event log.
func NewEventLogHandlerWithLevel(inner slog.Handler, events EventWriter, level slog.Level) *EventLogHandler {
	return &EventLogHandler{inner: inner, events: events, level: level}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level && h.events != nil {
		h.write(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &EventLogHandler{inner: h.inner.WithAttrs(attrs), events: h.events, level: h.level, attrs: merged}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{inner: h.inner.WithGroup(name), events: h.events, level: h.level, attrs: h.attrs}
}

// write uses its own context so events survive cancelled requests.
func (h *EventLogHandler) write(r slog.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	attrs := h.collect(r)
	_, _ = h.events.CreateEvent(ctx, store.CreateEventParams{
		Level:     eventLevel(r.Level),
		Category:  category(r.Message, attrs),
		Message:   r.Message,
		Metadata:  metadata(attrs),
		CreatedAt: r.Time,
	})
}

func (h *EventLogHandler) collect(r slog.Record) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	return attrs
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// category prefers an explicit category attribute and otherwise guesses from
// the message.
func category(msg string, attrs []slog.Attr) string {
	for _, a := range attrs {
		if a.Key == CategoryKey {
			return a.Value.String()
		}
	}

	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "favorite"):
		return model.EventCategoryFavorites
	case strings.Contains(msg, "upload") || strings.Contains(msg, "image"):
		return model.EventCategoryMedia
	case strings.Contains(msg, "block") || strings.Contains(msg, "page"):
		return model.EventCategoryBlocks
	case strings.Contains(msg, "save") || strings.Contains(msg, "editor"):
		return model.EventCategoryEditor
	case strings.Contains(msg, "list") || strings.Contains(msg, "pack") || strings.Contains(msg, "delete"):
		return model.EventCategoryCatalog
	default:
		return model.EventCategorySystem
	}
}

func metadata(attrs []slog.Attr) string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		if a.Key == CategoryKey {
			continue
		}
		m[a.Key] = a.Value.String()
	}
	if len(m) == 0 {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}
