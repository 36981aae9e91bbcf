// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the packstudio project.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/olegiv/packstudio/internal/model"
	"github.com/olegiv/packstudio/internal/store"
)

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a completely silent test logger (error level only).
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// TestDB creates a temporary file-backed test database with migrations applied
// and the settings singleton seeded. The database is closed when the test ends.
func TestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "packstudio-test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	prepare(t, db)
	return db
}

// MemoryDB creates an in-memory database through the cgo sqlite3 driver.
// The pool is pinned to one connection so every query sees the same database.
func MemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	prepare(t, db)
	return db
}

func prepare(t *testing.T, db *sql.DB) {
	t.Helper()
	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := store.Seed(context.Background(), db, false); err != nil {
		t.Fatalf("Seed: %v", err)
	}
}

// MustUpsert saves rec into the named collection or fails the test.
func MustUpsert(t *testing.T, q *store.Queries, collection string, rec model.Record) model.Record {
	t.Helper()
	c, err := q.Collection(collection)
	if err != nil {
		t.Fatalf("Collection(%q): %v", collection, err)
	}
	saved, err := c.Upsert(context.Background(), rec)
	if err != nil {
		t.Fatalf("Upsert into %s: %v", collection, err)
	}
	return saved
}
