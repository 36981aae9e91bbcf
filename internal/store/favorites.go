// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
)

// AddFavorite inserts the (viewer, item) edge. Inserting an existing edge is a no-op.
// A missing item yields ErrNotFound.
func (q *Queries) AddFavorite(ctx context.Context, viewerID string, itemID int64) error {
	var exists bool
	err := q.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM items WHERE id = ?)`, itemID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("adding favorite %s/%d: %w", viewerID, itemID, err)
	}
	if !exists {
		return fmt.Errorf("adding favorite %s/%d: item %w", viewerID, itemID, ErrNotFound)
	}

	_, err = q.db.ExecContext(ctx,
		`INSERT INTO favorites (viewer_id, item_id) VALUES (?, ?) ON CONFLICT(viewer_id, item_id) DO NOTHING`,
		viewerID, itemID)
	if err != nil {
		return fmt.Errorf("adding favorite %s/%d: %w", viewerID, itemID, err)
	}
	return nil
}

// RemoveFavorite deletes the (viewer, item) edge. Removing a missing edge is a no-op.
func (q *Queries) RemoveFavorite(ctx context.Context, viewerID string, itemID int64) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE viewer_id = ? AND item_id = ?`,
		viewerID, itemID)
	if err != nil {
		return fmt.Errorf("removing favorite %s/%d: %w", viewerID, itemID, err)
	}
	return nil
}

// ListFavorites returns the item ids the viewer favorites, ascending.
func (q *Queries) ListFavorites(ctx context.Context, viewerID string) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT item_id FROM favorites WHERE viewer_id = ? ORDER BY item_id ASC`, viewerID)
	if err != nil {
		return nil, fmt.Errorf("listing favorites of %s: %w", viewerID, err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountFavoriteEdges returns how many edges exist for the (viewer, item) pair.
func (q *Queries) CountFavoriteEdges(ctx context.Context, viewerID string, itemID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE viewer_id = ? AND item_id = ?`,
		viewerID, itemID).Scan(&n)
	return n, err
}
