package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ToggleLike likes or unlikes printID for userID. Returns the new state.
func (s *SQLStore) ToggleLike(ctx context.Context, userID, printID int64, at time.Time) (bool, error) {
	return s.toggleJoin(ctx, "likes", userID, printID, at)
}

// ToggleClip clips or unclips printID for userID. Returns the new state.
func (s *SQLStore) ToggleClip(ctx context.Context, userID, printID int64, at time.Time) (bool, error) {
	return s.toggleJoin(ctx, "clips", userID, printID, at)
}

// table is one of the fixed join tables above, never caller input.
func (s *SQLStore) toggleJoin(ctx context.Context, table string, userID, printID int64, at time.Time) (bool, error) {
	var on bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.q(
			"DELETE FROM "+table+" WHERE user_id = ? AND print_id = ?"), userID, printID)
		if err != nil {
			return fmt.Errorf("failed to toggle %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to toggle %s: %w", table, err)
		}
		if n > 0 {
			on = false
			return nil
		}
		if _, err := tx.ExecContext(ctx, s.q(
			"INSERT INTO "+table+" (user_id, print_id, created_at) VALUES (?, ?, ?) ON CONFLICT (user_id, print_id) DO NOTHING"),
			userID, printID, at.UTC()); err != nil {
			return fmt.Errorf("failed to toggle %s: %w", table, err)
		}
		on = true
		return nil
	})
	return on, err
}

// CountLikes returns the number of likes on printID.
func (s *SQLStore) CountLikes(ctx context.Context, printID int64) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.q("SELECT COUNT(*) FROM likes WHERE print_id = ?"), printID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return n, nil
}

// ListClippings returns the prints userID clipped, most recent clip first.
func (s *SQLStore) ListClippings(ctx context.Context, userID int64) ([]AuthoredPrint, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT p.id, p.author_id, p.title, p.content, p.images, p.status, p.created_at, p.published_at,
		        u.id, u.username, u.display_name, u.avatar_url
		 FROM clips c
		 JOIN prints p ON p.id = c.print_id
		 JOIN users u ON u.id = p.author_id
		 WHERE c.user_id = ?
		 ORDER BY c.created_at DESC, p.id DESC`),
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clippings: %w", err)
	}
	defer rows.Close()
	return scanAuthoredPrints(rows)
}
