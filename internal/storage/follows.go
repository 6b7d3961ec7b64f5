package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ToggleFollow removes the (followerID, followingID) edge if present and
// creates it otherwise. Returns whether the edge exists afterwards.
func (s *SQLStore) ToggleFollow(ctx context.Context, followerID, followingID int64, at time.Time) (bool, error) {
	var following bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.q(
			"DELETE FROM follows WHERE follower_id = ? AND following_id = ?"), followerID, followingID)
		if err != nil {
			return fmt.Errorf("failed to unfollow: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to unfollow: %w", err)
		}
		if n > 0 {
			following = false
			return nil
		}

		if _, err := tx.ExecContext(ctx, s.q(
			`INSERT INTO follows (follower_id, following_id, created_at) VALUES (?, ?, ?)
			 ON CONFLICT (follower_id, following_id) DO NOTHING`),
			followerID, followingID, at.UTC()); err != nil {
			return fmt.Errorf("failed to follow: %w", err)
		}
		following = true
		return nil
	})
	return following, err
}

// IsFollowing reports whether followerID follows followingID.
func (s *SQLStore) IsFollowing(ctx context.Context, followerID, followingID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.q(
		"SELECT COUNT(*) FROM follows WHERE follower_id = ? AND following_id = ?"),
		followerID, followingID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return n > 0, nil
}

// FollowersOf returns every follow edge whose author has a PUBLISHED
// print with published_at >= since. The author set stays in SQL, so a
// busy day never grows the bound parameter list.
func (s *SQLStore) FollowersOf(ctx context.Context, since time.Time) ([]Follow, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		"SELECT follower_id, following_id FROM follows WHERE following_id IN "+
			"(SELECT author_id FROM prints WHERE status = ? AND published_at >= ?) "+
			"ORDER BY follower_id, following_id"),
		StatusPublished, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get followers: %w", err)
	}
	defer rows.Close()

	var follows []Follow
	for rows.Next() {
		var f Follow
		if err := rows.Scan(&f.FollowerID, &f.FollowingID); err != nil {
			return nil, fmt.Errorf("failed to scan follow: %w", err)
		}
		follows = append(follows, f)
	}
	return follows, rows.Err()
}
