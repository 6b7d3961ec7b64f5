package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const userColumns = "id, username, email, password_hash, display_name, bio, avatar_url, created_at"

// CreateUser inserts a new user. Returns ErrConflict when the username or
// email is already taken.
func (s *SQLStore) CreateUser(ctx context.Context, u *User) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.q(
		`INSERT INTO users (username, email, password_hash, display_name, bio, avatar_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING
		 RETURNING id`),
		u.Username, u.Email, u.PasswordHash, u.DisplayName, u.Bio, u.AvatarURL, u.CreatedAt.UTC(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// EnsureUser returns the ID of the user with u.Username, creating it from u
// when absent. Returns ErrConflict when the username is free but the email
// belongs to someone else.
func (s *SQLStore) EnsureUser(ctx context.Context, u *User) (int64, error) {
	_, err := s.db.ExecContext(ctx, s.q(
		`INSERT INTO users (username, email, password_hash, display_name, bio, avatar_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`),
		u.Username, u.Email, u.PasswordHash, u.DisplayName, u.Bio, u.AvatarURL, u.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to ensure user: %w", err)
	}

	existing, err := s.GetUserByUsername(ctx, u.Username)
	if errors.Is(err, ErrNotFound) {
		return 0, ErrConflict
	}
	if err != nil {
		return 0, err
	}
	return existing.ID, nil
}

// GetUser returns a user by ID.
func (s *SQLStore) GetUser(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, s.q("SELECT "+userColumns+" FROM users WHERE id = ?"), id)
	return scanUser(row)
}

// GetUserByUsername returns a user by exact username.
func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, s.q("SELECT "+userColumns+" FROM users WHERE username = ?"), username)
	return scanUser(row)
}

// GetUserByEmail returns a user by exact email.
func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, s.q("SELECT "+userColumns+" FROM users WHERE email = ?"), email)
	return scanUser(row)
}

// UpdateProfile rewrites the display fields of a user.
func (s *SQLStore) UpdateProfile(ctx context.Context, id int64, displayName, bio, avatarURL string) error {
	res, err := s.db.ExecContext(ctx, s.q(
		"UPDATE users SET display_name = ?, bio = ?, avatar_url = ? WHERE id = ?"),
		displayName, bio, avatarURL, id)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return requireRow(res, "update profile")
}

// UpdatePasswordHash replaces a user's credential hash.
func (s *SQLStore) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	res, err := s.db.ExecContext(ctx, s.q("UPDATE users SET password_hash = ? WHERE id = ?"), hash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return requireRow(res, "update password")
}

// ListUsersExcept returns every user other than the one named excludeUsername,
// in ID order.
func (s *SQLStore) ListUsersExcept(ctx context.Context, excludeUsername string) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		"SELECT "+userColumns+" FROM users WHERE username <> ? ORDER BY id"), excludeUsername)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Bio, &u.AvatarURL, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Bio, &u.AvatarURL, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// DeleteUser removes a user and everything that references it, in dependency
// order, inside one transaction: edition memberships, editions, likes and
// clips, follow edges in both directions, prints, then the user row.
func (s *SQLStore) DeleteUser(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		steps := []struct {
			name  string
			query string
			args  []any
		}{
			{"edition memberships",
				`DELETE FROM edition_prints
				 WHERE edition_id IN (SELECT id FROM editions WHERE user_id = ?)
				    OR print_id IN (SELECT id FROM prints WHERE author_id = ?)`,
				[]any{id, id}},
			{"editions", "DELETE FROM editions WHERE user_id = ?", []any{id}},
			{"likes",
				"DELETE FROM likes WHERE user_id = ? OR print_id IN (SELECT id FROM prints WHERE author_id = ?)",
				[]any{id, id}},
			{"clips",
				"DELETE FROM clips WHERE user_id = ? OR print_id IN (SELECT id FROM prints WHERE author_id = ?)",
				[]any{id, id}},
			{"follows", "DELETE FROM follows WHERE follower_id = ? OR following_id = ?", []any{id, id}},
			{"prints", "DELETE FROM prints WHERE author_id = ?", []any{id}},
		}
		for _, step := range steps {
			if _, err := tx.ExecContext(ctx, s.q(step.query), step.args...); err != nil {
				return fmt.Errorf("failed to delete %s: %w", step.name, err)
			}
		}

		res, err := tx.ExecContext(ctx, s.q("DELETE FROM users WHERE id = ?"), id)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
