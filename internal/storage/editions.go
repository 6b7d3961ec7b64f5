package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertEdition returns the ID of the (userID, day) edition, creating it if
// absent. The UNIQUE(user_id, edition_date) constraint makes concurrent calls
// converge on one row.
func (s *SQLStore) UpsertEdition(ctx context.Context, userID int64, day Day, at time.Time) (int64, error) {
	if _, err := s.db.ExecContext(ctx, s.q(
		`INSERT INTO editions (user_id, edition_date, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, edition_date) DO NOTHING`),
		userID, string(day), at.UTC()); err != nil {
		return 0, fmt.Errorf("failed to upsert edition: %w", err)
	}

	var id int64
	err := s.db.QueryRowContext(ctx, s.q(
		"SELECT id FROM editions WHERE user_id = ? AND edition_date = ?"),
		userID, string(day)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to read upserted edition: %w", err)
	}
	return id, nil
}

// AddToEdition links printIDs into the edition, skipping pairs that already
// exist. Returns the number of memberships actually created.
func (s *SQLStore) AddToEdition(ctx context.Context, editionID int64, printIDs []int64, at time.Time) (int, error) {
	if len(printIDs) == 0 {
		return 0, nil
	}
	added := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.q(
			`INSERT INTO edition_prints (edition_id, print_id, added_at) VALUES (?, ?, ?)
			 ON CONFLICT (edition_id, print_id) DO NOTHING`))
		if err != nil {
			return fmt.Errorf("failed to prepare membership insert: %w", err)
		}
		defer stmt.Close()

		for _, printID := range printIDs {
			res, err := stmt.ExecContext(ctx, editionID, printID, at.UTC())
			if err != nil {
				return fmt.Errorf("failed to add print %d to edition %d: %w", printID, editionID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to add print %d to edition %d: %w", printID, editionID, err)
			}
			added += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// GetEdition returns the (userID, day) edition or ErrNotFound.
func (s *SQLStore) GetEdition(ctx context.Context, userID int64, day Day) (*Edition, error) {
	var e Edition
	var date string
	err := s.db.QueryRowContext(ctx, s.q(
		"SELECT id, user_id, edition_date, created_at FROM editions WHERE user_id = ? AND edition_date = ?"),
		userID, string(day)).Scan(&e.ID, &e.UserID, &date, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get edition: %w", err)
	}
	e.Date = Day(date)
	return &e, nil
}

// ListEditions returns userID's editions dated strictly after `after`, with
// membership counts, newest first. CreatedAt is not populated.
func (s *SQLStore) ListEditions(ctx context.Context, userID int64, after Day) ([]EditionSummary, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT e.id, e.user_id, e.edition_date, COUNT(ep.print_id)
		 FROM editions e
		 LEFT JOIN edition_prints ep ON ep.edition_id = e.id
		 WHERE e.user_id = ? AND e.edition_date > ?
		 GROUP BY e.id, e.user_id, e.edition_date
		 ORDER BY e.edition_date DESC`),
		userID, string(after))
	if err != nil {
		return nil, fmt.Errorf("failed to list editions: %w", err)
	}
	defer rows.Close()

	var editions []EditionSummary
	for rows.Next() {
		var es EditionSummary
		var date string
		if err := rows.Scan(&es.ID, &es.UserID, &date, &es.PrintCount); err != nil {
			return nil, fmt.Errorf("failed to scan edition: %w", err)
		}
		es.Date = Day(date)
		editions = append(editions, es)
	}
	return editions, rows.Err()
}

// EditionPrints returns the member prints of an edition with author
// summaries, in insertion order.
func (s *SQLStore) EditionPrints(ctx context.Context, editionID int64) ([]AuthoredPrint, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT p.id, p.author_id, p.title, p.content, p.images, p.status, p.created_at, p.published_at,
		        u.id, u.username, u.display_name, u.avatar_url
		 FROM edition_prints ep
		 JOIN prints p ON p.id = ep.print_id
		 JOIN users u ON u.id = p.author_id
		 WHERE ep.edition_id = ?
		 ORDER BY ep.added_at, p.id`),
		editionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get edition prints: %w", err)
	}
	defer rows.Close()
	return scanAuthoredPrints(rows)
}

// EditionPrintIDs returns the IDs of an edition's member prints, in ID order.
func (s *SQLStore) EditionPrintIDs(ctx context.Context, editionID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		"SELECT print_id FROM edition_prints WHERE edition_id = ? ORDER BY print_id"), editionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get edition print ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan print id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanAuthoredPrints(rows *sql.Rows) ([]AuthoredPrint, error) {
	var out []AuthoredPrint
	for rows.Next() {
		var ap AuthoredPrint
		var images string
		var publishedAt sql.NullTime
		if err := rows.Scan(
			&ap.ID, &ap.AuthorID, &ap.Title, &ap.Content, &images, &ap.Status, &ap.CreatedAt, &publishedAt,
			&ap.Author.ID, &ap.Author.Username, &ap.Author.DisplayName, &ap.Author.AvatarURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan print: %w", err)
		}
		decoded, err := decodeImages(images)
		if err != nil {
			return nil, err
		}
		ap.Images = decoded
		if publishedAt.Valid {
			t := publishedAt.Time
			ap.PublishedAt = &t
		}
		out = append(out, ap)
	}
	return out, rows.Err()
}
