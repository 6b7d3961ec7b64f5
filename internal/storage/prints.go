package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const printColumns = "id, author_id, title, content, images, status, created_at, published_at"

// CreatePrint inserts a print. Status defaults to PENDING; a PUBLISHED print
// must carry PublishedAt.
func (s *SQLStore) CreatePrint(ctx context.Context, p *Print) (int64, error) {
	images, err := encodeImages(p.Images)
	if err != nil {
		return 0, err
	}
	status := p.Status
	if status == "" {
		status = StatusPending
	}
	var publishedAt any
	if p.PublishedAt != nil {
		publishedAt = p.PublishedAt.UTC()
	}

	var id int64
	err = s.db.QueryRowContext(ctx, s.q(
		`INSERT INTO prints (author_id, title, content, images, status, created_at, published_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`),
		p.AuthorID, p.Title, p.Content, images, status, p.CreatedAt.UTC(), publishedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create print: %w", err)
	}
	return id, nil
}

// GetPrint returns a print by ID.
func (s *SQLStore) GetPrint(ctx context.Context, id int64) (*Print, error) {
	row := s.db.QueryRowContext(ctx, s.q("SELECT "+printColumns+" FROM prints WHERE id = ?"), id)
	return scanPrint(row)
}

// FindPrint returns the first print by authorID with exactly this title and
// content, or ErrNotFound.
func (s *SQLStore) FindPrint(ctx context.Context, authorID int64, title, content string) (*Print, error) {
	row := s.db.QueryRowContext(ctx, s.q(
		"SELECT "+printColumns+" FROM prints WHERE author_id = ? AND title = ? AND content = ? ORDER BY id LIMIT 1"),
		authorID, title, content)
	return scanPrint(row)
}

// ListPrints returns prints by authorID, newest first. An empty status
// matches every status.
func (s *SQLStore) ListPrints(ctx context.Context, authorID int64, status string) ([]Print, error) {
	query := "SELECT " + printColumns + " FROM prints WHERE author_id = ?"
	args := []any{authorID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list prints: %w", err)
	}
	defer rows.Close()

	var prints []Print
	for rows.Next() {
		p, err := scanPrintRow(rows)
		if err != nil {
			return nil, err
		}
		prints = append(prints, *p)
	}
	return prints, rows.Err()
}

// UpdatePendingPrint rewrites a print's editable fields. The PENDING check is
// part of the UPDATE, so a print published concurrently is left untouched and
// ErrNotFound is returned.
func (s *SQLStore) UpdatePendingPrint(ctx context.Context, id int64, title, content string, images []string) error {
	encoded, err := encodeImages(images)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.q(
		"UPDATE prints SET title = ?, content = ?, images = ? WHERE id = ? AND status = ?"),
		title, content, encoded, id, StatusPending)
	if err != nil {
		return fmt.Errorf("failed to update print: %w", err)
	}
	return requireRow(res, "update print")
}

// DeletePendingPrint removes a print only while it is still PENDING.
func (s *SQLStore) DeletePendingPrint(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.q("DELETE FROM prints WHERE id = ? AND status = ?"), id, StatusPending)
	if err != nil {
		return fmt.Errorf("failed to delete print: %w", err)
	}
	return requireRow(res, "delete print")
}

// PublishPending flips every PENDING print to PUBLISHED with published_at=at
// in a single statement and returns how many rows changed.
func (s *SQLStore) PublishPending(ctx context.Context, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.q(
		"UPDATE prints SET status = ?, published_at = ? WHERE status = ?"),
		StatusPublished, at.UTC(), StatusPending)
	if err != nil {
		return 0, fmt.Errorf("failed to publish pending prints: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to publish pending prints: %w", err)
	}
	return n, nil
}

// PublishedSince returns every PUBLISHED print with published_at >= since.
func (s *SQLStore) PublishedSince(ctx context.Context, since time.Time) ([]PrintRef, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		"SELECT id, author_id FROM prints WHERE status = ? AND published_at >= ? ORDER BY id"),
		StatusPublished, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get published prints: %w", err)
	}
	defer rows.Close()

	var refs []PrintRef
	for rows.Next() {
		var r PrintRef
		if err := rows.Scan(&r.ID, &r.AuthorID); err != nil {
			return nil, fmt.Errorf("failed to scan print: %w", err)
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// PublishedPrintIDs returns the IDs of PUBLISHED prints by authorID with the
// given title, in ID order.
func (s *SQLStore) PublishedPrintIDs(ctx context.Context, authorID int64, title string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		"SELECT id FROM prints WHERE author_id = ? AND title = ? AND status = ? ORDER BY id"),
		authorID, title, StatusPublished)
	if err != nil {
		return nil, fmt.Errorf("failed to get published prints: %w", err)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrint(row *sql.Row) (*Print, error) {
	p, err := scanPrintRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func scanPrintRow(row rowScanner) (*Print, error) {
	var p Print
	var images string
	var publishedAt sql.NullTime
	if err := row.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Content, &images, &p.Status, &p.CreatedAt, &publishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan print: %w", err)
	}
	decoded, err := decodeImages(images)
	if err != nil {
		return nil, err
	}
	p.Images = decoded
	if publishedAt.Valid {
		t := publishedAt.Time
		p.PublishedAt = &t
	}
	return &p, nil
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
