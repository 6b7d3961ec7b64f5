package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Audit actions.
const (
	AuditLoginFailed         = "LOGIN_FAILED"
	AuditAccountCreated      = "ACCOUNT_CREATED"
	AuditPasswordChanged     = "PASSWORD_CHANGED"
	AuditAccountDeleted      = "ACCOUNT_DELETED"
	AuditPublishUnauthorized = "PUBLISH_UNAUTHORIZED"
)

// RecordAudit appends an entry to the audit log.
func (s *SQLStore) RecordAudit(ctx context.Context, e AuditEntry) error {
	var userID any
	if e.UserID != nil {
		userID = *e.UserID
	}
	_, err := s.db.ExecContext(ctx, s.q(
		"INSERT INTO audit_log (action, ip_address, user_id, created_at) VALUES (?, ?, ?, ?)"),
		e.Action, e.IPAddress, userID, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// ListAudit returns the newest audit entries first.
func (s *SQLStore) ListAudit(ctx context.Context, limit int) ([]AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		"SELECT id, action, ip_address, user_id, created_at FROM audit_log ORDER BY created_at DESC, id DESC LIMIT ?"),
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var userID sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Action, &e.IPAddress, &userID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if userID.Valid {
			id := userID.Int64
			e.UserID = &id
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
