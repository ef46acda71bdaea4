// Package postgres provides PostgreSQL storage for the auth audit trail.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"

	"github.com/careview/portal/pkg/audit"
)

const defaultQueryLimit = 100

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// auditColumns lists columns returned by audit SELECT queries.
var auditColumns = []string{
	"id", "timestamp", "action", "email", "user_id", "role", "success", "detail",
}

// Store implements audit.Logger using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Log records an audit event. Insert failures are logged and swallowed;
// the auth path never fails because the audit trail is unavailable.
func (s *Store) Log(ctx context.Context, event audit.Event) {
	query, args, err := psq.
		Insert("auth_audit").
		Columns(auditColumns...).
		Values(
			event.ID,
			event.Timestamp,
			string(event.Action),
			event.Email,
			event.UserID,
			event.Role,
			event.Success,
			event.Detail,
		).
		ToSql()
	if err != nil {
		slog.Error("audit: building insert", "error", err)
		return
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		slog.Error("audit: recording event", "error", err, "action", string(event.Action))
	}
}

// Recent returns the most recent audit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	query, args, err := psq.
		Select(auditColumns...).
		From("auth_audit").
		OrderBy("timestamp DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []audit.Event
	for rows.Next() {
		var e audit.Event
		var action string
		if err := rows.Scan(&e.ID, &e.Timestamp, &action, &e.Email, &e.UserID, &e.Role, &e.Success, &e.Detail); err != nil {
			return nil, fmt.Errorf("scanning audit event: %w", err)
		}
		e.Action = audit.Action(action)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Verify interface compliance.
var _ audit.Logger = (*Store)(nil)
