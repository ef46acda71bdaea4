// Package postgres provides PostgreSQL persistence for remembered-session
// tokens, keyed by an installation identifier so several portal instances
// can share one database.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/careview/portal/pkg/token"
)

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store implements token.Store using PostgreSQL.
type Store struct {
	db           *sql.DB
	installation string
}

// New creates a PostgreSQL token store scoped to the given installation
// identifier.
func New(db *sql.DB, installation string) *Store {
	return &Store{db: db, installation: installation}
}

// Get returns the remembered token for this installation, or "" when none
// is stored.
func (s *Store) Get(ctx context.Context) (string, error) {
	query, args, err := psq.
		Select("token").
		From("remembered_sessions").
		Where(sq.Eq{"installation": s.installation}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("building query: %w", err)
	}

	var tok string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&tok)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying remembered session: %w", err)
	}
	return tok, nil
}

// Set replaces the remembered token for this installation.
func (s *Store) Set(ctx context.Context, tok string) error {
	query, args, err := psq.
		Insert("remembered_sessions").
		Columns("installation", "token", "updated_at").
		Values(s.installation, tok, time.Now()).
		Suffix("ON CONFLICT (installation) DO UPDATE SET token = EXCLUDED.token, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("storing remembered session: %w", err)
	}
	return nil
}

// Clear forgets the remembered token for this installation. Clearing when
// no row exists is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	query, args, err := psq.
		Delete("remembered_sessions").
		Where(sq.Eq{"installation": s.installation}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clearing remembered session: %w", err)
	}
	return nil
}

// Verify interface compliance.
var _ token.Store = (*Store)(nil)
