package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLTokenStore keeps the token in a one-row-per-key table.
type SQLTokenStore struct {
	db  *sqlx.DB
	key string
	now func() time.Time
}

// NewSQLTokenStore constructs a SQL-backed token store.
func NewSQLTokenStore(db *sqlx.DB, key string) *SQLTokenStore {
	return &SQLTokenStore{db: db, key: key, now: time.Now}
}

// EnsureSchema creates the token table when it is missing.
func (s *SQLTokenStore) EnsureSchema(ctx context.Context) error {
	const query = `CREATE TABLE IF NOT EXISTS client_tokens (key TEXT PRIMARY KEY, token TEXT NOT NULL, updated_at TIMESTAMPTZ NOT NULL)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure token schema: %w", err)
	}
	return nil
}

// Load reads the stored token.
func (s *SQLTokenStore) Load(ctx context.Context) (string, error) {
	const query = `SELECT token FROM client_tokens WHERE key = $1 LIMIT 1`
	var token string
	if err := s.db.GetContext(ctx, &token, query, s.key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

// Save replaces the stored token.
func (s *SQLTokenStore) Save(ctx context.Context, token string) error {
	const query = `INSERT INTO client_tokens (key, token, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET token = EXCLUDED.token, updated_at = EXCLUDED.updated_at`
	if _, err := s.db.ExecContext(ctx, query, s.key, token, s.now().UTC()); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Clear deletes the stored token.
func (s *SQLTokenStore) Clear(ctx context.Context) error {
	const query = `DELETE FROM client_tokens WHERE key = $1`
	if _, err := s.db.ExecContext(ctx, query, s.key); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}
