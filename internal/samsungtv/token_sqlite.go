package samsungtv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// sqlStore is the subset of *sql.DB used by SQLiteTokenStore.
type sqlStore interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteTokenStore keeps tokens in the tv_tokens table, one row per
// endpoint key. The table is created by the tv_tokens migration.
type SQLiteTokenStore struct {
	db     sqlStore
	key    string
	logger Logger
}

// NewSQLiteTokenStore returns a store for the endpoint identified by key,
// usually the TV host.
func NewSQLiteTokenStore(db sqlStore, key string, logger Logger) *SQLiteTokenStore {
	return &SQLiteTokenStore{db: db, key: key, logger: orNop(logger)}
}

// Load returns the endpoint's token row.
func (s *SQLiteTokenStore) Load(ctx context.Context) (string, bool) {
	var token string
	err := s.db.QueryRowContext(ctx,
		"SELECT token FROM tv_tokens WHERE endpoint = ?", s.key,
	).Scan(&token)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("reading token failed", "endpoint", s.key, "error", err)
		}
		return "", false
	}
	return token, token != ""
}

// Save upserts the endpoint's token row.
func (s *SQLiteTokenStore) Save(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tv_tokens (endpoint, token, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(endpoint) DO UPDATE SET
			token = excluded.token,
			updated_at = excluded.updated_at`,
		s.key, token, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		s.logger.Error("saving token failed", "endpoint", s.key, "error", err)
		return fmt.Errorf("%w: %w", ErrTokenPersist, err)
	}
	return nil
}
