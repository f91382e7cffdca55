package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"datalens/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// CacheStore implements ports.KeyValueStore on PostgreSQL, for
// deployments where the cache must be shared across processes instead of
// embedded. Same contract as the badger store: opaque values keyed by
// string, last-writer-wins.
type CacheStore struct {
	db *sqlx.DB
}

// Open connects to Postgres and ensures the cache table exists.
func Open(url string) (*CacheStore, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS cache_entries (
			key        TEXT PRIMARY KEY,
			value      BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}
	return &CacheStore{db: db}, nil
}

// Get returns the value for key, ok=false when absent.
func (s *CacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.GetContext(ctx, &value, `
		SELECT value FROM cache_entries WHERE key = $1
	`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Put upserts a value; the replacement is wholesale.
func (s *CacheStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = NOW()
	`, key, value)
	return err
}

// Delete removes a key; deleting an absent key is not an error.
func (s *CacheStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = $1`, key)
	return err
}

// Keys lists all stored keys for tag scans and cleanup.
func (s *CacheStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.db.SelectContext(ctx, &keys, `SELECT key FROM cache_entries`)
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Close releases the connection pool.
func (s *CacheStore) Close() error {
	return s.db.Close()
}

var _ ports.KeyValueStore = (*CacheStore)(nil)
