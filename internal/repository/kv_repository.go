package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// KVRepository persists opaque values under string keys in the on-device
// SQLite file.
type KVRepository struct {
	db *sqlx.DB
}

// NewKVRepository constructs the repository.
func NewKVRepository(db *sqlx.DB) *KVRepository {
	return &KVRepository{db: db}
}

// Migrate creates the backing table when missing.
func (r *KVRepository) Migrate(ctx context.Context) error {
	const query = `CREATE TABLE IF NOT EXISTS kv_records (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("migrate kv_records: %w", err)
	}
	return nil
}

// Get returns the value stored under key. The boolean is false when the
// key has never been written.
func (r *KVRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	const query = `SELECT value FROM kv_records WHERE key = ?`
	var value string
	if err := r.db.GetContext(ctx, &value, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get kv %s: %w", key, err)
	}
	return []byte(value), true, nil
}

// Put stores value under key, replacing any previous value.
func (r *KVRepository) Put(ctx context.Context, key string, value []byte) error {
	const query = `INSERT INTO kv_records (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query, key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("put kv %s: %w", key, err)
	}
	return nil
}

// Delete removes key if present.
func (r *KVRepository) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM kv_records WHERE key = ?`
	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete kv %s: %w", key, err)
	}
	return nil
}
