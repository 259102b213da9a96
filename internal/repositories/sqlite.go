package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/pathfinder/internal/shared"
)

// SQLiteStore implements [Store] over the kv_store table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps a migrated database connection.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const upsertKV = `
	INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
`

// Get returns the value stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv_store WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrKeyNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertKV, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

const upsertKVIf = `
	INSERT INTO kv_store (key, value, updated_at)
	SELECT ?, ?, ? WHERE EXISTS (SELECT 1 FROM kv_store WHERE key = ? AND value = ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
`

// SetIf stores value under key in a single statement guarded by guardKey holding guard.
func (s *SQLiteStore) SetIf(ctx context.Context, key string, value []byte, guardKey string, guard []byte) error {
	result, err := s.db.ExecContext(ctx, upsertKVIf, key, value, time.Now(), guardKey, guard)
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrKeyChanged, guardKey)
	}
	return nil
}

// Update runs fn inside a single transaction.
func (s *SQLiteStore) Update(ctx context.Context, fn func(Writer) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqliteWriter{ctx: ctx, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type sqliteWriter struct {
	ctx context.Context
	tx  *sql.Tx
}

func (w *sqliteWriter) Set(key string, value []byte) error {
	if _, err := w.tx.ExecContext(w.ctx, upsertKV, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

func (w *sqliteWriter) Delete(keys ...string) error {
	for _, key := range keys {
		if _, err := w.tx.ExecContext(w.ctx, "DELETE FROM kv_store WHERE key = ?", key); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", key, err)
		}
	}
	return nil
}
