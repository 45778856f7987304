package cachestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PutKV stores an arbitrary value under key. Used for pending
// disambiguation state and plan artifacts awaiting apply.
func (s *Store) PutKV(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, ?)",
		key, value, formatTime(time.Now()),
	); err != nil {
		return fmt.Errorf("put kv %s: %w", key, err)
	}
	return nil
}

// GetKV fetches a value by key, or ErrNotFound.
func (s *Store) GetKV(ctx context.Context, key string) (string, error) {
	row := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key)
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get kv %s: %w", key, err)
	}
	return value, nil
}

// DeleteKV removes a key. Deleting an absent key is not an error.
func (s *Store) DeleteKV(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete kv %s: %w", key, err)
	}
	return nil
}
