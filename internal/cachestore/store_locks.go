package cachestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrLockHeld is returned when a lock is already held by a live owner.
var ErrLockHeld = errors.New("cachestore: lock held")

// AcquireLock takes the named advisory lock for owner. A row older than
// staleAfter is treated as orphaned and reclaimed.
func (s *Store) AcquireLock(ctx context.Context, name, owner string, staleAfter time.Duration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin lock tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		"SELECT owner, acquired_at FROM locks WHERE name = ?", name,
	)
	var holder, acquiredAt string
	err = row.Scan(&holder, &acquiredAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// free
	case err != nil:
		return fmt.Errorf("read lock: %w", err)
	default:
		if holder != owner && time.Since(parseTime(acquiredAt)) < staleAfter {
			return ErrLockHeld
		}
		// Re-entrant for the same owner; orphaned rows are reclaimed.
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO locks (name, owner, acquired_at) VALUES (?, ?, ?)",
		name, owner, formatTime(time.Now()),
	); err != nil {
		return fmt.Errorf("write lock: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit lock: %w", err)
	}
	return nil
}

// ReleaseLock releases the named lock if held by owner. Releasing a lock that
// is not held is not an error.
func (s *Store) ReleaseLock(ctx context.Context, name, owner string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM locks WHERE name = ? AND owner = ?", name, owner,
	); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// LockHolder returns the current holder of a lock, or ErrNotFound.
func (s *Store) LockHolder(ctx context.Context, name string) (*LockInfo, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT name, owner, acquired_at FROM locks WHERE name = ?", name,
	)
	var info LockInfo
	var acquiredAt string
	if err := row.Scan(&info.Name, &info.Owner, &acquiredAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read lock holder: %w", err)
	}
	info.AcquiredAt = parseTime(acquiredAt)
	return &info, nil
}
