package cachestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PutCacheBlob stores an opaque provider response under key with the given TTL.
func (s *Store) PutCacheBlob(ctx context.Context, provider, key string, data []byte, ttl time.Duration) error {
	now := float64(time.Now().UnixNano()) / float64(time.Second)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache_entries (cache_key, provider, data, expires_at, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		key, provider, string(data), now+ttl.Seconds(), now,
	)
	if err != nil {
		return fmt.Errorf("put cache blob: %w", err)
	}
	return nil
}

// GetCacheBlob fetches a cached blob. Expired blobs are returned with
// Stale=true so the caller may serve them while refreshing; they are never
// authoritative.
func (s *Store) GetCacheBlob(ctx context.Context, provider, key string) (*Blob, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT cache_key, provider, data, expires_at, created_at
         FROM cache_entries WHERE cache_key = ? AND provider = ?`,
		key, provider,
	)
	var blob Blob
	var data string
	var expiresAt, createdAt float64
	if err := row.Scan(&blob.Key, &blob.Provider, &data, &expiresAt, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.misses.Add(1)
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get cache blob: %w", err)
	}
	blob.Data = []byte(data)
	blob.ExpiresAt = unixFloatTime(expiresAt)
	blob.CreatedAt = unixFloatTime(createdAt)
	blob.Stale = !time.Now().Before(blob.ExpiresAt)
	s.hits.Add(1)
	return &blob, nil
}

// EvictCacheBlob removes a blob; used when a cached payload fails to parse.
func (s *Store) EvictCacheBlob(ctx context.Context, provider, key string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE cache_key = ? AND provider = ?", key, provider,
	); err != nil {
		return fmt.Errorf("evict cache blob: %w", err)
	}
	return nil
}

// CleanupExpired removes expired cache blobs and returns how many were removed.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	now := float64(time.Now().UnixNano()) / float64(time.Second)
	res, err := s.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE expires_at <= ?", now)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired: %w", err)
	}
	return res.RowsAffected()
}

// ClearBlobs removes every cached blob.
func (s *Store) ClearBlobs(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM cache_entries"); err != nil {
		return fmt.Errorf("clear cache blobs: %w", err)
	}
	return nil
}

func unixFloatTime(value float64) time.Time {
	sec := int64(value)
	nsec := int64((value - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}
