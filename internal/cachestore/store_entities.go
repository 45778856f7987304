package cachestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PutEntity inserts or replaces a provider entity row.
func (s *Store) PutEntity(ctx context.Context, entity Entity) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO entities
            (provider, entity_type, ext_id, title, title_norm, year, metadata, fetched_at, ttl_seconds)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entity.Provider,
		entity.EntityType,
		entity.ExtID,
		entity.Title,
		entity.TitleNorm,
		entity.Year,
		nullableString(entity.Metadata),
		formatTime(entity.FetchedAt),
		int64(entity.TTL/time.Second),
	)
	if err != nil {
		return fmt.Errorf("put entity: %w", err)
	}
	return nil
}

// GetEntity fetches a provider entity and reports whether its TTL lapsed.
func (s *Store) GetEntity(ctx context.Context, provider, entityType, extID string) (*Entity, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT provider, entity_type, ext_id, title, title_norm, year,
                COALESCE(metadata, ''), fetched_at, ttl_seconds
         FROM entities WHERE provider = ? AND entity_type = ? AND ext_id = ?`,
		provider, entityType, extID,
	)
	entity, err := scanEntity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, ErrNotFound
		}
		return nil, false, fmt.Errorf("get entity: %w", err)
	}
	return entity, entity.Expired(time.Now()), nil
}

// FindEntitiesByTitle returns entities of the given type matching the
// normalized title; year filtering uses YearUnknown to mean "any".
func (s *Store) FindEntitiesByTitle(ctx context.Context, entityType, titleNorm string, year int) ([]Entity, error) {
	query := `SELECT provider, entity_type, ext_id, title, title_norm, year,
                     COALESCE(metadata, ''), fetched_at, ttl_seconds
              FROM entities WHERE entity_type = ? AND title_norm = ?`
	args := []any{entityType, titleNorm}
	if year != YearUnknown {
		query += " AND year = ?"
		args = append(args, year)
	}
	query += " ORDER BY provider, ext_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find entities: %w", err)
	}
	defer rows.Close()

	var entities []Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		entities = append(entities, *entity)
	}
	return entities, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*Entity, error) {
	var entity Entity
	var fetchedAt string
	var ttlSeconds int64
	if err := row.Scan(
		&entity.Provider, &entity.EntityType, &entity.ExtID,
		&entity.Title, &entity.TitleNorm, &entity.Year,
		&entity.Metadata, &fetchedAt, &ttlSeconds,
	); err != nil {
		return nil, err
	}
	entity.FetchedAt = parseTime(fetchedAt)
	entity.TTL = time.Duration(ttlSeconds) * time.Second
	return &entity, nil
}
