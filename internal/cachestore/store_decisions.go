package cachestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PutDecision persists a disambiguation choice. Decisions never expire
// implicitly; the caller enforces retention policy.
func (s *Store) PutDecision(ctx context.Context, decision Decision) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO decisions (scope, title_norm, year, provider, ext_id, decided_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		decision.Scope, decision.TitleNorm, decision.Year,
		decision.Provider, decision.ExtID, formatTime(decision.DecidedAt),
	)
	if err != nil {
		return fmt.Errorf("put decision: %w", err)
	}
	return nil
}

// GetDecision looks up a pinned (provider, ext_id) for (scope, title_norm, year).
// Year falls back to YearUnknown when no exact-year decision exists.
func (s *Store) GetDecision(ctx context.Context, scope, titleNorm string, year int) (*Decision, error) {
	decision, err := s.getDecisionExact(ctx, scope, titleNorm, year)
	if err == nil {
		return decision, nil
	}
	if !errors.Is(err, ErrNotFound) || year == YearUnknown {
		return nil, err
	}
	return s.getDecisionExact(ctx, scope, titleNorm, YearUnknown)
}

func (s *Store) getDecisionExact(ctx context.Context, scope, titleNorm string, year int) (*Decision, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT scope, title_norm, year, provider, ext_id, decided_at
         FROM decisions WHERE scope = ? AND title_norm = ? AND year = ?`,
		scope, titleNorm, year,
	)
	var decision Decision
	var decidedAt string
	if err := row.Scan(
		&decision.Scope, &decision.TitleNorm, &decision.Year,
		&decision.Provider, &decision.ExtID, &decidedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get decision: %w", err)
	}
	decision.DecidedAt = parseTime(decidedAt)
	return &decision, nil
}
