package cachestore

import (
	"context"
	"fmt"
)

// PutEpisodes atomically replaces the cached episode list for a series.
func (s *Store) PutEpisodes(ctx context.Context, provider, seriesID string, episodes []Episode) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin episodes tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM episodes WHERE provider = ? AND series_id = ?", provider, seriesID,
	); err != nil {
		return fmt.Errorf("clear episodes: %w", err)
	}
	for _, ep := range episodes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO episodes (provider, series_id, season, episode, title, air_date, metadata, fetched_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			provider, seriesID, ep.Season, ep.Episode, ep.Title,
			nullableString(ep.AirDate), nullableString(ep.Metadata), formatTime(ep.FetchedAt),
		); err != nil {
			return fmt.Errorf("insert episode s%02de%02d: %w", ep.Season, ep.Episode, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit episodes: %w", err)
	}
	return nil
}

// GetEpisodes returns the cached episode list for a series ordered by
// (season, episode). An empty result is not an error.
func (s *Store) GetEpisodes(ctx context.Context, provider, seriesID string) ([]Episode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT provider, series_id, season, episode, title,
                COALESCE(air_date, ''), COALESCE(metadata, ''), fetched_at
         FROM episodes WHERE provider = ? AND series_id = ?
         ORDER BY season, episode`,
		provider, seriesID,
	)
	if err != nil {
		return nil, fmt.Errorf("get episodes: %w", err)
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		var ep Episode
		var fetchedAt string
		if err := rows.Scan(
			&ep.Provider, &ep.SeriesID, &ep.Season, &ep.Episode,
			&ep.Title, &ep.AirDate, &ep.Metadata, &fetchedAt,
		); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		ep.FetchedAt = parseTime(fetchedAt)
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}

// PutTracks atomically replaces the cached track list for an album.
func (s *Store) PutTracks(ctx context.Context, provider, albumID string, tracks []Track) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tracks tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM tracks WHERE provider = ? AND album_id = ?", provider, albumID,
	); err != nil {
		return fmt.Errorf("clear tracks: %w", err)
	}
	for _, track := range tracks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tracks (provider, album_id, disc, track, title, metadata, fetched_at)
             VALUES (?, ?, ?, ?, ?, ?, ?)`,
			provider, albumID, track.Disc, track.Track, track.Title,
			nullableString(track.Metadata), formatTime(track.FetchedAt),
		); err != nil {
			return fmt.Errorf("insert track d%02dt%02d: %w", track.Disc, track.Track, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tracks: %w", err)
	}
	return nil
}

// GetTracks returns the cached track list for an album ordered by (disc, track).
func (s *Store) GetTracks(ctx context.Context, provider, albumID string) ([]Track, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT provider, album_id, disc, track, title, COALESCE(metadata, ''), fetched_at
         FROM tracks WHERE provider = ? AND album_id = ?
         ORDER BY disc, track`,
		provider, albumID,
	)
	if err != nil {
		return nil, fmt.Errorf("get tracks: %w", err)
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		var track Track
		var fetchedAt string
		if err := rows.Scan(
			&track.Provider, &track.AlbumID, &track.Disc, &track.Track,
			&track.Title, &track.Metadata, &fetchedAt,
		); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		track.FetchedAt = parseTime(fetchedAt)
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}
