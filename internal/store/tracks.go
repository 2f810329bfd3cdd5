package store

import (
	"context"
	"fmt"
)

// CanonicalTrack is one entry of an album's reference tracklist.
type CanonicalTrack struct {
	Artist string
	Album  string
	Track  string
	Number int
}

// ReplaceAlbumTracks atomically replaces the tracklist of (artist, album).
// The Artist and Album fields of tracks are ignored.
func (s *Store) ReplaceAlbumTracks(ctx context.Context, artist, album string, tracks []CanonicalTrack) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM album_tracks WHERE artist = ? AND album = ?", artist, album); err != nil {
		return fmt.Errorf("failed to clear album tracks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO album_tracks (artist, album, track, track_number)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, t := range tracks {
		if _, err := stmt.ExecContext(ctx, artist, album, t.Track, t.Number); err != nil {
			return fmt.Errorf("failed to insert album track: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// AlbumTracks returns the stored tracklist of (artist, album) ordered by
// track number. It returns an empty slice when none is stored.
func (s *Store) AlbumTracks(ctx context.Context, artist, album string) ([]CanonicalTrack, error) {
	return s.queryTracks(ctx, `
		SELECT artist, album, track, track_number
		FROM album_tracks
		WHERE artist = ? AND album = ?
		ORDER BY track_number
	`, artist, album)
}

// AllAlbumTracks returns every stored tracklist entry.
func (s *Store) AllAlbumTracks(ctx context.Context) ([]CanonicalTrack, error) {
	return s.queryTracks(ctx, `
		SELECT artist, album, track, track_number
		FROM album_tracks
		ORDER BY artist, album, track_number
	`)
}

func (s *Store) queryTracks(ctx context.Context, query string, args ...any) ([]CanonicalTrack, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query album tracks: %w", err)
	}
	defer rows.Close()

	tracks := []CanonicalTrack{}
	for rows.Next() {
		var t CanonicalTrack
		if err := rows.Scan(&t.Artist, &t.Album, &t.Track, &t.Number); err != nil {
			return nil, fmt.Errorf("failed to scan album track: %w", err)
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating album tracks: %w", err)
	}

	return tracks, nil
}

// HasAlbumTracks reports whether a tracklist is stored for (artist, album).
func (s *Store) HasAlbumTracks(ctx context.Context, artist, album string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM album_tracks WHERE artist = ? AND album = ?)
	`, artist, album).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check album tracks: %w", err)
	}
	return exists, nil
}
