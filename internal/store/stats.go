package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Stats holds table counts and enrichment coverage.
type Stats struct {
	Scrobbles         int
	Artists           int
	Albums            int
	Compilations      int
	Tracklists        int
	AlbumArt          int
	WikipediaFound    int
	WikipediaNotFound int
	WithYear          int
	LastPlayedAt      int64
}

// Stats returns a snapshot of table counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var (
		st   Stats
		last sql.NullInt64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT artist), MAX(uts)
		FROM scrobble
	`).Scan(&st.Scrobbles, &st.Artists, &last)
	if err != nil {
		return st, fmt.Errorf("failed to query scrobble stats: %w", err)
	}
	st.LastPlayedAt = last.Int64

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(album_artist = ?), 0)
		FROM (SELECT DISTINCT album, album_artist FROM scrobble WHERE album != '')
	`, VariousArtists).Scan(&st.Albums, &st.Compilations)
	if err != nil {
		return st, fmt.Errorf("failed to query album stats: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM (SELECT DISTINCT artist, album FROM album_tracks)
	`).Scan(&st.Tracklists)
	if err != nil {
		return st, fmt.Errorf("failed to query tracklist stats: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(wikipedia_url IS NOT NULL AND wikipedia_url != ?), 0),
		       COALESCE(SUM(wikipedia_url = ?), 0),
		       COALESCE(SUM(year_col IS NOT NULL), 0)
		FROM album_art
	`, WikipediaNotFound, WikipediaNotFound).Scan(
		&st.AlbumArt, &st.WikipediaFound, &st.WikipediaNotFound, &st.WithYear)
	if err != nil {
		return st, fmt.Errorf("failed to query album art stats: %w", err)
	}

	return st, nil
}

// AlbumPlays is an album with its total play count.
type AlbumPlays struct {
	Artist string
	Album  string
	Plays  int
}

// TopAlbums returns the most played albums grouped by album artist.
func (s *Store) TopAlbums(ctx context.Context, limit int) ([]AlbumPlays, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(NULLIF(album_artist, ''), artist), album, COUNT(*) AS plays
		FROM scrobble
		WHERE album != ''
		GROUP BY 1, 2
		ORDER BY plays DESC, 1, 2
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top albums: %w", err)
	}
	defer rows.Close()

	var out []AlbumPlays
	for rows.Next() {
		var a AlbumPlays
		if err := rows.Scan(&a.Artist, &a.Album, &a.Plays); err != nil {
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating albums: %w", err)
	}
	return out, nil
}
