package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// AlbumArt is the metadata row for one (artist, album). Empty strings and
// zero numbers are stored as NULL and never overwrite a stored value.
type AlbumArt struct {
	Artist       string
	Album        string
	AlbumMBID    string
	ArtistMBID   string
	ImageSmall   string
	ImageMedium  string
	ImageLarge   string
	ImageXLarge  string
	LastUpdated  int64
	Year         int
	WikipediaURL string
}

// HasImage reports whether any image size is set.
func (a AlbumArt) HasImage() bool {
	return a.ImageSmall != "" || a.ImageMedium != "" || a.ImageLarge != "" || a.ImageXLarge != ""
}

// BestImage returns the largest available image.
func (a AlbumArt) BestImage() string {
	for _, u := range []string{a.ImageXLarge, a.ImageLarge, a.ImageMedium, a.ImageSmall} {
		if u != "" {
			return u
		}
	}
	return ""
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const upsertAlbumArtSQL = `
	INSERT INTO album_art (
		artist, album, album_mbid, artist_mbid,
		image_small, image_medium, image_large, image_xlarge,
		last_updated, year_col, wikipedia_url
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(artist, album) DO UPDATE SET
		album_mbid    = COALESCE(excluded.album_mbid, album_art.album_mbid),
		artist_mbid   = COALESCE(excluded.artist_mbid, album_art.artist_mbid),
		image_small   = COALESCE(excluded.image_small, album_art.image_small),
		image_medium  = COALESCE(excluded.image_medium, album_art.image_medium),
		image_large   = COALESCE(excluded.image_large, album_art.image_large),
		image_xlarge  = COALESCE(excluded.image_xlarge, album_art.image_xlarge),
		last_updated  = COALESCE(excluded.last_updated, album_art.last_updated),
		year_col      = COALESCE(excluded.year_col, album_art.year_col),
		wikipedia_url = COALESCE(excluded.wikipedia_url, album_art.wikipedia_url)
`

func (s *Store) upsertAlbumArt(ctx context.Context, ex execer, a AlbumArt) error {
	if a.Artist == "" || a.Album == "" {
		return fmt.Errorf("album art requires artist and album")
	}
	_, err := ex.ExecContext(ctx, upsertAlbumArtSQL,
		a.Artist,
		a.Album,
		nullString(a.AlbumMBID),
		nullString(a.ArtistMBID),
		nullString(a.ImageSmall),
		nullString(a.ImageMedium),
		nullString(a.ImageLarge),
		nullString(a.ImageXLarge),
		nullInt(a.LastUpdated),
		nullInt(int64(a.Year)),
		nullString(a.WikipediaURL),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert album art: %w", err)
	}
	return nil
}

// UpsertAlbumArt merges a into the stored row, keeping stored values for
// fields a leaves empty.
func (s *Store) UpsertAlbumArt(ctx context.Context, a AlbumArt) error {
	return s.upsertAlbumArt(ctx, s.db, a)
}

// AlbumArt returns the metadata row for (artist, album) or ErrNotFound.
func (s *Store) AlbumArt(ctx context.Context, artist, album string) (AlbumArt, error) {
	var (
		a                 AlbumArt
		lastUpdated, year sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT artist, album,
		       COALESCE(album_mbid, ''), COALESCE(artist_mbid, ''),
		       COALESCE(image_small, ''), COALESCE(image_medium, ''),
		       COALESCE(image_large, ''), COALESCE(image_xlarge, ''),
		       last_updated, year_col, COALESCE(wikipedia_url, '')
		FROM album_art
		WHERE artist = ? AND album = ?
	`, artist, album).Scan(
		&a.Artist, &a.Album, &a.AlbumMBID, &a.ArtistMBID,
		&a.ImageSmall, &a.ImageMedium, &a.ImageLarge, &a.ImageXLarge,
		&lastUpdated, &year, &a.WikipediaURL,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return AlbumArt{}, ErrNotFound
	}
	if err != nil {
		return AlbumArt{}, fmt.Errorf("failed to query album art: %w", err)
	}
	a.LastUpdated = lastUpdated.Int64
	a.Year = int(year.Int64)
	return a, nil
}

// SetWikipediaURL records the encyclopedia search outcome for an album.
// Pass WikipediaNotFound when the search found nothing.
func (s *Store) SetWikipediaURL(ctx context.Context, artist, album, url string) error {
	if url == "" {
		url = WikipediaNotFound
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO album_art (artist, album, wikipedia_url) VALUES (?, ?, ?)
		ON CONFLICT(artist, album) DO UPDATE SET wikipedia_url = excluded.wikipedia_url
	`, artist, album, url)
	if err != nil {
		return fmt.Errorf("failed to set wikipedia url: %w", err)
	}
	return nil
}

// SetReleaseYear records the release year for an album.
func (s *Store) SetReleaseYear(ctx context.Context, artist, album string, year int) error {
	return s.UpsertAlbumArt(ctx, AlbumArt{Artist: artist, Album: album, Year: year})
}

// AlbumRef identifies an album that needs enrichment.
type AlbumRef struct {
	Artist       string
	Album        string
	AlbumMBID    string
	WikipediaURL string
	Year         int
	Plays        int
}

const albumCandidatesSQL = `
	SELECT s.artist, s.album,
	       COALESCE(a.album_mbid, ''), COALESCE(a.wikipedia_url, ''),
	       COALESCE(a.year_col, 0), s.plays
	FROM (
		SELECT artist, album, COUNT(*) AS plays
		FROM scrobble
		WHERE album != ''
		GROUP BY artist, album
	) s
	LEFT JOIN album_art a ON a.artist = s.artist AND a.album = s.album
`

func (s *Store) albumRefs(ctx context.Context, where string, limit int, args ...any) ([]AlbumRef, error) {
	query := albumCandidatesSQL + " WHERE " + where + " ORDER BY s.plays DESC, s.artist, s.album"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query albums: %w", err)
	}
	defer rows.Close()

	var refs []AlbumRef
	for rows.Next() {
		var r AlbumRef
		if err := rows.Scan(&r.Artist, &r.Album, &r.AlbumMBID, &r.WikipediaURL, &r.Year, &r.Plays); err != nil {
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}
		refs = append(refs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating albums: %w", err)
	}

	return refs, nil
}

// AlbumsMissingWikipedia returns albums never searched, most played
// first. With retryNotFound it also returns albums previously marked
// WikipediaNotFound.
func (s *Store) AlbumsMissingWikipedia(ctx context.Context, retryNotFound bool, limit int) ([]AlbumRef, error) {
	if retryNotFound {
		return s.albumRefs(ctx, "(a.wikipedia_url IS NULL OR a.wikipedia_url = ?)", limit, WikipediaNotFound)
	}
	return s.albumRefs(ctx, "a.wikipedia_url IS NULL", limit)
}

// AlbumsMissingYear returns albums with no release year, most played
// first.
func (s *Store) AlbumsMissingYear(ctx context.Context, limit int) ([]AlbumRef, error) {
	return s.albumRefs(ctx, "a.year_col IS NULL", limit)
}

// AlbumsMissingArtwork returns albums with no stored image, most played
// first.
func (s *Store) AlbumsMissingArtwork(ctx context.Context, limit int) ([]AlbumRef, error) {
	return s.albumRefs(ctx, `a.image_small IS NULL AND a.image_medium IS NULL
		AND a.image_large IS NULL AND a.image_xlarge IS NULL`, limit)
}
