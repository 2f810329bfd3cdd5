// Package store persists listening events, album tracklists and album
// metadata in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// VariousArtists is the album_artist value given to every event of an
// album detected as a compilation.
const VariousArtists = "Various Artists"

// WikipediaNotFound marks an album whose encyclopedia search ran and
// found nothing. A NULL wikipedia_url means the search never ran.
const WikipediaNotFound = "N/A"

// ErrNotFound is returned by single-row reads when the row is missing.
var ErrNotFound = errors.New("store: not found")

// Store wraps the SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

const schema = `
	CREATE TABLE IF NOT EXISTS scrobble (
		id           INTEGER PRIMARY KEY,
		artist       TEXT NOT NULL,
		artist_mbid  TEXT,
		album        TEXT NOT NULL,
		album_mbid   TEXT,
		track        TEXT NOT NULL,
		track_mbid   TEXT,
		uts          INTEGER NOT NULL,
		album_artist TEXT
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_scrobble_unique
		ON scrobble(uts, artist, album, track);
	CREATE INDEX IF NOT EXISTS idx_scrobble_artist_album
		ON scrobble(artist, album);
	CREATE INDEX IF NOT EXISTS idx_scrobble_album
		ON scrobble(album);

	CREATE TABLE IF NOT EXISTS album_art (
		artist        TEXT NOT NULL,
		album         TEXT NOT NULL,
		album_mbid    TEXT,
		artist_mbid   TEXT,
		image_small   TEXT,
		image_medium  TEXT,
		image_large   TEXT,
		image_xlarge  TEXT,
		last_updated  INTEGER,
		year_col      INTEGER,
		wikipedia_url TEXT,
		PRIMARY KEY (artist, album)
	);

	CREATE INDEX IF NOT EXISTS idx_album_art_mbid
		ON album_art(album_mbid)
		WHERE album_mbid IS NOT NULL;

	CREATE TABLE IF NOT EXISTS album_tracks (
		artist       TEXT NOT NULL,
		album        TEXT NOT NULL,
		track        TEXT NOT NULL,
		track_number INTEGER NOT NULL,
		PRIMARY KEY (artist, album, track_number)
	);
`

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases consistent and
	// serializes writers for file databases.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA cache_size = -64000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// nullString maps the empty string to NULL.
func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// nullInt maps zero to NULL.
func nullInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
