package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Scrobble is one completed listening event.
type Scrobble struct {
	Artist      string
	ArtistMBID  string
	Album       string
	AlbumMBID   string
	Track       string
	TrackMBID   string
	PlayedAt    int64 // Unix seconds, UTC
	AlbumArtist string
}

// InsertScrobbles stores events and merges album art in a single
// transaction. Events whose (played_at, artist, album, track) already
// exist are ignored. It returns the number of new events.
func (s *Store) InsertScrobbles(ctx context.Context, scrobbles []Scrobble, art []AlbumArt) (int, error) {
	if len(scrobbles) == 0 && len(art) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO scrobble
			(artist, artist_mbid, album, album_mbid, track, track_mbid, uts, album_artist)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, sc := range scrobbles {
		albumArtist := sc.AlbumArtist
		if albumArtist == "" {
			albumArtist = sc.Artist
		}

		result, err := stmt.ExecContext(ctx,
			sc.Artist,
			nullString(sc.ArtistMBID),
			sc.Album,
			nullString(sc.AlbumMBID),
			sc.Track,
			nullString(sc.TrackMBID),
			sc.PlayedAt,
			albumArtist,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert scrobble: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		inserted += int(rows)
	}

	for _, a := range art {
		if err := s.upsertAlbumArt(ctx, tx, a); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return inserted, nil
}

// MaxPlayedAt returns the newest stored timestamp. ok is false when no
// events are stored.
func (s *Store) MaxPlayedAt(ctx context.Context) (uts int64, ok bool, err error) {
	var max sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(uts) FROM scrobble").Scan(&max); err != nil {
		return 0, false, fmt.Errorf("failed to query max uts: %w", err)
	}
	if !max.Valid {
		return 0, false, nil
	}
	return max.Int64, true, nil
}

// CountScrobbles returns the number of stored events.
func (s *Store) CountScrobbles(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM scrobble").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count scrobbles: %w", err)
	}
	return count, nil
}

// MarkCompilations sets album_artist to VariousArtists on every event of
// an album played under at least threshold distinct artists. It returns
// the number of albums reclassified by this call.
func (s *Store) MarkCompilations(ctx context.Context, threshold int) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const compilations = `
		SELECT album
		FROM scrobble
		WHERE album != ''
		GROUP BY album
		HAVING COUNT(DISTINCT artist) >= ?
	`

	var albums int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT album)
		FROM scrobble
		WHERE album IN (`+compilations+`)
		  AND (album_artist IS NULL OR album_artist != ?)
	`, threshold, VariousArtists).Scan(&albums)
	if err != nil {
		return 0, fmt.Errorf("failed to count compilations: %w", err)
	}

	if albums > 0 {
		_, err = tx.ExecContext(ctx, `
			UPDATE scrobble
			SET album_artist = ?
			WHERE album IN (`+compilations+`)
			  AND (album_artist IS NULL OR album_artist != ?)
		`, VariousArtists, threshold, VariousArtists)
		if err != nil {
			return 0, fmt.Errorf("failed to mark compilations: %w", err)
		}
	}

	// Events that predate the album_artist column get their own artist.
	if _, err := tx.ExecContext(ctx, `
		UPDATE scrobble SET album_artist = artist
		WHERE album_artist IS NULL OR album_artist = ''
	`); err != nil {
		return 0, fmt.Errorf("failed to backfill album artist: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return albums, nil
}

// ScrobblesFor returns the events of one album by one artist, oldest
// first.
func (s *Store) ScrobblesFor(ctx context.Context, artist, album string) ([]Scrobble, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT artist, COALESCE(artist_mbid, ''), album, COALESCE(album_mbid, ''),
		       track, COALESCE(track_mbid, ''), uts, COALESCE(album_artist, artist)
		FROM scrobble
		WHERE artist = ? AND album = ?
		ORDER BY uts ASC
	`, artist, album)
	if err != nil {
		return nil, fmt.Errorf("failed to query scrobbles: %w", err)
	}
	defer rows.Close()

	var out []Scrobble
	for rows.Next() {
		var sc Scrobble
		if err := rows.Scan(&sc.Artist, &sc.ArtistMBID, &sc.Album, &sc.AlbumMBID,
			&sc.Track, &sc.TrackMBID, &sc.PlayedAt, &sc.AlbumArtist); err != nil {
			return nil, fmt.Errorf("failed to scan scrobble: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scrobbles: %w", err)
	}

	return out, nil
}

// AlbumSpellings returns the distinct album titles stored for artist,
// matching either the track artist or the album artist. An empty artist
// returns albums across all artists.
func (s *Store) AlbumSpellings(ctx context.Context, artist string) ([]string, error) {
	query := `SELECT DISTINCT album FROM scrobble WHERE album != ''`
	var args []any
	if artist != "" {
		query += ` AND (artist = ? OR album_artist = ?)`
		args = append(args, artist, artist)
	}
	query += ` ORDER BY album`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query album spellings: %w", err)
	}
	defer rows.Close()

	var albums []string
	for rows.Next() {
		var album string
		if err := rows.Scan(&album); err != nil {
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}
		albums = append(albums, album)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating albums: %w", err)
	}

	return albums, nil
}

// TrackPlayCounts returns play counts per raw track title for the given
// album spellings. An empty artist counts plays under any artist.
func (s *Store) TrackPlayCounts(ctx context.Context, artist string, albums []string) (map[string]int, error) {
	counts := make(map[string]int)
	if len(albums) == 0 {
		return counts, nil
	}

	stmt, err := s.db.PrepareContext(ctx, `
		SELECT track, COUNT(*)
		FROM scrobble
		WHERE album = ?
		  AND (? = '' OR artist = ? OR album_artist = ?)
		GROUP BY track
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, album := range albums {
		if err := func() error {
			rows, err := stmt.QueryContext(ctx, album, artist, artist, artist)
			if err != nil {
				return fmt.Errorf("failed to query play counts: %w", err)
			}
			defer rows.Close()

			for rows.Next() {
				var track string
				var plays int
				if err := rows.Scan(&track, &plays); err != nil {
					return fmt.Errorf("failed to scan play count: %w", err)
				}
				counts[track] += plays
			}
			return rows.Err()
		}(); err != nil {
			return nil, err
		}
	}

	return counts, nil
}

// TitleCount is a distinct (artist, album, track) with its play count.
type TitleCount struct {
	Artist string
	Album  string
	Track  string
	Plays  int
	LastAt int64
}

// ScrobbleTitles returns every distinct (artist, album, track) stored in
// the scrobble table with its play count and latest play.
func (s *Store) ScrobbleTitles(ctx context.Context) ([]TitleCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT artist, album, track, COUNT(*), MAX(uts)
		FROM scrobble
		WHERE album != '' AND track != ''
		GROUP BY artist, album, track
		ORDER BY artist, album, track
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scrobble titles: %w", err)
	}
	defer rows.Close()

	var out []TitleCount
	for rows.Next() {
		var tc TitleCount
		if err := rows.Scan(&tc.Artist, &tc.Album, &tc.Track, &tc.Plays, &tc.LastAt); err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		out = append(out, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating titles: %w", err)
	}

	return out, nil
}
