package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"golang.org/x/text/cases"
)

// TitleChange is one distinct title rewritten by a maintenance pass.
type TitleChange struct {
	Table  string // scrobble, album_art or album_tracks
	Artist string
	Album  string // album title before the change
	Field  string // album or track
	From   string
	To     string
}

// RewriteReport summarizes a title rewrite pass.
type RewriteReport struct {
	ScrobbleRows     int
	DuplicatesMerged int
	AlbumArtRows     int
	AlbumTrackRows   int
	Changes          []TitleChange
}

// Rows returns the total number of rows touched.
func (r RewriteReport) Rows() int {
	return r.ScrobbleRows + r.DuplicatesMerged + r.AlbumArtRows + r.AlbumTrackRows
}

// RewriteTitles applies rewrite to every album and track title in all
// three tables inside one transaction. Scrobbles that collide with an
// existing row after the rewrite are true duplicates and are removed;
// colliding album_art rows are merged, keeping the target's values. With
// dryRun the transaction is rolled back and only the report is returned.
func (s *Store) RewriteTitles(ctx context.Context, rewrite func(string) string, dryRun bool) (RewriteReport, error) {
	var report RewriteReport

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return report, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := rewriteScrobbles(ctx, tx, rewrite, &report); err != nil {
		return report, err
	}
	if err := rewriteAlbumArt(ctx, tx, rewrite, &report); err != nil {
		return report, err
	}
	if err := rewriteAlbumTracks(ctx, tx, rewrite, &report); err != nil {
		return report, err
	}

	if dryRun {
		return report, nil
	}
	if err := tx.Commit(); err != nil {
		return report, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return report, nil
}

type titleRow struct {
	artist, album, track string
	number               int
}

func rewriteScrobbles(ctx context.Context, tx *sql.Tx, rewrite func(string) string, report *RewriteReport) error {
	rows, err := tx.QueryContext(ctx, "SELECT DISTINCT artist, album, track FROM scrobble")
	if err != nil {
		return fmt.Errorf("failed to query scrobble titles: %w", err)
	}
	var titles []titleRow
	for rows.Next() {
		var r titleRow
		if err := rows.Scan(&r.artist, &r.album, &r.track); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan scrobble title: %w", err)
		}
		titles = append(titles, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating scrobble titles: %w", err)
	}

	seen := make(map[TitleChange]bool)
	for _, r := range titles {
		album, track := r.album, rewrite(r.track)
		if album != "" {
			album = rewrite(album)
		}
		if album == r.album && track == r.track {
			continue
		}

		n, merged, err := moveScrobbles(ctx, tx, r.artist, r.album, r.track, album, track)
		if err != nil {
			return err
		}
		report.ScrobbleRows += n
		report.DuplicatesMerged += merged

		if album != r.album {
			c := TitleChange{Table: "scrobble", Artist: r.artist, Album: r.album, Field: "album", From: r.album, To: album}
			if !seen[c] {
				seen[c] = true
				report.Changes = append(report.Changes, c)
			}
		}
		if track != r.track {
			report.Changes = append(report.Changes, TitleChange{
				Table: "scrobble", Artist: r.artist, Album: r.album, Field: "track", From: r.track, To: track,
			})
		}
	}
	return nil
}

// moveScrobbles renames (artist, album, track) to (artist, toAlbum,
// toTrack). Rows that would violate the uniqueness constraint are
// deleted. It returns the rows moved and the duplicates removed.
func moveScrobbles(ctx context.Context, tx *sql.Tx, artist, album, track, toAlbum, toTrack string) (int, int, error) {
	if album == toAlbum && track == toTrack {
		return 0, 0, nil
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE OR IGNORE scrobble SET album = ?, track = ?
		WHERE artist = ? AND album = ? AND track = ?
	`, toAlbum, toTrack, artist, album, track)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to rename scrobbles: %w", err)
	}
	moved, err := result.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	result, err = tx.ExecContext(ctx, `
		DELETE FROM scrobble WHERE artist = ? AND album = ? AND track = ?
	`, artist, album, track)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete duplicate scrobbles: %w", err)
	}
	dupes, err := result.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(moved), int(dupes), nil
}

func rewriteAlbumArt(ctx context.Context, tx *sql.Tx, rewrite func(string) string, report *RewriteReport) error {
	rows, err := tx.QueryContext(ctx, "SELECT artist, album FROM album_art")
	if err != nil {
		return fmt.Errorf("failed to query album art: %w", err)
	}
	var albums []titleRow
	for rows.Next() {
		var r titleRow
		if err := rows.Scan(&r.artist, &r.album); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan album art: %w", err)
		}
		albums = append(albums, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating album art: %w", err)
	}

	for _, r := range albums {
		to := rewrite(r.album)
		if to == r.album {
			continue
		}
		if err := moveAlbumArt(ctx, tx, r.artist, r.album, to); err != nil {
			return err
		}
		report.AlbumArtRows++
		report.Changes = append(report.Changes, TitleChange{
			Table: "album_art", Artist: r.artist, Album: r.album, Field: "album", From: r.album, To: to,
		})
	}
	return nil
}

// moveAlbumArt renames an album_art row, merging into an existing target
// row without overwriting its values.
func moveAlbumArt(ctx context.Context, tx *sql.Tx, artist, from, to string) error {
	if from == to {
		return nil
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO album_art (
			artist, album, album_mbid, artist_mbid,
			image_small, image_medium, image_large, image_xlarge,
			last_updated, year_col, wikipedia_url
		)
		SELECT artist, ?, album_mbid, artist_mbid,
		       image_small, image_medium, image_large, image_xlarge,
		       last_updated, year_col, wikipedia_url
		FROM album_art
		WHERE artist = ? AND album = ?
		ON CONFLICT(artist, album) DO UPDATE SET
			album_mbid    = COALESCE(album_art.album_mbid, excluded.album_mbid),
			artist_mbid   = COALESCE(album_art.artist_mbid, excluded.artist_mbid),
			image_small   = COALESCE(album_art.image_small, excluded.image_small),
			image_medium  = COALESCE(album_art.image_medium, excluded.image_medium),
			image_large   = COALESCE(album_art.image_large, excluded.image_large),
			image_xlarge  = COALESCE(album_art.image_xlarge, excluded.image_xlarge),
			last_updated  = COALESCE(album_art.last_updated, excluded.last_updated),
			year_col      = COALESCE(album_art.year_col, excluded.year_col),
			wikipedia_url = COALESCE(album_art.wikipedia_url, excluded.wikipedia_url)
	`, to, artist, from)
	if err != nil {
		return fmt.Errorf("failed to merge album art: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM album_art WHERE artist = ? AND album = ?", artist, from); err != nil {
		return fmt.Errorf("failed to delete album art: %w", err)
	}
	return nil
}

func rewriteAlbumTracks(ctx context.Context, tx *sql.Tx, rewrite func(string) string, report *RewriteReport) error {
	rows, err := tx.QueryContext(ctx, "SELECT artist, album, track, track_number FROM album_tracks")
	if err != nil {
		return fmt.Errorf("failed to query album tracks: %w", err)
	}
	var tracks []titleRow
	for rows.Next() {
		var r titleRow
		if err := rows.Scan(&r.artist, &r.album, &r.track, &r.number); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan album track: %w", err)
		}
		tracks = append(tracks, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating album tracks: %w", err)
	}

	for _, r := range tracks {
		album, track := rewrite(r.album), rewrite(r.track)
		if album == r.album && track == r.track {
			continue
		}

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM album_tracks WHERE artist = ? AND album = ? AND track_number = ?
		`, r.artist, r.album, r.number); err != nil {
			return fmt.Errorf("failed to delete album track: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO album_tracks (artist, album, track, track_number)
			VALUES (?, ?, ?, ?)
		`, r.artist, album, track, r.number); err != nil {
			return fmt.Errorf("failed to insert album track: %w", err)
		}

		report.AlbumTrackRows++
		if track != r.track {
			report.Changes = append(report.Changes, TitleChange{
				Table: "album_tracks", Artist: r.artist, Album: r.album, Field: "track", From: r.track, To: track,
			})
		}
	}
	return nil
}

// TrackVariant is one spelling of a track title with its usage.
type TrackVariant struct {
	Track  string
	Plays  int
	LastAt int64
}

// CaseVariantGroup is a set of track titles under one (artist, album)
// that differ only by letter case.
type CaseVariantGroup struct {
	Artist    string
	Album     string
	Canonical string
	Variants  []TrackVariant
}

// CaseReport summarizes a case merge pass.
type CaseReport struct {
	Groups           []CaseVariantGroup
	ScrobbleRows     int
	DuplicatesMerged int
}

// chooseCanonical picks the most played variant, then the most recently
// played, then the longest title.
func chooseCanonical(variants []TrackVariant) string {
	sorted := append([]TrackVariant(nil), variants...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Plays != b.Plays {
			return a.Plays > b.Plays
		}
		if a.LastAt != b.LastAt {
			return a.LastAt > b.LastAt
		}
		if len(a.Track) != len(b.Track) {
			return len(a.Track) > len(b.Track)
		}
		return a.Track < b.Track
	})
	return sorted[0].Track
}

// MergeCaseVariants unifies track titles under the same (artist, album)
// that differ only by letter case, rewriting every variant to the
// canonical spelling.
func (s *Store) MergeCaseVariants(ctx context.Context, dryRun bool) (CaseReport, error) {
	var report CaseReport

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return report, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
		SELECT artist, album, track, COUNT(*), MAX(uts)
		FROM scrobble
		WHERE track != ''
		GROUP BY artist, album, track
		ORDER BY artist, album, track
	`)
	if err != nil {
		return report, fmt.Errorf("failed to query track variants: %w", err)
	}

	type groupKey struct{ artist, album, folded string }
	fold := cases.Fold()
	groups := make(map[groupKey]*CaseVariantGroup)
	var order []groupKey

	for rows.Next() {
		var (
			artist, album string
			v             TrackVariant
		)
		if err := rows.Scan(&artist, &album, &v.Track, &v.Plays, &v.LastAt); err != nil {
			rows.Close()
			return report, fmt.Errorf("failed to scan track variant: %w", err)
		}
		key := groupKey{artist, album, fold.String(v.Track)}
		g, ok := groups[key]
		if !ok {
			g = &CaseVariantGroup{Artist: artist, Album: album}
			groups[key] = g
			order = append(order, key)
		}
		g.Variants = append(g.Variants, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return report, fmt.Errorf("error iterating track variants: %w", err)
	}

	for _, key := range order {
		g := groups[key]
		if len(g.Variants) < 2 {
			continue
		}
		g.Canonical = chooseCanonical(g.Variants)
		report.Groups = append(report.Groups, *g)

		for _, v := range g.Variants {
			if v.Track == g.Canonical {
				continue
			}
			n, merged, err := moveScrobbles(ctx, tx, g.Artist, g.Album, v.Track, g.Album, g.Canonical)
			if err != nil {
				return report, err
			}
			report.ScrobbleRows += n
			report.DuplicatesMerged += merged
		}
	}

	if dryRun {
		return report, nil
	}
	if err := tx.Commit(); err != nil {
		return report, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return report, nil
}

// Rename is a single title correction applied by ApplyRenames.
type Rename struct {
	Table  string // scrobble or album_tracks
	Artist string
	Album  string
	Track  string // empty for an album-level rename
	To     string
}

// ApplyRenames applies a batch of title corrections in one transaction.
// An album-level rename (empty Track) renames the album of every row of
// (Artist, Album) in Table; a track-level rename renames Track within
// (Artist, Album). A rename to the current title changes nothing.
func (s *Store) ApplyRenames(ctx context.Context, renames []Rename) (int, error) {
	if len(renames) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	total := 0
	for _, r := range renames {
		n, err := applyRename(ctx, tx, r)
		if err != nil {
			return 0, err
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return total, nil
}

func applyRename(ctx context.Context, tx *sql.Tx, r Rename) (int, error) {
	if (r.Track == "" && r.To == r.Album) || (r.Track != "" && r.To == r.Track) {
		return 0, nil
	}

	switch r.Table {
	case "scrobble":
		if r.Track == "" {
			return renameScrobbleAlbum(ctx, tx, r.Artist, r.Album, r.To)
		}
		moved, merged, err := moveScrobbles(ctx, tx, r.Artist, r.Album, r.Track, r.Album, r.To)
		return moved + merged, err

	case "album_tracks":
		var (
			result sql.Result
			err    error
		)
		if r.Track == "" {
			result, err = tx.ExecContext(ctx, `
				UPDATE OR REPLACE album_tracks SET album = ? WHERE artist = ? AND album = ?
			`, r.To, r.Artist, r.Album)
		} else {
			result, err = tx.ExecContext(ctx, `
				UPDATE album_tracks SET track = ? WHERE artist = ? AND album = ? AND track = ?
			`, r.To, r.Artist, r.Album, r.Track)
		}
		if err != nil {
			return 0, fmt.Errorf("failed to rename album tracks: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if r.Track == "" {
			if err := moveAlbumArt(ctx, tx, r.Artist, r.Album, r.To); err != nil {
				return 0, err
			}
		}
		return int(n), nil

	default:
		return 0, fmt.Errorf("unknown table %q", r.Table)
	}
}

func renameScrobbleAlbum(ctx context.Context, tx *sql.Tx, artist, from, to string) (int, error) {
	if from == to {
		return 0, nil
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE OR IGNORE scrobble SET album = ? WHERE artist = ? AND album = ?
	`, to, artist, from)
	if err != nil {
		return 0, fmt.Errorf("failed to rename scrobble album: %w", err)
	}
	moved, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	result, err = tx.ExecContext(ctx,
		"DELETE FROM scrobble WHERE artist = ? AND album = ?", artist, from)
	if err != nil {
		return 0, fmt.Errorf("failed to delete duplicate scrobbles: %w", err)
	}
	dupes, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := moveAlbumArt(ctx, tx, artist, from, to); err != nil {
		return 0, err
	}
	return int(moved + dupes), nil
}
