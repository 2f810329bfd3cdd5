package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jfmyers9/scrobblesync/internal/store"
	"github.com/jfmyers9/scrobblesync/pkg/lastfm"
	"github.com/rs/zerolog"
)

func createTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedAlbum(t *testing.T, s *store.Store, artist, album string, plays int, art *store.AlbumArt) {
	t.Helper()

	scrobbles := make([]store.Scrobble, plays)
	for i := range scrobbles {
		scrobbles[i] = store.Scrobble{Artist: artist, Album: album, Track: "Track", PlayedAt: int64(len(artist)*1000 + len(album)*10 + i)}
	}
	var arts []store.AlbumArt
	if art != nil {
		arts = append(arts, *art)
	}
	if _, err := s.InsertScrobbles(context.Background(), scrobbles, arts); err != nil {
		t.Fatalf("failed to seed album: %v", err)
	}
}

func albumArt(t *testing.T, s *store.Store, artist, album string) store.AlbumArt {
	t.Helper()

	art, err := s.AlbumArt(context.Background(), artist, album)
	if err != nil {
		t.Fatalf("failed to read album art for %s - %s: %v", artist, album, err)
	}
	return art
}

func TestEnricher_EnrichWikipedia(t *testing.T) {
	st := createTestStore(t)
	ctx := context.Background()

	seedAlbum(t, st, "Radiohead", "In Rainbows", 3, nil)
	seedAlbum(t, st, "Nobody", "Obscure Tape", 2, nil)
	seedAlbum(t, st, "Flaky", "Live Bootleg", 1, nil)

	wiki := &fakeWiki{
		failing: "Flaky",
		results: map[string][]Candidate{
			`en|"In Rainbows" (album) Radiohead`: {
				{Title: "In Rainbows", Snippet: "seventh studio album"},
			},
		},
		pages: map[string]string{
			"en|In Rainbows": "| released = {{Start date|2007|10|10}}",
		},
	}
	e := NewEnricher(st, New(wiki, zerolog.Nop()), zerolog.Nop())

	report, err := e.EnrichWikipedia(ctx, 0, false)
	if err != nil {
		t.Fatalf("failed to enrich: %v", err)
	}
	want := Report{Processed: 3, Found: 1, NotFound: 1, Failed: 1}
	if report != want {
		t.Errorf("expected %+v, got %+v", want, report)
	}

	found := albumArt(t, st, "Radiohead", "In Rainbows")
	if found.WikipediaURL != "https://en.wikipedia.org/wiki/In_Rainbows" || found.Year != 2007 {
		t.Errorf("unexpected stored metadata: %+v", found)
	}
	if missing := albumArt(t, st, "Nobody", "Obscure Tape"); missing.WikipediaURL != store.WikipediaNotFound {
		t.Errorf("expected not-found sentinel, got %q", missing.WikipediaURL)
	}
	if _, err := st.AlbumArt(ctx, "Flaky", "Live Bootleg"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected degraded miss to stay unrecorded, got %v", err)
	}

	again, err := e.EnrichWikipedia(ctx, 0, false)
	if err != nil {
		t.Fatalf("failed to enrich: %v", err)
	}
	if again.Processed != 1 {
		t.Errorf("expected only the unrecorded album to be retried, got %+v", again)
	}

	retry, err := e.EnrichWikipedia(ctx, 0, true)
	if err != nil {
		t.Fatalf("failed to enrich: %v", err)
	}
	if retry.Processed != 2 {
		t.Errorf("expected not-found albums to be retried, got %+v", retry)
	}
}

func TestEnricher_EnrichWikipedia_KeepsKnownYear(t *testing.T) {
	st := createTestStore(t)
	ctx := context.Background()

	seedAlbum(t, st, "Radiohead", "In Rainbows", 1, &store.AlbumArt{Artist: "Radiohead", Album: "In Rainbows", Year: 2008})

	wiki := &fakeWiki{
		all:   []Candidate{{Title: "In Rainbows", Snippet: "studio album"}},
		pages: map[string]string{"en|In Rainbows": "released in 2007"},
	}
	e := NewEnricher(st, New(wiki, zerolog.Nop()), zerolog.Nop())

	if _, err := e.EnrichWikipedia(ctx, 0, false); err != nil {
		t.Fatalf("failed to enrich: %v", err)
	}
	if got := albumArt(t, st, "Radiohead", "In Rainbows"); got.Year != 2008 {
		t.Errorf("expected stored year to be kept, got %d", got.Year)
	}
}

type fakeYears map[string]int

func (f fakeYears) ReleaseYear(ctx context.Context, mbid string) (int, bool, error) {
	if mbid == "broken" {
		return 0, false, errors.New("service unavailable")
	}
	year, ok := f[mbid]
	return year, ok, nil
}

type fakeAlbumInfo map[string]*lastfm.AlbumInfo

func (f fakeAlbumInfo) GetInfo(ctx context.Context, artist, album string) (*lastfm.AlbumInfo, error) {
	info, ok := f[artist+"|"+album]
	if !ok {
		return nil, &lastfm.Error{Code: lastfm.ErrCodeInvalidParameters, Message: "Album not found"}
	}
	return info, nil
}

func TestEnricher_BackfillYears(t *testing.T) {
	st := createTestStore(t)
	ctx := context.Background()

	seedAlbum(t, st, "A", "By MBID", 4, &store.AlbumArt{Artist: "A", Album: "By MBID", AlbumMBID: "mb-1"})
	seedAlbum(t, st, "B", "By Last.fm", 3, nil)
	seedAlbum(t, st, "C", "By Article", 2, &store.AlbumArt{Artist: "C", Album: "By Article", AlbumMBID: "broken"})
	seedAlbum(t, st, "D", "Unknown", 1, nil)

	if err := st.SetWikipediaURL(ctx, "C", "By Article", "https://en.wikipedia.org/wiki/By_Article"); err != nil {
		t.Fatalf("failed to set url: %v", err)
	}
	if err := st.SetWikipediaURL(ctx, "D", "Unknown", store.WikipediaNotFound); err != nil {
		t.Fatalf("failed to set url: %v", err)
	}

	wiki := &fakeWiki{pages: map[string]string{"en|By Article": "| released = 1971\n"}}
	e := NewEnricher(st, New(wiki, zerolog.Nop()), zerolog.Nop(),
		WithYearSource(fakeYears{"mb-1": 1999}),
		WithAlbumInfo(fakeAlbumInfo{"B|By Last.fm": {Published: "14 Feb 2004, 10:00"}}),
	)

	report, err := e.BackfillYears(ctx, 0)
	if err != nil {
		t.Fatalf("failed to backfill years: %v", err)
	}
	want := Report{Processed: 4, Found: 3, NotFound: 1}
	if report != want {
		t.Errorf("expected %+v, got %+v", want, report)
	}

	for _, tt := range []struct {
		artist, album string
		year          int
	}{
		{"A", "By MBID", 1999},
		{"B", "By Last.fm", 2004},
		{"C", "By Article", 1971},
	} {
		if got := albumArt(t, st, tt.artist, tt.album); got.Year != tt.year {
			t.Errorf("%s: expected year %d, got %d", tt.album, tt.year, got.Year)
		}
	}

	if _, err := e.BackfillYears(ctx, 0); err != nil {
		t.Fatalf("failed to backfill years: %v", err)
	}
}

type fakeArtwork map[string]string

func (f fakeArtwork) Lookup(ctx context.Context, artist, album string) (string, error) {
	if artist == "Broken" {
		return "", errors.New("timeout")
	}
	return f[artist+"|"+album], nil
}

func TestEnricher_BackfillArtwork(t *testing.T) {
	st := createTestStore(t)
	ctx := context.Background()

	seedAlbum(t, st, "Has", "Cover", 1, &store.AlbumArt{Artist: "Has", Album: "Cover", ImageLarge: "https://img/large.jpg"})
	seedAlbum(t, st, "Gets", "Cover", 1, nil)
	seedAlbum(t, st, "No", "Cover", 1, nil)
	seedAlbum(t, st, "Broken", "Cover", 1, nil)

	e := NewEnricher(st, nil, zerolog.Nop(),
		WithArtworkSource(fakeArtwork{"Gets|Cover": "https://img/600x600bb.jpg"}))
	e.now = func() time.Time { return time.Unix(1700000000, 0) }

	report, err := e.BackfillArtwork(ctx, 0)
	if err != nil {
		t.Fatalf("failed to backfill artwork: %v", err)
	}
	want := Report{Processed: 3, Found: 1, NotFound: 1, Failed: 1}
	if report != want {
		t.Errorf("expected %+v, got %+v", want, report)
	}

	got := albumArt(t, st, "Gets", "Cover")
	if got.ImageXLarge != "https://img/600x600bb.jpg" || got.LastUpdated != 1700000000 {
		t.Errorf("unexpected stored art: %+v", got)
	}
	if kept := albumArt(t, st, "Has", "Cover"); kept.ImageXLarge != "" || kept.ImageLarge == "" {
		t.Errorf("expected existing art untouched, got %+v", kept)
	}
}

func TestEnricher_EnrichAlbum(t *testing.T) {
	st := createTestStore(t)
	ctx := context.Background()

	seedAlbum(t, st, "Radiohead", "Kid A", 2, nil)

	wiki := &fakeWiki{
		all:   []Candidate{{Title: "Kid A", Snippet: "fourth studio album by Radiohead"}},
		pages: map[string]string{"en|Kid A": "| released = {{Start date|2000|10|2}}"},
	}
	e := NewEnricher(st, New(wiki, zerolog.Nop()), zerolog.Nop())

	res, err := e.EnrichAlbum(ctx, store.AlbumRef{Artist: "Radiohead", Album: "Kid A"})
	if err != nil {
		t.Fatalf("failed to enrich album: %v", err)
	}
	if !res.Found {
		t.Fatalf("expected a match, got %+v", res)
	}

	got := albumArt(t, st, "Radiohead", "Kid A")
	if got.WikipediaURL != "https://en.wikipedia.org/wiki/Kid_A" || got.Year != 2000 {
		t.Errorf("unexpected stored metadata: %+v", got)
	}

	ctx, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := e.EnrichAlbum(ctx, store.AlbumRef{Artist: "Radiohead", Album: "Amnesiac"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
