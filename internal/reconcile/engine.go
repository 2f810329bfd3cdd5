package reconcile

import (
	"context"
	"fmt"

	"github.com/jfmyers9/scrobblesync/internal/normalize"
	"github.com/jfmyers9/scrobblesync/internal/store"
	"github.com/jfmyers9/scrobblesync/pkg/lastfm"
	"github.com/rs/zerolog"
)

// Store is the persistence the engine reads and lazily fills.
type Store interface {
	AlbumSpellings(ctx context.Context, artist string) ([]string, error)
	TrackPlayCounts(ctx context.Context, artist string, albums []string) (map[string]int, error)
	AlbumTracks(ctx context.Context, artist, album string) ([]store.CanonicalTrack, error)
	ReplaceAlbumTracks(ctx context.Context, artist, album string, tracks []store.CanonicalTrack) error
	SetReleaseYear(ctx context.Context, artist, album string, year int) error
}

// TracklistSource fetches official tracklists. *lastfm.AlbumService
// satisfies it.
type TracklistSource interface {
	GetInfo(ctx context.Context, artist, album string) (*lastfm.AlbumInfo, error)
}

// AlbumView is a reconciled album.
type AlbumView struct {
	Artist     string
	Album      string
	Spellings  []string // stored album titles pooled into this view
	AnyArtist  bool     // plays were counted across all artists
	Tracks     []TrackPlays
	TotalPlays int
	Unmatched  int // plays under titles not on the tracklist
	Fetched    bool
}

// Engine builds reconciled album views.
type Engine struct {
	store      Store
	tracklists TracklistSource
	logger     zerolog.Logger
}

// NewEngine creates an Engine. tracklists may be nil, in which case
// missing tracklists are never fetched.
func NewEngine(st Store, tracklists TracklistSource, logger zerolog.Logger) *Engine {
	return &Engine{
		store:      st,
		tracklists: tracklists,
		logger:     logger.With().Str("component", "reconcile").Logger(),
	}
}

// Album reconciles the stored plays of an album against its tracklist.
// Every stored spelling of the album whose match key equals the
// requested one is pooled. Plays are counted under the exact artist, or
// across all artists when the exact artist has none. A missing tracklist
// is fetched and stored; one the source does not know yields a view with
// no tracks. It returns store.ErrNotFound when no spelling matches.
func (e *Engine) Album(ctx context.Context, artist, album string, order SortOrder) (AlbumView, error) {
	view := AlbumView{Artist: artist, Album: album}
	key := normalize.MatchKey(album)

	spellings, err := e.spellings(ctx, artist, key)
	if err != nil {
		return view, err
	}

	counts := map[string]int{}
	if len(spellings) > 0 {
		counts, err = e.store.TrackPlayCounts(ctx, artist, spellings)
		if err != nil {
			return view, err
		}
	}

	if sum(counts) == 0 {
		anySpellings, err := e.spellings(ctx, "", key)
		if err != nil {
			return view, err
		}
		anyCounts, err := e.store.TrackPlayCounts(ctx, "", anySpellings)
		if err != nil {
			return view, err
		}
		if sum(anyCounts) > 0 {
			spellings, counts = anySpellings, anyCounts
			view.AnyArtist = true
		}
	}

	if len(spellings) == 0 {
		return view, fmt.Errorf("album %q by %q: %w", album, artist, store.ErrNotFound)
	}
	view.Spellings = spellings

	official, fetched, err := e.tracklist(ctx, artist, album, spellings)
	if err != nil {
		return view, err
	}
	view.Fetched = fetched

	view.Tracks = MatchTracks(official, counts)
	SortTracks(view.Tracks, order)

	view.TotalPlays = sum(counts)
	matched := 0
	for _, t := range view.Tracks {
		matched += t.Plays
	}
	view.Unmatched = view.TotalPlays - matched

	return view, nil
}

func (e *Engine) spellings(ctx context.Context, artist, key string) ([]string, error) {
	all, err := e.store.AlbumSpellings(ctx, artist)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, a := range all {
		if normalize.MatchKey(a) == key {
			out = append(out, a)
		}
	}
	return out, nil
}

// tracklist returns the stored tracklist of the album under any of its
// spellings, fetching and storing it when none is stored.
func (e *Engine) tracklist(ctx context.Context, artist, album string, spellings []string) ([]store.CanonicalTrack, bool, error) {
	candidates := append([]string{album}, spellings...)
	for _, name := range candidates {
		tracks, err := e.store.AlbumTracks(ctx, artist, name)
		if err != nil {
			return nil, false, err
		}
		if len(tracks) > 0 {
			return tracks, false, nil
		}
	}

	if e.tracklists == nil {
		return nil, false, nil
	}

	e.logger.Debug().
		Str("artist", artist).
		Str("album", album).
		Msg("Fetching tracklist")

	info, err := e.tracklists.GetInfo(ctx, artist, album)
	if lastfm.IsNotFound(err) {
		e.logger.Info().
			Str("artist", artist).
			Str("album", album).
			Msg("No tracklist available")
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch tracklist: %w", err)
	}
	if len(info.Tracks) == 0 {
		return nil, false, nil
	}

	tracks := make([]store.CanonicalTrack, 0, len(info.Tracks))
	for _, t := range info.Tracks {
		tracks = append(tracks, store.CanonicalTrack{
			Artist: artist,
			Album:  album,
			Track:  normalize.Clean(t.Name),
			Number: t.TrackNumber,
		})
	}

	if err := e.store.ReplaceAlbumTracks(ctx, artist, album, tracks); err != nil {
		return nil, false, err
	}
	if year, ok := info.ReleaseYear(); ok {
		if err := e.store.SetReleaseYear(ctx, artist, album, year); err != nil {
			return nil, false, err
		}
	}

	return tracks, true, nil
}

func sum(counts map[string]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}
