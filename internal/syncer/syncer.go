// Package syncer pulls new listening events from Last.fm into the store.
//
// A run starts one second after the newest stored event, walks the
// user's recent tracks page by page from the oldest page and persists
// each page in a single transaction. Replaying a run stores nothing new.
package syncer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jfmyers9/scrobblesync/internal/normalize"
	"github.com/jfmyers9/scrobblesync/internal/store"
	"github.com/jfmyers9/scrobblesync/pkg/lastfm"
	"github.com/rs/zerolog"
)

// Timestamps above this are taken to be milliseconds.
const maxSecondsTimestamp = 2_000_000_000

// Defaults applied by New.
const (
	DefaultPageSize             = lastfm.MaxPageSize
	DefaultPageDelay            = 250 * time.Millisecond
	DefaultCompilationThreshold = 3
)

// Store is the persistence the coordinator needs.
type Store interface {
	MaxPlayedAt(ctx context.Context) (int64, bool, error)
	InsertScrobbles(ctx context.Context, scrobbles []store.Scrobble, art []store.AlbumArt) (int, error)
	MarkCompilations(ctx context.Context, threshold int) (int, error)
}

// Source returns pages of listening history. *lastfm.UserService
// satisfies it.
type Source interface {
	GetRecentTracks(ctx context.Context, p lastfm.RecentTracksParams) (*lastfm.RecentTracksPage, error)
}

// Result summarizes one run.
type Result struct {
	From         int64 // lower bound requested from the source, 0 on first run
	To           int64 // upper bound requested from the source, fixed for the run
	Pages        int
	Fetched      int
	Inserted     int
	Skipped      int // malformed items
	Compilations int
}

// Coordinator runs incremental syncs.
type Coordinator struct {
	store     Store
	source    Source
	user      string
	pageSize  int
	pageDelay time.Duration
	threshold int
	now       func() time.Time
	logger    zerolog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithUser sets the Last.fm username to sync.
func WithUser(user string) Option {
	return func(c *Coordinator) { c.user = user }
}

// WithPageSize sets the page size requested from the source.
func WithPageSize(n int) Option {
	return func(c *Coordinator) {
		if n > 0 && n <= lastfm.MaxPageSize {
			c.pageSize = n
		}
	}
}

// WithPageDelay sets the pause between page requests.
func WithPageDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		if d >= 0 {
			c.pageDelay = d
		}
	}
}

// WithCompilationThreshold sets how many distinct artists make an album
// a compilation.
func WithCompilationThreshold(n int) Option {
	return func(c *Coordinator) {
		if n > 1 {
			c.threshold = n
		}
	}
}

// New creates a Coordinator.
func New(st Store, source Source, logger zerolog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     st,
		source:    source,
		pageSize:  DefaultPageSize,
		pageDelay: DefaultPageDelay,
		threshold: DefaultCompilationThreshold,
		now:       time.Now,
		logger:    logger.With().Str("component", "sync").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run performs one incremental sync. The window is bounded by the stored
// cursor and the time the run starts. Pages are persisted oldest first,
// so a run that stops early never leaves a gap below the cursor. A source
// or store error aborts the run; pages persisted before the error stay
// persisted. Cancelling ctx stops the run between pages and returns
// ctx.Err().
func (c *Coordinator) Run(ctx context.Context) (Result, error) {
	var res Result

	if c.user == "" {
		return res, fmt.Errorf("failed to sync: no user configured")
	}

	newest, ok, err := c.store.MaxPlayedAt(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to read sync cursor: %w", err)
	}
	if ok {
		res.From = newest + 1
	}
	res.To = c.now().Unix()

	c.logger.Info().
		Str("user", c.user).
		Int64("from", res.From).
		Int64("to", res.To).
		Msg("Starting sync")

	err = c.walk(ctx, &res)

	// Compilations are detected even when the walk stopped early, so the
	// events it stored are not left unclassified.
	if res.Inserted > 0 {
		n, cerr := c.store.MarkCompilations(context.WithoutCancel(ctx), c.threshold)
		switch {
		case cerr != nil && err == nil:
			err = fmt.Errorf("failed to detect compilations: %w", cerr)
		case cerr != nil:
			c.logger.Error().Err(cerr).Msg("Failed to detect compilations")
		default:
			res.Compilations = n
		}
	}
	if err != nil {
		return res, err
	}

	c.logger.Info().
		Int("pages", res.Pages).
		Int("inserted", res.Inserted).
		Int("skipped", res.Skipped).
		Int("compilations", res.Compilations).
		Msg("Sync complete")

	return res, nil
}

// walk reads the first page to learn the page count, then persists
// pages from the oldest to the newest. The first page holds the newest
// events and is persisted last.
func (c *Coordinator) walk(ctx context.Context, res *Result) error {
	first, err := c.fetch(ctx, res, 1)
	if err != nil {
		return err
	}

	firstEvents, firstArt := c.prepare(res, first.Tracks)
	if len(firstEvents) == 0 {
		c.logger.Debug().Msg("First page has no events, stopping")
		return nil
	}

	total := max(first.TotalPages, 1)
	persisted := false

	for page := total; page > 1; page-- {
		if err := c.wait(ctx); err != nil {
			return err
		}

		resp, err := c.fetch(ctx, res, page)
		if err != nil {
			return err
		}

		events, art := c.prepare(res, resp.Tracks)
		if len(events) == 0 {
			if persisted {
				// A hole between stored pages; newer pages wait for the
				// next run so the cursor cannot pass it.
				c.logger.Warn().Int("page", page).Msg("Page has no events, stopping")
				return nil
			}
			c.logger.Debug().Int("page", page).Msg("Page past the end of history, skipping")
			continue
		}

		if err := c.persist(ctx, res, page, total, events, art); err != nil {
			return err
		}
		persisted = true
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return c.persist(ctx, res, 1, total, firstEvents, firstArt)
}

func (c *Coordinator) fetch(ctx context.Context, res *Result, page int) (*lastfm.RecentTracksPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := c.source.GetRecentTracks(ctx, lastfm.RecentTracksParams{
		User:  c.user,
		From:  res.From,
		To:    res.To,
		Page:  page,
		Limit: c.pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
	}
	res.Pages++
	res.Fetched += len(resp.Tracks)
	return resp, nil
}

func (c *Coordinator) prepare(res *Result, tracks []lastfm.RecentTrack) ([]store.Scrobble, []store.AlbumArt) {
	events, art, skipped := c.transform(tracks)
	res.Skipped += skipped
	return events, art
}

func (c *Coordinator) persist(ctx context.Context, res *Result, page, total int, events []store.Scrobble, art []store.AlbumArt) error {
	inserted, err := c.store.InsertScrobbles(ctx, events, art)
	if err != nil {
		return fmt.Errorf("failed to persist page %d: %w", page, err)
	}
	res.Inserted += inserted

	c.logger.Info().
		Int("page", page).
		Int("total_pages", total).
		Int("events", len(events)).
		Int("inserted", inserted).
		Msg("Synced page")
	return nil
}

// transform converts a page into events and album art, oldest first.
// Now-playing items are dropped; malformed items are dropped and counted.
func (c *Coordinator) transform(tracks []lastfm.RecentTrack) ([]store.Scrobble, []store.AlbumArt, int) {
	var (
		scrobbles []store.Scrobble
		art       []store.AlbumArt
		skipped   int
	)
	seenArt := make(map[[2]string]bool)
	updated := c.now().Unix()

	for _, t := range tracks {
		if t.NowPlaying {
			continue
		}

		uts, ok := t.PlayedAt()
		if !ok || t.Artist == "" || t.Name == "" {
			skipped++
			c.logger.Debug().
				Str("artist", t.Artist).
				Str("track", t.Name).
				Str("uts", t.UTS).
				Msg("Skipping malformed item")
			continue
		}
		if uts > maxSecondsTimestamp {
			uts /= 1000
		}

		album := t.Album
		if album != "" {
			album = normalize.Clean(album)
		}

		scrobbles = append(scrobbles, store.Scrobble{
			Artist:      t.Artist,
			ArtistMBID:  t.ArtistMBID,
			Album:       album,
			AlbumMBID:   t.AlbumMBID,
			Track:       normalize.Clean(t.Name),
			TrackMBID:   t.MBID,
			PlayedAt:    uts,
			AlbumArtist: t.Artist,
		})

		key := [2]string{t.Artist, album}
		if album == "" || t.Images.Empty() || seenArt[key] {
			continue
		}
		seenArt[key] = true
		art = append(art, store.AlbumArt{
			Artist:      t.Artist,
			Album:       album,
			AlbumMBID:   t.AlbumMBID,
			ArtistMBID:  t.ArtistMBID,
			ImageSmall:  t.Images.Small,
			ImageMedium: t.Images.Medium,
			ImageLarge:  t.Images.Large,
			ImageXLarge: t.Images.XLarge,
			LastUpdated: updated,
		})
	}

	sort.SliceStable(scrobbles, func(i, j int) bool {
		return scrobbles[i].PlayedAt < scrobbles[j].PlayedAt
	})

	return scrobbles, art, skipped
}

// wait sleeps for the page delay unless ctx is cancelled first.
func (c *Coordinator) wait(ctx context.Context) error {
	if c.pageDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(c.pageDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
