package resolver

import (
	"context"
	"time"

	"github.com/jfmyers9/scrobblesync/internal/store"
	"github.com/jfmyers9/scrobblesync/pkg/lastfm"
	"github.com/rs/zerolog"
)

// Store is the persistence the Enricher reads and fills.
type Store interface {
	AlbumsMissingWikipedia(ctx context.Context, retryNotFound bool, limit int) ([]store.AlbumRef, error)
	AlbumsMissingYear(ctx context.Context, limit int) ([]store.AlbumRef, error)
	AlbumsMissingArtwork(ctx context.Context, limit int) ([]store.AlbumRef, error)
	SetWikipediaURL(ctx context.Context, artist, album, url string) error
	SetReleaseYear(ctx context.Context, artist, album string, year int) error
	UpsertAlbumArt(ctx context.Context, art store.AlbumArt) error
}

// YearSource looks up release years by album MBID. *MusicBrainzClient
// satisfies it.
type YearSource interface {
	ReleaseYear(ctx context.Context, mbid string) (int, bool, error)
}

// AlbumInfoSource returns album metadata. *lastfm.AlbumService
// satisfies it.
type AlbumInfoSource interface {
	GetInfo(ctx context.Context, artist, album string) (*lastfm.AlbumInfo, error)
}

// ArtworkSource looks up cover art. *ArtworkClient satisfies it.
type ArtworkSource interface {
	Lookup(ctx context.Context, artist, album string) (string, error)
}

// Report counts the outcome of an enrichment pass.
type Report struct {
	Processed int
	Found     int
	NotFound  int
	Failed    int
}

// Enricher fills missing album metadata in batches, most played albums
// first.
type Enricher struct {
	store    Store
	resolver *Resolver
	years    YearSource
	info     AlbumInfoSource
	artwork  ArtworkSource
	logger   zerolog.Logger
	now      func() time.Time
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithYearSource enables MusicBrainz year lookups.
func WithYearSource(y YearSource) EnricherOption {
	return func(e *Enricher) { e.years = y }
}

// WithAlbumInfo enables Last.fm year lookups.
func WithAlbumInfo(s AlbumInfoSource) EnricherOption {
	return func(e *Enricher) { e.info = s }
}

// WithArtworkSource enables cover art lookups.
func WithArtworkSource(a ArtworkSource) EnricherOption {
	return func(e *Enricher) { e.artwork = a }
}

// NewEnricher creates an Enricher.
func NewEnricher(st Store, r *Resolver, logger zerolog.Logger, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		store:    st,
		resolver: r,
		logger:   logger.With().Str("component", "enrich").Logger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EnrichWikipedia resolves the encyclopedia page of albums never
// searched, and with retryNotFound also of albums previously not found.
// A page is stored with its release year when the album has none; a
// clean miss is stored as store.WikipediaNotFound. Misses caused by
// failed queries are left unrecorded so the album is retried.
func (e *Enricher) EnrichWikipedia(ctx context.Context, limit int, retryNotFound bool) (Report, error) {
	var report Report

	refs, err := e.store.AlbumsMissingWikipedia(ctx, retryNotFound, limit)
	if err != nil {
		return report, err
	}

	e.logger.Info().Int("albums", len(refs)).Msg("Resolving encyclopedia pages")

	for _, ref := range refs {
		res, err := e.EnrichAlbum(ctx, ref)
		if err != nil {
			return report, err
		}
		report.Processed++

		switch {
		case res.Found:
			report.Found++
		case res.Degraded:
			report.Failed++
		default:
			report.NotFound++
		}
	}

	return report, nil
}

// EnrichAlbum resolves and records the encyclopedia page of one album.
// The stored year is only set when ref carries none.
func (e *Enricher) EnrichAlbum(ctx context.Context, ref store.AlbumRef) (Result, error) {
	res := e.resolver.Resolve(ctx, ref.Artist, ref.Album)
	if err := ctx.Err(); err != nil {
		return res, err
	}

	switch {
	case res.Found:
		if err := e.store.SetWikipediaURL(ctx, ref.Artist, ref.Album, res.URL); err != nil {
			return res, err
		}
		if res.Year > 0 && ref.Year == 0 {
			if err := e.store.SetReleaseYear(ctx, ref.Artist, ref.Album, res.Year); err != nil {
				return res, err
			}
		}
		e.logger.Info().
			Str("artist", ref.Artist).
			Str("album", ref.Album).
			Str("url", res.URL).
			Int("year", res.Year).
			Msg("Found page")

	case res.Degraded:
		e.logger.Warn().
			Str("artist", ref.Artist).
			Str("album", ref.Album).
			Msg("Lookup degraded, leaving album unrecorded")

	default:
		if err := e.store.SetWikipediaURL(ctx, ref.Artist, ref.Album, store.WikipediaNotFound); err != nil {
			return res, err
		}
		e.logger.Debug().
			Str("artist", ref.Artist).
			Str("album", ref.Album).
			Msg("No page found")
	}

	return res, nil
}

// BackfillYears fills missing release years. Sources are tried in order:
// MusicBrainz by album MBID, Last.fm album info, then the infobox of the
// album's stored encyclopedia page.
func (e *Enricher) BackfillYears(ctx context.Context, limit int) (Report, error) {
	var report Report

	refs, err := e.store.AlbumsMissingYear(ctx, limit)
	if err != nil {
		return report, err
	}

	e.logger.Info().Int("albums", len(refs)).Msg("Backfilling release years")

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Processed++

		year, source, failed := e.lookupYear(ctx, ref)
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if year == 0 {
			if failed {
				report.Failed++
			} else {
				report.NotFound++
			}
			continue
		}

		if err := e.store.SetReleaseYear(ctx, ref.Artist, ref.Album, year); err != nil {
			return report, err
		}
		report.Found++
		e.logger.Info().
			Str("artist", ref.Artist).
			Str("album", ref.Album).
			Int("year", year).
			Str("source", source).
			Msg("Found release year")
	}

	return report, nil
}

func (e *Enricher) lookupYear(ctx context.Context, ref store.AlbumRef) (year int, source string, failed bool) {
	log := e.logger.With().Str("artist", ref.Artist).Str("album", ref.Album).Logger()

	if e.years != nil && ref.AlbumMBID != "" {
		y, ok, err := e.years.ReleaseYear(ctx, ref.AlbumMBID)
		if err != nil {
			log.Warn().Err(err).Msg("MusicBrainz lookup failed")
			failed = true
		} else if ok {
			return y, "musicbrainz", false
		}
	}

	if e.info != nil {
		info, err := e.info.GetInfo(ctx, ref.Artist, ref.Album)
		switch {
		case lastfm.IsNotFound(err):
		case err != nil:
			log.Warn().Err(err).Msg("Last.fm lookup failed")
			failed = true
		default:
			if y, ok := info.ReleaseYear(); ok {
				return y, "lastfm", false
			}
		}
	}

	if e.resolver != nil && ref.WikipediaURL != "" && ref.WikipediaURL != store.WikipediaNotFound {
		lang, title, ok := ParsePageURL(ref.WikipediaURL)
		if ok {
			text, err := e.resolver.wiki.Wikitext(ctx, lang, title)
			if err != nil {
				log.Warn().Err(err).Msg("Article fetch failed")
				failed = true
			} else if y, ok := ExtractYear(text); ok {
				return y, "wikipedia", false
			}
		}
	}

	return 0, "", failed
}

// BackfillArtwork fills missing cover art.
func (e *Enricher) BackfillArtwork(ctx context.Context, limit int) (Report, error) {
	var report Report
	if e.artwork == nil {
		return report, nil
	}

	refs, err := e.store.AlbumsMissingArtwork(ctx, limit)
	if err != nil {
		return report, err
	}

	e.logger.Info().Int("albums", len(refs)).Msg("Backfilling artwork")

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Processed++

		artURL, err := e.artwork.Lookup(ctx, ref.Artist, ref.Album)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			e.logger.Warn().
				Err(err).
				Str("artist", ref.Artist).
				Str("album", ref.Album).
				Msg("Artwork lookup failed")
			report.Failed++
			continue
		}
		if artURL == "" {
			report.NotFound++
			continue
		}

		if err := e.store.UpsertAlbumArt(ctx, store.AlbumArt{
			Artist:      ref.Artist,
			Album:       ref.Album,
			ImageXLarge: artURL,
			LastUpdated: e.now().Unix(),
		}); err != nil {
			return report, err
		}
		report.Found++
	}

	return report, nil
}
