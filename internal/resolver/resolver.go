package resolver

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// ErrNoMatch means no search hit cleared the acceptance threshold.
var ErrNoMatch = errors.New("no acceptable match")

// Wiki is the encyclopedia API the resolver searches. *WikipediaClient
// satisfies it.
type Wiki interface {
	Search(ctx context.Context, lang, query string) ([]Candidate, error)
	Wikitext(ctx context.Context, lang, title string) (string, error)
}

// DefaultLanguages are the editions searched, in order.
var DefaultLanguages = []string{"en", "pl"}

// Result is the outcome of one album lookup.
type Result struct {
	Found bool
	URL   string
	Lang  string
	Title string
	Year  int // 0 when the article gives none

	// Degraded is set when at least one query failed, so a miss may be
	// caused by an outage rather than a missing page.
	Degraded bool
}

// Resolver finds the encyclopedia page of an album.
type Resolver struct {
	wiki      Wiki
	weights   Weights
	threshold int
	languages []string
	logger    zerolog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithWeights overrides the scoring weights.
func WithWeights(w Weights) Option {
	return func(r *Resolver) { r.weights = w }
}

// WithThreshold overrides the acceptance threshold.
func WithThreshold(threshold int) Option {
	return func(r *Resolver) { r.threshold = threshold }
}

// WithLanguages sets the editions searched, in order.
func WithLanguages(langs ...string) Option {
	return func(r *Resolver) {
		if len(langs) > 0 {
			r.languages = langs
		}
	}
}

// New creates a Resolver.
func New(wiki Wiki, logger zerolog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		wiki:      wiki,
		weights:   DefaultWeights(),
		threshold: DefaultThreshold,
		languages: DefaultLanguages,
		logger:    logger.With().Str("component", "resolver").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve searches each language edition with every query from Queries
// and stops at the first accepted candidate. A failed query counts as a
// miss. When a page is found its release year is read from the article.
// Resolve never fails; a cancelled context yields a miss.
func (r *Resolver) Resolve(ctx context.Context, artist, album string) Result {
	var result Result

	for _, lang := range r.languages {
		for _, q := range Queries(artist, album) {
			if ctx.Err() != nil {
				return result
			}

			title, err := r.try(ctx, lang, artist, q)
			if errors.Is(err, ErrNoMatch) {
				continue
			}
			if err != nil {
				result.Degraded = true
				r.logger.Warn().
					Err(err).
					Str("lang", lang).
					Str("query", q.Text).
					Msg("Search query failed")
				continue
			}

			result.Found = true
			result.Lang = lang
			result.Title = title
			result.URL = PageURL(lang, title)
			result.Year = r.year(ctx, lang, title)
			return result
		}
	}

	return result
}

func (r *Resolver) try(ctx context.Context, lang, artist string, q Query) (string, error) {
	candidates, err := r.wiki.Search(ctx, lang, q.Text)
	if err != nil {
		return "", err
	}

	best, bestScore := "", Rejected
	for _, c := range candidates {
		if c.Title == "" {
			continue
		}
		score := Score(r.weights, artist, q.Album, c)
		if score == Rejected {
			continue
		}
		if score > bestScore {
			best, bestScore = c.Title, score
		}
	}

	r.logger.Debug().
		Str("lang", lang).
		Str("query", q.Text).
		Int("candidates", len(candidates)).
		Str("best", best).
		Int("score", bestScore).
		Msg("Scored search results")

	if best == "" || bestScore < r.threshold {
		return "", ErrNoMatch
	}
	return best, nil
}

func (r *Resolver) year(ctx context.Context, lang, title string) int {
	text, err := r.wiki.Wikitext(ctx, lang, title)
	if err != nil {
		r.logger.Debug().Err(err).Str("title", title).Msg("Failed to fetch article")
		return 0
	}
	year, _ := ExtractYear(text)
	return year
}
