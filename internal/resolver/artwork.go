package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const defaultITunesAPI = "https://itunes.apple.com/search"

// ArtworkClient fetches album cover URLs from the iTunes Search API and
// caches results to avoid repeated lookups for the same album.
type ArtworkClient struct {
	src      *httpSource
	endpoint string

	mu    sync.Mutex
	cache map[string]string
}

// NewArtworkClient creates an ArtworkClient.
func NewArtworkClient(cfg ClientConfig, logger zerolog.Logger) *ArtworkClient {
	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = defaultITunesAPI
	}
	return &ArtworkClient{
		src:      newHTTPSource("itunes", cfg, logger),
		endpoint: endpoint,
		cache:    make(map[string]string),
	}
}

type itunesResponse struct {
	Results []itunesResult `json:"results"`
}

type itunesResult struct {
	ArtworkURL100 string `json:"artworkUrl100"`
}

// Lookup returns a 600x600 cover URL for the given artist and album, or
// an empty string when the catalog has none. Albums missing from the
// album index are retried against the song index, which also lists
// singles. Misses are cached; errors are not.
func (a *ArtworkClient) Lookup(ctx context.Context, artist, album string) (string, error) {
	key := artist + "|" + album
	a.mu.Lock()
	if artURL, ok := a.cache[key]; ok {
		a.mu.Unlock()
		return artURL, nil
	}
	a.mu.Unlock()

	var artURL string
	for _, entity := range []string{"album", "song"} {
		var err error
		artURL, err = a.fetch(ctx, artist, album, entity)
		if err != nil {
			return "", err
		}
		if artURL != "" {
			break
		}
	}

	a.mu.Lock()
	a.cache[key] = artURL
	a.mu.Unlock()

	return artURL, nil
}

func (a *ArtworkClient) fetch(ctx context.Context, artist, album, entity string) (string, error) {
	query := url.Values{
		"term":   {artist + " " + album},
		"entity": {entity},
		"limit":  {"1"},
	}

	var result itunesResponse
	if err := a.src.getJSON(ctx, fmt.Sprintf("%s?%s", a.endpoint, query.Encode()), &result); err != nil {
		return "", err
	}
	if len(result.Results) == 0 || result.Results[0].ArtworkURL100 == "" {
		return "", nil
	}

	return strings.Replace(result.Results[0].ArtworkURL100, "100x100bb", "600x600bb", 1), nil
}
