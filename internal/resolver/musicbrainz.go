package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"

	"github.com/rs/zerolog"
)

const defaultMusicBrainzAPI = "https://musicbrainz.org/ws/2"

// MusicBrainzClient looks up release dates by MusicBrainz identifier.
// The public API allows one request per second.
type MusicBrainzClient struct {
	src     *httpSource
	baseURL string
}

// NewMusicBrainzClient creates a MusicBrainzClient.
func NewMusicBrainzClient(cfg ClientConfig, logger zerolog.Logger) *MusicBrainzClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultMusicBrainzAPI
	}
	return &MusicBrainzClient{
		src:     newHTTPSource("musicbrainz", cfg, logger),
		baseURL: baseURL,
	}
}

type releaseGroup struct {
	ID               string `json:"id"`
	FirstReleaseDate string `json:"first-release-date"`
}

type release struct {
	ReleaseGroup *releaseGroup `json:"release-group"`
}

var leadingYear = regexp.MustCompile(`^(\d{4})`)

// ReleaseYear returns the first release year of the release group or
// release identified by mbid. ok is false when neither is known.
func (c *MusicBrainzClient) ReleaseYear(ctx context.Context, mbid string) (int, bool, error) {
	if mbid == "" {
		return 0, false, nil
	}

	year, ok, err := c.releaseGroupYear(ctx, mbid)
	if err != nil && !errors.Is(err, errNotFound) {
		return 0, false, err
	}
	if ok {
		return year, true, nil
	}

	var rel release
	endpoint := fmt.Sprintf("%s/release/%s?%s", c.baseURL, url.PathEscape(mbid),
		url.Values{"inc": {"release-groups"}, "fmt": {"json"}}.Encode())
	err = c.src.getJSON(ctx, endpoint, &rel)
	if errors.Is(err, errNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if rel.ReleaseGroup == nil {
		return 0, false, nil
	}
	if year, ok := parseDateYear(rel.ReleaseGroup.FirstReleaseDate); ok {
		return year, true, nil
	}
	if rel.ReleaseGroup.ID == "" {
		return 0, false, nil
	}

	year, ok, err = c.releaseGroupYear(ctx, rel.ReleaseGroup.ID)
	if errors.Is(err, errNotFound) {
		return 0, false, nil
	}
	return year, ok, err
}

func (c *MusicBrainzClient) releaseGroupYear(ctx context.Context, id string) (int, bool, error) {
	var rg releaseGroup
	endpoint := fmt.Sprintf("%s/release-group/%s?fmt=json", c.baseURL, url.PathEscape(id))
	if err := c.src.getJSON(ctx, endpoint, &rg); err != nil {
		return 0, false, err
	}
	year, ok := parseDateYear(rg.FirstReleaseDate)
	return year, ok, nil
}

func parseDateYear(date string) (int, bool) {
	m := leadingYear.FindStringSubmatch(date)
	if m == nil {
		return 0, false
	}
	return validYear(m[1])
}
