package lastfm

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"
)

// MaxPageSize is the largest page size user.getRecentTracks accepts.
const MaxPageSize = 200

// UserService handles user.* API methods.
type UserService struct {
	client *Client
}

// RecentTracksParams selects a page of listening history.
type RecentTracksParams struct {
	User  string // Required: Last.fm username
	From  int64  // Optional: only return scrobbles at or after this Unix time
	To    int64  // Optional: only return scrobbles at or before this Unix time
	Page  int    // Optional: 1-based page number (defaults to 1)
	Limit int    // Optional: page size, at most MaxPageSize (defaults to MaxPageSize)
}

type recentTracksResponse struct {
	RecentTracks struct {
		Track oneOrMany[wireRecentTrack] `json:"track"`
		Attr  struct {
			Page       flexInt `json:"page"`
			PerPage    flexInt `json:"perPage"`
			TotalPages flexInt `json:"totalPages"`
			Total      flexInt `json:"total"`
		} `json:"@attr"`
	} `json:"recenttracks"`
}

type wireRecentTrack struct {
	Name   string      `json:"name"`
	MBID   string      `json:"mbid"`
	Artist textField   `json:"artist"`
	Album  textField   `json:"album"`
	Image  []wireImage `json:"image"`
	Date   *struct {
		UTS string `json:"uts"`
	} `json:"date"`
	Attr *struct {
		NowPlaying string `json:"nowplaying"`
	} `json:"@attr"`
}

// GetRecentTracks fetches one page of the user's recent tracks.
//
// The first item of the first page may be the track currently playing;
// it is returned with NowPlaying set and no UTS.
func (s *UserService) GetRecentTracks(ctx context.Context, p RecentTracksParams) (*RecentTracksPage, error) {
	if p.User == "" {
		return nil, fmt.Errorf("%w: user is required", ErrInvalidConfig)
	}

	limit := p.Limit
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	page := p.Page
	if page <= 0 {
		page = 1
	}

	params := url.Values{}
	params.Set("user", p.User)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("page", strconv.Itoa(page))
	if p.From > 0 {
		params.Set("from", strconv.FormatInt(p.From, 10))
	}
	if p.To > 0 {
		params.Set("to", strconv.FormatInt(p.To, 10))
	}

	body, err := s.client.call(ctx, "user.getRecentTracks", params)
	if err != nil {
		return nil, err
	}

	var resp recentTracksResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse recent tracks: %w", err)
	}

	rt := resp.RecentTracks
	out := &RecentTracksPage{
		Page:       int(rt.Attr.Page),
		PerPage:    int(rt.Attr.PerPage),
		TotalPages: int(rt.Attr.TotalPages),
		Total:      int(rt.Attr.Total),
		Tracks:     make([]RecentTrack, 0, len(rt.Track)),
	}
	if out.Page == 0 {
		out.Page = page
	}

	for _, t := range rt.Track {
		track := RecentTrack{
			Name:       t.Name,
			MBID:       t.MBID,
			Artist:     t.Artist.Text,
			ArtistMBID: t.Artist.MBID,
			Album:      t.Album.Text,
			AlbumMBID:  t.Album.MBID,
			Images:     toImages(t.Image),
			NowPlaying: t.Attr != nil && t.Attr.NowPlaying == "true",
		}
		if t.Date != nil {
			track.UTS = t.Date.UTS
		}
		out.Tracks = append(out.Tracks, track)
	}

	return out, nil
}
