package lastfm

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// AlbumService handles album.* API methods.
type AlbumService struct {
	client *Client
}

type albumInfoResponse struct {
	Album *struct {
		Name   string      `json:"name"`
		Artist string      `json:"artist"`
		MBID   string      `json:"mbid"`
		Image  []wireImage `json:"image"`
		Tracks albumTracks `json:"tracks"`
		Wiki   struct {
			Published string `json:"published"`
		} `json:"wiki"`
	} `json:"album"`
}

type wireAlbumTrack struct {
	Name string `json:"name"`
	Attr struct {
		Rank flexInt `json:"rank"`
	} `json:"@attr"`
}

// albumTracks tolerates "tracks" being absent, an empty string or an
// object whose "track" is a list or a single object.
type albumTracks struct {
	Track oneOrMany[wireAlbumTrack]
}

func (a *albumTracks) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		a.Track = nil
		return nil
	}
	var obj struct {
		Track oneOrMany[wireAlbumTrack] `json:"track"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	a.Track = obj.Track
	return nil
}

// GetInfo fetches album metadata and its tracklist with autocorrect
// enabled.
//
// Tracks are returned ordered by track number. A track without a rank
// is numbered after the tracks seen before it. An unknown album is
// reported as an *Error for which NotFound returns true; an album
// without a tracklist returns an AlbumInfo with no tracks.
func (s *AlbumService) GetInfo(ctx context.Context, artist, album string) (*AlbumInfo, error) {
	if artist == "" || album == "" {
		return nil, fmt.Errorf("%w: artist and album are required", ErrInvalidConfig)
	}

	params := url.Values{}
	params.Set("artist", artist)
	params.Set("album", album)
	params.Set("autocorrect", "1")

	body, err := s.client.call(ctx, "album.getInfo", params)
	if err != nil {
		return nil, err
	}

	var resp albumInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse album info: %w", err)
	}
	if resp.Album == nil {
		return nil, &Error{Code: ErrCodeInvalidParameters, Message: "Album not found"}
	}

	a := resp.Album
	info := &AlbumInfo{
		Artist:    a.Artist,
		Name:      a.Name,
		MBID:      a.MBID,
		Images:    toImages(a.Image),
		Published: a.Wiki.Published,
	}

	for _, t := range a.Tracks.Track {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			continue
		}
		number := int(t.Attr.Rank)
		if number <= 0 {
			number = len(info.Tracks) + 1
		}
		info.Tracks = append(info.Tracks, AlbumTrack{Name: name, TrackNumber: number})
	}

	sort.SliceStable(info.Tracks, func(i, j int) bool {
		return info.Tracks[i].TrackNumber < info.Tracks[j].TrackNumber
	})

	return info, nil
}
