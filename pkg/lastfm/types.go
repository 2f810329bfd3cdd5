package lastfm

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Images holds the cover image URLs for an album, by size. Empty
// strings mean the size was not provided.
type Images struct {
	Small  string
	Medium string
	Large  string
	XLarge string
}

// Empty reports whether no image URL is set.
func (i Images) Empty() bool {
	return i.Small == "" && i.Medium == "" && i.Large == "" && i.XLarge == ""
}

// RecentTrack is one item from user.getRecentTracks.
type RecentTrack struct {
	Name       string
	MBID       string
	Artist     string
	ArtistMBID string
	Album      string
	AlbumMBID  string
	Images     Images

	// NowPlaying is set for the track currently playing. It has not
	// been scrobbled yet and carries no timestamp.
	NowPlaying bool

	// UTS is the raw "date.uts" value; empty when the item has no date.
	UTS string
}

// PlayedAt parses UTS as Unix seconds.
func (t RecentTrack) PlayedAt() (int64, bool) {
	if t.UTS == "" {
		return 0, false
	}
	uts, err := strconv.ParseInt(strings.TrimSpace(t.UTS), 10, 64)
	if err != nil || uts <= 0 {
		return 0, false
	}
	return uts, true
}

// RecentTracksPage is a single page of a user's listening history.
type RecentTracksPage struct {
	Page       int
	PerPage    int
	TotalPages int
	Total      int
	Tracks     []RecentTrack
}

// AlbumTrack is one entry of an album tracklist.
type AlbumTrack struct {
	Name        string
	TrackNumber int
}

// AlbumInfo is the subset of album.getInfo used for tracklists.
type AlbumInfo struct {
	Artist    string
	Name      string
	MBID      string
	Images    Images
	Tracks    []AlbumTrack
	Published string // wiki publication date, free text
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// ReleaseYear extracts a year from the wiki publication date.
func (a AlbumInfo) ReleaseYear() (int, bool) {
	m := yearPattern.FindString(a.Published)
	if m == "" {
		return 0, false
	}
	year, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return year, true
}

// oneOrMany decodes a JSON value that the API sends either as a list or,
// when it has a single element, as a bare object.
type oneOrMany[T any] []T

func (o *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) || data[0] == '"' {
		*o = nil
		return nil
	}
	if data[0] == '[' {
		var many []T
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*o = many
		return nil
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*o = []T{one}
	return nil
}

// flexInt decodes numbers the API sends either as JSON numbers or as
// strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

// textField decodes an entity reference that is either a plain string
// or an object carrying "#text" (or "name") and "mbid".
type textField struct {
	Text string
	MBID string
}

func (t *textField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &t.Text)
	}
	var obj struct {
		Text string `json:"#text"`
		Name string `json:"name"`
		MBID string `json:"mbid"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	t.Text = obj.Text
	if t.Text == "" {
		t.Text = obj.Name
	}
	t.MBID = obj.MBID
	return nil
}

type wireImage struct {
	Size string `json:"size"`
	URL  string `json:"#text"`
}

func toImages(in []wireImage) Images {
	var out Images
	for _, img := range in {
		if img.URL == "" {
			continue
		}
		switch img.Size {
		case "small":
			out.Small = img.URL
		case "medium":
			out.Medium = img.URL
		case "large":
			out.Large = img.URL
		case "extralarge", "mega":
			out.XLarge = img.URL
		}
	}
	return out
}
