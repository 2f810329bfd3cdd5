// Package reconcile matches an album's official tracklist against the
// scrobbled titles played from it, and finds title mismatches between the
// two for operator review.
package reconcile

import (
	"fmt"
	"sort"

	"github.com/jfmyers9/scrobblesync/internal/normalize"
	"github.com/jfmyers9/scrobblesync/internal/store"
)

// SortOrder selects the ordering of a reconciled tracklist.
type SortOrder int

const (
	// SortTracklist orders by track number.
	SortTracklist SortOrder = iota
	// SortPlays orders by play count descending, then track number.
	SortPlays
)

// ParseSortOrder parses "tracklist" or "plays".
func ParseSortOrder(s string) (SortOrder, error) {
	switch s {
	case "", "tracklist":
		return SortTracklist, nil
	case "plays":
		return SortPlays, nil
	default:
		return SortTracklist, fmt.Errorf("invalid sort order %q (want tracklist or plays)", s)
	}
}

func (o SortOrder) String() string {
	if o == SortPlays {
		return "plays"
	}
	return "tracklist"
}

// TrackPlays is one tracklist entry with its aggregated play count.
type TrackPlays struct {
	Number int
	Track  string // official title
	Plays  int
}

// MatchTracks pairs every official track with the plays recorded under
// any scrobbled title that shares its match key. plays is keyed by raw
// scrobbled title. Each scrobbled title is credited to exactly one track:
// the one whose comparison key equals the title's, else the lowest
// numbered track sharing its match key. Tracks without plays get zero.
// The result is ordered by track number.
func MatchTracks(official []store.CanonicalTrack, plays map[string]int) []TrackPlays {
	rows := make([]TrackPlays, 0, len(official))
	for _, t := range official {
		rows = append(rows, TrackPlays{Number: t.Number, Track: t.Track})
	}
	SortTracks(rows, SortTracklist)

	byKey := make(map[string]int, len(rows))
	byMatchKey := make(map[string]int, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		byKey[normalize.Key(rows[i].Track)] = i
		byMatchKey[normalize.MatchKey(rows[i].Track)] = i
	}

	for title, n := range plays {
		if i, ok := byKey[normalize.Key(title)]; ok {
			rows[i].Plays += n
			continue
		}
		if i, ok := byMatchKey[normalize.MatchKey(title)]; ok {
			rows[i].Plays += n
		}
	}

	return rows
}

// SortTracks orders rows in place.
func SortTracks(rows []TrackPlays, order SortOrder) {
	sort.SliceStable(rows, func(i, j int) bool {
		if order == SortPlays && rows[i].Plays != rows[j].Plays {
			return rows[i].Plays > rows[j].Plays
		}
		return rows[i].Number < rows[j].Number
	})
}
