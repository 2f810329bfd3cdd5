package reconcile

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/jfmyers9/scrobblesync/internal/store"
)

// Level says whether a mismatch concerns album titles or track titles.
type Level int

const (
	LevelAlbum Level = iota
	LevelTrack
)

func (l Level) String() string {
	if l == LevelTrack {
		return "track"
	}
	return "album"
}

// Mismatch kinds, as returned by Classify.
const (
	KindTracklistSuffix    = "album_tracks has suffix, scrobble cleaned"
	KindScrobbleSuffix     = "scrobble has suffix, album_tracks cleaned"
	KindTracklistDuplicate = "duplicate suffix in album_tracks"
	KindScrobbleDuplicate  = "duplicate suffix in scrobble"
	KindTracklistRemix     = "remix version in album_tracks"
	KindScrobbleRemix      = "remix version in scrobble"
	KindTracklistLive      = "live version in album_tracks"
	KindScrobbleLive       = "live version in scrobble"
	KindCase               = "case difference"
	KindSimilar            = "similar spelling"
	KindOther              = "other"
)

// priorityKinds are reviewed first, in this order.
var priorityKinds = []string{KindTracklistSuffix, KindTracklistDuplicate, KindCase}

// Mismatch is a pair of distinct raw titles, one from the scrobble table
// and one from a stored tracklist, that refer to the same album or track.
type Mismatch struct {
	Level      Level
	Artist     string
	Album      string // for track mismatches, the album both titles belong to
	Scrobble   string
	Tracklist  string
	Normalized string
	Kind       string
	Plays      int // plays under the scrobbled title
}

// suffixPatterns strip edition and version tags before comparing titles
// for review. Unlike the normalize rules they match anywhere in the
// title. The first suffixCheckPatterns entries are used by Classify.
var suffixPatterns = compileAll(
	`\s*-\s*Remastered(\s+\d{4})?`,
	`\s*-\s*\d{4}\s+Remastered`,
	`\s*-\s*\d{4}\s+Remaster`,
	`\s*\(Remastered(\s+\d{4})?\)`,
	`\s*\(Remaster\)`,
	`\s*-\s*Expanded\s+Edition`,
	`\s*\(Expanded\s+Edition\)`,
	`\s*-\s*Deluxe\s+Edition`,
	`\s*\(Deluxe\s+Edition\)`,
	`\s*-\s*Deluxe`,
	`\s*\(Deluxe\)`,
	`\s*-\s*Special\s+Edition`,
	`\s*\(Special\s+Edition\)`,
	`\s*-\s*Limited\s+Edition`,
	`\s*\(Limited\s+Edition\)`,
	`\s*-\s*Collector'?s?\s+Edition`,
	`\s*\(Collector'?s?\s+Edition\)`,
	`\s*-\s*Bonus\s+Track`,
	`\s*\(Bonus\s+Track\)`,
	`\s*\(Bonus\s+Tracks\)`,
	`\s*\[Bonus.*?\]`,
	`\s*-\s*Single\s+Version`,
	`\s*\(Single\s+Version\)`,
	`\s*-\s*Album\s+Version`,
	`\s*\(Album\s+Version\)`,
	`\s*-\s*Radio\s+Edit`,
	`\s*\(Radio\s+Edit\)`,
	`\s*-\s*Original.*?\)`,
	`\s*\(Original.*?\)`,
	`\s*\(feat\..*?\)`,
	`\s*\(with.*?\)`,
	`\s*\(from.*?\)`,
	`\s*\(z\s+filmu.*?\)`,
	`\s*-\s*z\s+filmu.*?\)`,
	`\s*\(demo.*?\)`,
	`\s*-\s*demo`,
	`\s*-\s*\d{4}\s+Version`,
	`\s*\[Explicit\]`,
	`\s*\(Live.*?\)`,
	`\s*-\s*Live`,
	`\s*\(.*?Remix.*?\)`,
	`\s*-\s*.*?Remix`,
	`\s*\(Bonus Track Version\)`,
	`\s*\(Spotify Exclusive\)`,
)

const suffixCheckPatterns = 20

var (
	parenGroup = regexp.MustCompile(`\s*\([^)]+\)`)
	remixTag   = regexp.MustCompile(`(?i)\(.*?remix.*?\)|-\s*.*?remix`)
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// reviewName strips edition tags and repeated parentheticals from a
// title.
func reviewName(name string) string {
	for _, re := range suffixPatterns {
		name = re.ReplaceAllString(name, "")
	}
	name = strings.TrimSpace(name)
	for {
		collapsed, ok := collapseDuplicateParens(name)
		if !ok {
			break
		}
		name = collapsed
	}
	return strings.TrimSpace(name)
}

// collapseDuplicateParens removes the first parenthetical that exactly
// repeats the one before it, as in "Song (z filmu X) (z filmu X)".
func collapseDuplicateParens(name string) (string, bool) {
	locs := parenGroup.FindAllStringIndex(name, -1)
	for i := 1; i < len(locs); i++ {
		prev, cur := locs[i-1], locs[i]
		if prev[1] != cur[0] {
			continue
		}
		if strings.EqualFold(name[prev[0]:prev[1]], name[cur[0]:cur[1]]) {
			return name[:cur[0]] + name[cur[1]:], true
		}
	}
	return name, false
}

func hasDuplicateParens(name string) bool {
	_, ok := collapseDuplicateParens(name)
	return ok
}

// Classify explains why a scrobbled title and a tracklist title differ.
func Classify(scrobble, tracklist string) string {
	s, a := strings.ToLower(scrobble), strings.ToLower(tracklist)

	for _, re := range suffixPatterns[:suffixCheckPatterns] {
		if m := re.FindString(tracklist); m != "" && !re.MatchString(scrobble) {
			if strings.ToLower(scrobble+m) == a {
				return KindTracklistSuffix
			}
		}
	}
	for _, re := range suffixPatterns[:suffixCheckPatterns] {
		if m := re.FindString(scrobble); m != "" && !re.MatchString(tracklist) {
			if strings.ToLower(tracklist+m) == s {
				return KindScrobbleSuffix
			}
		}
	}

	if hasDuplicateParens(tracklist) {
		return KindTracklistDuplicate
	}
	if hasDuplicateParens(scrobble) {
		return KindScrobbleDuplicate
	}

	if remixTag.MatchString(tracklist) {
		return KindTracklistRemix
	}
	if remixTag.MatchString(scrobble) {
		return KindScrobbleRemix
	}

	if strings.Contains(a, "live") && !strings.Contains(s, "live") && strings.Contains(a, s) {
		return KindTracklistLive
	}
	if strings.Contains(s, "live") && !strings.Contains(a, "live") && strings.Contains(s, a) {
		return KindScrobbleLive
	}

	if s == a {
		return KindCase
	}
	return KindOther
}

// similarity returns 1 for identical strings and falls toward 0 with
// edit distance.
func similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// MinSimilarity is the similarity at which an otherwise unmatched
// scrobbled title is paired with its nearest tracklist title.
const MinSimilarity = 0.85

// MismatchStore is the data the mismatch finder reads.
type MismatchStore interface {
	ScrobbleTitles(ctx context.Context) ([]store.TitleCount, error)
	AllAlbumTracks(ctx context.Context) ([]store.CanonicalTrack, error)
}

type albumKey struct{ artist, album string }

// FindMismatches compares every scrobbled album and track title with the
// stored tracklists of the same artist. Titles that differ raw but agree
// once edition tags are stripped are reported; within an album, a
// scrobbled title left unpaired is also reported against its nearest
// tracklist title when they are at least MinSimilarity alike.
func FindMismatches(ctx context.Context, st MismatchStore) ([]Mismatch, error) {
	titles, err := st.ScrobbleTitles(ctx)
	if err != nil {
		return nil, err
	}
	official, err := st.AllAlbumTracks(ctx)
	if err != nil {
		return nil, err
	}

	scrobbleTracks := make(map[albumKey]map[string]int)
	scrobbleAlbums := make(map[string]map[string]bool)
	for _, t := range titles {
		k := albumKey{t.Artist, t.Album}
		if scrobbleTracks[k] == nil {
			scrobbleTracks[k] = make(map[string]int)
		}
		scrobbleTracks[k][t.Track] += t.Plays
		if scrobbleAlbums[t.Artist] == nil {
			scrobbleAlbums[t.Artist] = make(map[string]bool)
		}
		scrobbleAlbums[t.Artist][t.Album] = true
	}

	officialTracks := make(map[albumKey]map[string]bool)
	officialAlbums := make(map[string]map[string]bool)
	for _, t := range official {
		if t.Album == "" || t.Track == "" {
			continue
		}
		k := albumKey{t.Artist, t.Album}
		if officialTracks[k] == nil {
			officialTracks[k] = make(map[string]bool)
		}
		officialTracks[k][t.Track] = true
		if officialAlbums[t.Artist] == nil {
			officialAlbums[t.Artist] = make(map[string]bool)
		}
		officialAlbums[t.Artist][t.Album] = true
	}

	var out []Mismatch

	for _, artist := range sortedKeys(scrobbleAlbums) {
		theirs, ok := officialAlbums[artist]
		if !ok {
			continue
		}
		for _, s := range sortedKeys(scrobbleAlbums[artist]) {
			plays := sum(scrobbleTracks[albumKey{artist, s}])
			for _, a := range sortedKeys(theirs) {
				if m, ok := pair(s, a); ok {
					m.Level, m.Artist, m.Album, m.Plays = LevelAlbum, artist, s, plays
					out = append(out, m)
				}
			}
		}
	}

	keys := make([]albumKey, 0, len(scrobbleTracks))
	for k := range scrobbleTracks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].artist != keys[j].artist {
			return keys[i].artist < keys[j].artist
		}
		return keys[i].album < keys[j].album
	})

	for _, k := range keys {
		theirs, ok := officialTracks[k]
		if !ok {
			continue
		}
		ours := scrobbleTracks[k]
		officialNames := sortedKeys(theirs)

		for _, s := range sortedKeys(ours) {
			if theirs[s] {
				continue
			}
			paired := false
			for _, a := range officialNames {
				if m, ok := pair(s, a); ok {
					m.Level, m.Artist, m.Album, m.Plays = LevelTrack, k.artist, k.album, ours[s]
					out = append(out, m)
					paired = true
				}
			}
			if paired {
				continue
			}

			best, score := "", 0.0
			for _, a := range officialNames {
				if sim := similarity(s, a); sim > score {
					best, score = a, sim
				}
			}
			if best != "" && score >= MinSimilarity {
				kind := Classify(s, best)
				if kind == KindOther {
					kind = KindSimilar
				}
				out = append(out, Mismatch{
					Level:      LevelTrack,
					Artist:     k.artist,
					Album:      k.album,
					Scrobble:   s,
					Tracklist:  best,
					Normalized: best,
					Kind:       kind,
					Plays:      ours[s],
				})
			}
		}
	}

	return out, nil
}

// pair reports whether two distinct raw titles agree once edition tags
// are stripped.
func pair(scrobble, tracklist string) (Mismatch, bool) {
	if scrobble == tracklist {
		return Mismatch{}, false
	}
	sn, an := reviewName(scrobble), reviewName(tracklist)
	if sn == "" || !strings.EqualFold(sn, an) {
		return Mismatch{}, false
	}
	return Mismatch{
		Scrobble:   scrobble,
		Tracklist:  tracklist,
		Normalized: sn,
		Kind:       Classify(scrobble, tracklist),
	}, true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
