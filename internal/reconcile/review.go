package reconcile

import (
	"context"
	"fmt"
	"sort"

	"github.com/jfmyers9/scrobblesync/internal/store"
)

// Decision is an operator's verdict on one mismatch.
type Decision int

const (
	// Skip leaves both titles unchanged.
	Skip Decision = iota
	// ApplyNormalized renames both sides to the normalized title.
	ApplyNormalized
	// PreferScrobble renames the tracklist side to the scrobbled title.
	PreferScrobble
	// PreferTracklist renames the scrobble side to the tracklist title.
	PreferTracklist
)

func (d Decision) String() string {
	switch d {
	case ApplyNormalized:
		return "apply normalized"
	case PreferScrobble:
		return "prefer scrobble"
	case PreferTracklist:
		return "prefer tracklist"
	default:
		return "skip"
	}
}

// Scope limits which mismatch levels a review covers.
type Scope int

const (
	ScopeBoth Scope = iota
	ScopeAlbums
	ScopeTracks
)

// Renamer applies approved title changes.
type Renamer interface {
	ApplyRenames(ctx context.Context, renames []store.Rename) (int, error)
}

// ReviewQueue walks mismatches in review order and collects approved
// renames. Nothing is written until Commit.
type ReviewQueue struct {
	items    []Mismatch
	pos      int
	approved []store.Rename
	decided  int
}

// NewReviewQueue orders mismatches for review: album mismatches before
// track mismatches, and within each level the priority kinds first, then
// the remaining kinds alphabetically.
func NewReviewQueue(mismatches []Mismatch, scope Scope) *ReviewQueue {
	var items []Mismatch
	for _, m := range mismatches {
		if scope == ScopeAlbums && m.Level != LevelAlbum {
			continue
		}
		if scope == ScopeTracks && m.Level != LevelTrack {
			continue
		}
		items = append(items, m)
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Level != b.Level {
			return a.Level < b.Level
		}
		ra, rb := kindRank(a.Kind), kindRank(b.Kind)
		if ra != rb {
			return ra < rb
		}
		return a.Kind < b.Kind
	})

	return &ReviewQueue{items: items}
}

func kindRank(kind string) int {
	for i, k := range priorityKinds {
		if k == kind {
			return i
		}
	}
	return len(priorityKinds)
}

// Len returns the number of mismatches in the queue.
func (q *ReviewQueue) Len() int { return len(q.items) }

// Position returns the 0-based index of the current mismatch.
func (q *ReviewQueue) Position() int { return q.pos }

// Next returns the current mismatch. ok is false once every mismatch has
// been decided.
func (q *ReviewQueue) Next() (m Mismatch, ok bool) {
	if q.pos >= len(q.items) {
		return Mismatch{}, false
	}
	return q.items[q.pos], true
}

// Decide records the verdict for the current mismatch and advances.
func (q *ReviewQueue) Decide(d Decision) error {
	m, ok := q.Next()
	if !ok {
		return fmt.Errorf("review queue is exhausted")
	}
	q.pos++
	if d == Skip {
		return nil
	}
	q.approved = append(q.approved, renamesFor(m, d)...)
	q.decided++
	return nil
}

// Approved returns the number of mismatches approved so far.
func (q *ReviewQueue) Approved() int { return q.decided }

// Renames returns the pending renames in decision order.
func (q *ReviewQueue) Renames() []store.Rename {
	return append([]store.Rename(nil), q.approved...)
}

// Commit applies every approved rename in one transaction and clears
// the pending list.
func (q *ReviewQueue) Commit(ctx context.Context, r Renamer) (int, error) {
	if len(q.approved) == 0 {
		return 0, nil
	}
	n, err := r.ApplyRenames(ctx, q.approved)
	if err != nil {
		return 0, fmt.Errorf("failed to apply renames: %w", err)
	}
	q.approved = nil
	q.decided = 0
	return n, nil
}

// Discard drops every approved rename.
func (q *ReviewQueue) Discard() {
	q.approved = nil
	q.decided = 0
}

func renamesFor(m Mismatch, d Decision) []store.Rename {
	var scrobbleTo, tracklistTo string
	switch d {
	case ApplyNormalized:
		scrobbleTo, tracklistTo = m.Normalized, m.Normalized
	case PreferScrobble:
		tracklistTo = m.Scrobble
	case PreferTracklist:
		scrobbleTo = m.Tracklist
	}

	var out []store.Rename
	if scrobbleTo != "" && scrobbleTo != m.Scrobble {
		out = append(out, rename(m, "scrobble", m.Scrobble, scrobbleTo))
	}
	if tracklistTo != "" && tracklistTo != m.Tracklist {
		out = append(out, rename(m, "album_tracks", m.Tracklist, tracklistTo))
	}
	return out
}

func rename(m Mismatch, table, from, to string) store.Rename {
	if m.Level == LevelAlbum {
		return store.Rename{Table: table, Artist: m.Artist, Album: from, To: to}
	}
	return store.Rename{Table: table, Artist: m.Artist, Album: m.Album, Track: from, To: to}
}
