// Package resolver finds encyclopedia pages, release years and cover art
// for albums in the store.
//
// Page lookup runs a series of increasingly relaxed search queries and
// scores every candidate title with a weighted heuristic. The first
// candidate that clears the acceptance threshold wins; when none does,
// the album is recorded as not found so the search is not repeated.
package resolver

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jfmyers9/scrobblesync/internal/normalize"
)

// Weights are the signals Score adds up. Penalties are stored as
// positive numbers and subtracted.
type Weights struct {
	AlbumInTitle      int `mapstructure:"album_in_title"`
	AlbumAtStart      int `mapstructure:"album_at_start"`
	AlbumTagTrailing  int `mapstructure:"album_tag_trailing"`
	AlbumTagInner     int `mapstructure:"album_tag_inner"`
	ArtistInTitle     int `mapstructure:"artist_in_title"`
	SnippetAlbum      int `mapstructure:"snippet_album"`
	WordOverlapMax    int `mapstructure:"word_overlap_max"`
	WordOverlapEach   int `mapstructure:"word_overlap_each"`
	WrongAlbumPenalty int `mapstructure:"wrong_album_penalty"`
	NoSignalPenalty   int `mapstructure:"no_signal_penalty"`
}

// DefaultWeights returns the stock weight table.
func DefaultWeights() Weights {
	return Weights{
		AlbumInTitle:      50,
		AlbumAtStart:      10,
		AlbumTagTrailing:  40,
		AlbumTagInner:     20,
		ArtistInTitle:     30,
		SnippetAlbum:      20,
		WordOverlapMax:    10,
		WordOverlapEach:   3,
		WrongAlbumPenalty: 30,
		NoSignalPenalty:   40,
	}
}

// DefaultThreshold is the lowest score a candidate needs to be accepted.
// It admits single-word and untagged titles such as "In Rainbows" that
// carry neither the artist nor an "(album)" tag.
const DefaultThreshold = 20

// Rejected is the score of a candidate that can never be accepted.
const Rejected = -1

// Page-type tags are parentheticals whose last word is the type, such as
// "(album)" or "(Michael Jackson song)".
var (
	songTag          = regexp.MustCompile(`(?i)\((?:[^()]*\s)?song\)`)
	albumTag         = regexp.MustCompile(`(?i)\((?:[^()]*\s)?album\)`)
	trailingAlbumTag = regexp.MustCompile(`(?i)\((?:[^()]*\s)?album\)\s*$`)
)

// Candidate is one search hit.
type Candidate struct {
	Title   string
	Snippet string
}

// Score rates how likely c is the page for album by artist. Song pages
// score Rejected; every other score is at least 0.
func Score(w Weights, artist, album string, c Candidate) int {
	if songTag.MatchString(c.Title) {
		return Rejected
	}

	title := titleKey(c.Title)
	albumKey := titleKey(album)
	artistKey := titleKey(artist)

	score := 0

	albumInTitle := strings.Contains(title, albumKey)
	if albumInTitle {
		score += w.AlbumInTitle
		if strings.HasPrefix(title, albumKey) {
			score += w.AlbumAtStart
		}
	}

	tagged := albumTag.MatchString(c.Title)
	if trailingAlbumTag.MatchString(c.Title) {
		score += w.AlbumTagTrailing
	} else if tagged {
		score += w.AlbumTagInner
	}

	artistInTitle := strings.Contains(title, artistKey)
	if artistInTitle {
		score += w.ArtistInTitle
	}

	if !tagged && strings.Contains(strings.ToLower(c.Snippet), "album") {
		score += w.SnippetAlbum
	}

	titleWords := make(map[string]bool)
	for _, word := range strings.Fields(title) {
		titleWords[word] = true
	}
	seen := make(map[string]bool)
	matches := 0
	for _, word := range strings.Fields(albumKey) {
		if utf8.RuneCountInString(word) <= 2 || seen[word] {
			continue
		}
		seen[word] = true
		if titleWords[word] {
			matches++
		}
	}
	if matches > 0 {
		score += min(w.WordOverlapMax, matches*w.WordOverlapEach)
	}

	if tagged && !albumInTitle && !isCompilationTitle(title) {
		score -= w.WrongAlbumPenalty
	}

	if !tagged && !artistInTitle && title != albumKey {
		if !(len(strings.Fields(albumKey)) >= 3 && albumInTitle) {
			score -= w.NoSignalPenalty
		}
	}

	return max(0, score)
}

func isCompilationTitle(key string) bool {
	padded := " " + key + " "
	return strings.Contains(padded, " greatest ") || strings.Contains(padded, " various artists ")
}

// qualifiers are dropped from titles before comparing them. Order
// matters: the bracketed forms must go before the bare words.
var qualifiers = []string{" (album)", " album", " - album", "(album)", "(song)", " song"}

// titleKey is normalize.Key with the page-type qualifiers removed.
func titleKey(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	for _, q := range qualifiers {
		s = strings.ReplaceAll(s, q, "")
	}
	return normalize.Key(s)
}

// Query is one search attempt. Album is the title candidates are scored
// against.
type Query struct {
	Text  string
	Album string
}

// Queries returns the search attempts for an album, most specific first.
// Edition suffixes are stripped from the album title; the unstripped
// title is tried last.
func Queries(artist, album string) []Query {
	clean := normalize.StripEdition(album)

	queries := []Query{
		{Text: fmt.Sprintf(`"%s" (album) %s`, clean, artist), Album: clean},
		{Text: fmt.Sprintf(`"%s" %s`, clean, artist), Album: clean},
		{Text: fmt.Sprintf("%s (album) %s", clean, artist), Album: clean},
		{Text: fmt.Sprintf(`"%s" (album)`, clean), Album: clean},
	}
	if clean != album {
		queries = append(queries, Query{Text: fmt.Sprintf(`"%s" (album) %s`, album, artist), Album: album})
	}
	return queries
}
