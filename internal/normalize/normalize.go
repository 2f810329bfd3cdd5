// Package normalize turns raw track and album titles into canonical
// display titles and comparison keys.
//
// Two modes exist. Clean strips decorative suffixes (remaster, edition,
// mix and credit annotations) and preserves case; its output is what
// gets stored. Key is lossy and is only used to decide whether two
// titles refer to the same thing.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Clean removes known decorative suffixes from title by applying Rules
// in order, then repairs a dangling opening bracket and trims. If the
// result would be empty the original title is returned.
func Clean(title string) string {
	if title == "" {
		return ""
	}

	cleaned := title
	for _, r := range Rules {
		cleaned = r.Pattern.ReplaceAllString(cleaned, "")
	}

	cleaned = strings.TrimSpace(cleaned)
	cleaned = danglingParen.ReplaceAllString(cleaned, "")
	cleaned = danglingBracket.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return title
	}
	return cleaned
}

var (
	quoteReplacer = strings.NewReplacer(
		"‘", "'", "’", "'", "‚", "'", "‛", "'",
		"ʼ", "'", "´", "'", "`", "'", "′", "'",
		"“", "\"", "”", "\"", "„", "\"",
	)
	separatorReplacer = strings.NewReplacer(
		"/", " ", "\\", " ",
		"-", " ", "‐", " ", "‑", " ", "‒", " ",
		"–", " ", "—", " ", "―", " ",
	)
	punctuation = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s]+`)
)

// Key returns the comparison key for title: accents folded, lowercased,
// quotes unified, slashes and dashes turned into spaces, punctuation
// removed and whitespace collapsed.
func Key(title string) string {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return ""
	}

	s := strings.ToLower(foldAccents(trimmed))
	s = quoteReplacer.Replace(s)
	s = separatorReplacer.Replace(s)
	s = punctuation.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")

	if s == "" {
		return strings.ToLower(trimmed)
	}
	return s
}

// foldAccents decomposes s, drops combining marks and recomposes what is
// left, so "Beyoncé" and "Beyonce" fold together.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return norm.NFC.String(s)
	}
	return folded
}

// MatchKey is the key used to decide that two titles from different
// sources name the same track or album.
func MatchKey(title string) string {
	return Key(Clean(title))
}

// editionSuffixes are removed (first match only) before an album title
// is used as a search query.
var editionSuffixes = []string{
	" (Standard Edition)",
	" (Deluxe Edition)",
	" (Expanded Edition)",
	" (Collector's Edition)",
	" (Limited Edition)",
	" (Special Edition)",
	" (Premium Edition)",
	" (Bonus Track Edition)",
	" (Bonus Track Version)",
	" (Remastered)",
	" (Remaster)",
	" - Remastered",
	" - Remaster",
	" (Deluxe Version)",
	" (Explicit Version)",
	" (Clean Version)",
	" (Original Album)",
	" - Original Album",
}

// StripEdition removes a single trailing edition marker from album.
func StripEdition(album string) string {
	for _, suffix := range editionSuffixes {
		if strings.HasSuffix(album, suffix) && len(album) > len(suffix) {
			return album[:len(album)-len(suffix)]
		}
	}
	return album
}

var smallWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "but": true, "or": true,
	"nor": true, "for": true, "so": true, "yet": true, "at": true, "by": true,
	"from": true, "in": true, "into": true, "of": true, "off": true, "on": true,
	"onto": true, "out": true, "over": true, "to": true, "up": true, "with": true,
	"as": true, "via": true,
}

// FixCase lowercases small words ("for", "the", "and", ...) that are
// neither the first nor the last word of title.
func FixCase(title string) string {
	words := strings.Fields(title)
	if len(words) < 3 {
		return title
	}

	changed := false
	for i := 1; i < len(words)-1; i++ {
		lower := strings.ToLower(words[i])
		if smallWords[lower] && words[i] != lower {
			words[i] = lower
			changed = true
		}
	}
	if !changed {
		return title
	}
	return strings.Join(words, " ")
}
