package normalize

import "regexp"

// Rule is a single suffix-stripping step. Matches are removed from the
// end of a title.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

func rule(name, pattern string) Rule {
	return Rule{Name: name, Pattern: regexp.MustCompile(`(?i)` + pattern)}
}

// Rules is evaluated top to bottom and the order is significant. A
// separator or year-qualified remaster form must run before the bare
// "Remastered" forms, otherwise the separator or year is left behind as
// residue ("Dub; 2005 Remaster" would become "Dub;"). Do not sort.
var Rules = []Rule{
	// semicolon and slash separated remasters
	rule("bracket-prefix-semicolon-remaster", `\s*[\(\[]\s*[\p{L}\p{N}_\s-]+;\s*\d{4}\s+(?:digital(?:ly)?\s+)?remaster(?:ed)?\s*\)*\s*[\)\]]?\s*$`),
	rule("semicolon-year-remaster-version", `;\s*\d{4}\s+remaster(?:ed)?\s+version\s*$`),
	rule("semicolon-digital-remaster", `;\s*(?:\d{4}\s+)?(?:digitally\s+)?digital\s+remaster(?:ed)?\s*\)*\s*$`),
	rule("semicolon-remaster", `;\s*(?:\d{4}\s+)?remaster(?:ed)?\s*\)*\s*$`),
	rule("slash-remaster", `\s*/\s*remaster(?:ed)?\s*\)*\s*$`),

	// year + remaster, bracketed
	rule("bracket-year-dash-remaster", `\s*[\(\[]\s*\d{4}\s+-\s+remaster(?:ed)?\s*[\)\]]\s*$`),
	rule("bracket-year-remaster-version", `\s*[\(\[]\s*\d{4}\s+remaster(?:ed)?\s+version\s*[\)\]]\s*$`),
	rule("bracket-year-remaster", `\s*[\(\[]\s*\d{4}\s+remaster(?:ed)?\s*[\)\]]\s*$`),

	// year + remaster, dash separated
	rule("dash-year-remaster-version", `\s+-\s+\d{4}\s+remaster(?:ed)?\s+version\s*$`),
	rule("dash-year-remaster", `\s+-\s+\d{4}\s+remaster(?:ed)?\s*$`),
	rule("year-remaster", `\s+\d{4}\s+remaster(?:ed)?\s*$`),

	// remaster before year
	rule("dash-remaster-dash-year", `\s+-\s+remaster(?:ed)?(?:\s+-\s+\d{4})?\s*$`),
	rule("dash-remaster-year", `\s+-\s+remaster(?:ed)?(?:\s+\d{4})?\s*$`),
	rule("remaster-year", `\s+remaster(?:ed)?(?:\s+\d{4})?\s*$`),
	rule("bracket-remaster-dash-year", `\s*[\(\[]\s*remaster(?:ed)?(?:\s+-\s+\d{4})?\s*[\)\]]\s*$`),
	rule("bracket-remaster-year", `\s*[\(\[]\s*remaster(?:ed)?(?:\s+\d{4})?\s*[\)\]]\s*$`),

	// digital remaster
	rule("digital-remaster", `\s+(?:\d{4}\s+)?(?:digitally\s+)?digital\s+remaster(?:ed)?\s*$`),
	rule("bracket-digital-remaster", `\s*[\(\[]\s*(?:\d{4}\s+)?(?:digitally\s+)?digital\s+remaster(?:ed)?\s*[\)\]]\s*$`),

	// expanded
	rule("dash-expanded", `\s+-\s+expanded(?:\s+edition)?\s*$`),
	rule("expanded", `\s+expanded(?:\s+edition)?\s*$`),
	rule("bracket-expanded", `\s*[\(\[]\s*expanded(?:\s+edition)?\s*[\)\]]\s*$`),
	rule("bracket-expanded-version", `\s*[\(\[]\s*expanded\s+version\s*[\)\]]\s*$`),

	// dated mixes
	rule("dash-year-mix", `\s+-\s+\d{4}\s+(?:stereo\s+mix|mono\s+mix|remix|mix|version)\s*$`),
	rule("bracket-year-mix", `\s+[\(\[]\s*\d{4}\s+(?:stereo\s+mix|mono\s+mix|remix|mix|version)\s*[\)\]]\s*$`),
	rule("year-mix", `\s+\d{4}\s+(?:stereo\s+mix|mono\s+mix|remix|mix|version)\s*$`),

	// undated single/album version and mixes
	rule("dash-version", `\s+-\s+(?:single\s+version|album\s+version|remix|mix)\s*$`),
	rule("bracket-version", `\s*[\(\[]\s*(?:single\s+version|album\s+version|remix|mix)\s*[\)\]]\s*$`),

	// remastered LP/CD version
	rule("bracket-remastered-format-version", `\s*[\(\[]\s*remastered\s+(?:lp|cd)\s+version\s*[\)\]]\s*$`),

	// remastered edit and release variants
	rule("bracket-remastered-edit", `\s*[\(\[]\s*remastered\s+(?:edit|uk\s+release|digital\s+release|version)\s*[\)\]]?\s*$`),
	rule("dash-remastered-edit", `\s+-\s+remastered\s+(?:edit|uk\s+release|digital\s+release)\s*$`),
	rule("remastered-edit", `\s+remastered\s+edit\s*$`),
	rule("dash-remastered-year-slash", `\s+-\s+remastered\s+\d{4}\s*[/;]\s*[\p{L}\p{N}_]+\s*$`),

	// 24-bit
	rule("bracket-bit-remaster-number", `\s*[\(\[]\s*\d{2,4}-bit\s+digitally\s+remaster(?:ed)?\s+\d+\s*[\)\]]?\s*$`),
	rule("bracket-bit-remaster", `\s*[\(\[]\s*\d{2,4}-bit\s+digitally\s+remaster(?:ed)?\s*[\)\]]?\s*$`),
	rule("dash-bit-remaster-number", `\s+-\s+\d{2,4}-bit\s+digitally\s+remaster(?:ed)?\s+\d+\s*\)*\s*$`),
	rule("dash-digitally-remastered-number", `\s+-\s+digitally\s+remastered\s+\d+;?\s*\)*\s*$`),

	// bracketed remaster with a trailing qualifier, "[2009 Remaster - Mono]"
	rule("bracket-year-remaster-qualifier", `\s*[\(\[]\s*\d{4}\s+remaster(?:ed)?\s*-\s*[\p{L}\p{N}_]+\s*[\)\]]\s*$`),
	rule("bracket-remaster-number", `\s*[\(\[]\s*(?:digitally\s+)?remaster(?:ed)?\s+\d+\s*[\)\]]?\s*$`),

	// "Version / Remastered"
	rule("version-slash-remaster", `\s*version\s*/\s*remaster(?:ed)?\s*\)*\s*[\)\]]?\s*$`),
	rule("remastered-slash-tail", `\s+remastered\s*/.*$`),

	// collections
	rule("dash-platinum-collection", `\s+-\s+platinum\s+collection(?:\s+version)?\s*$`),
	rule("platinum-collection", `\s+platinum\s+collection(?:\s+version)?\s*$`),
	rule("bracket-platinum-collection", `\s*[\(\[]\s*platinum\s+collection(?:\s+version)?\s*[\)\]]\s*$`),

	// live remasters
	rule("dash-live-year-remastered", `\s+-\s+live\s+\d{4}\s+remastered(?:\s+version)?\s*\)*\s*$`),

	// bracketed complex, "[Single Version - 2009 Remaster - Mono]"
	rule("bracket-complex-remaster", `\s*[\(\[]\s*[\p{L}\p{N}_\s]+\s+-\s+\d{4}\s+remaster(?:ed)?\s*-\s*[\p{L}\p{N}_]+\s*[\)\]]\s*$`),
	rule("dash-year-remaster-qualifier", `\s+-\s+\d{4}\s+remaster(?:ed)?\s*-\s*[\p{L}\p{N}_]+\s*$`),
	rule("paren-remastered-slash", `\s*\(.*remastered\s+/.*\)?\s*$`),

	// edition tags
	rule("bracket-anniversary-edition", `\s*[\(\[]\s*\d+(?:st|nd|rd|th)?\s+anniversary(?:\s+(?:edition|remaster(?:ed)?|version))?\s*[\)\]]\s*$`),
	rule("bracket-edition", `\s*[\(\[]\s*(?:super\s+)?(?:deluxe|special|limited|collector'?s|bonus\s+track|standard|premium)(?:\s+(?:edition|version))?\s*[\)\]]\s*$`),
	rule("dash-edition", `\s+-\s+(?:super\s+)?(?:deluxe|special|limited|collector'?s)(?:\s+(?:edition|version))?\s*$`),

	// credit parentheticals
	rule("bracket-feat", `\s*[\(\[]\s*(?:feat\.?|ft\.|featuring)\s+[^\)\]]*[\)\]]\s*$`),
	rule("bracket-with", `\s*[\(\[]\s*with\s+[^\)\]]*[\)\]]\s*$`),
	rule("bracket-from", `\s*[\(\[]\s*from\s+[^\)\]]*[\)\]]\s*$`),

	// other languages
	rule("bracket-remaster-foreign", `\s*[\(\[]\s*(?:\d{4}\s+)?(?:remasterizado|remasterizada|remasteris[eé]|remasterizzato|remasterisiert|zremasterowan[ya])(?:\s+\d{4})?\s*[\)\]]\s*$`),
	rule("dash-remaster-foreign", `\s+-\s+(?:\d{4}\s+)?(?:remasterizado|remasterizada|remasteris[eé]|remasterizzato|remasterisiert|zremasterowan[ya])(?:\s+\d{4})?\s*$`),
	rule("bracket-film-credit-pl", `\s*[\(\[]\s*z\s+filmu\s+[^\)\]]*[\)\]]\s*$`),
}

// Dangling brackets left behind when a rule consumes the closing half of
// an annotation.
var (
	danglingParen   = regexp.MustCompile(`\s*\(\s*[^)]*$`)
	danglingBracket = regexp.MustCompile(`\s*\[\s*[^\]]*$`)
)
