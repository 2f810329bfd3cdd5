package resolver

import (
	"regexp"
	"strconv"
)

// yearPatterns are tried in order; each captures a four-digit year.
var yearPatterns = []*regexp.Regexp{
	// | released = {{Start date|1997|05|21|df=y}}
	regexp.MustCompile(`(?i)\|\s*(?:released|wydany|data wydania)\s*=[^\n]*?\{\{\s*start date(?: and age)?\s*\|(?:\s*[a-z]+\s*=[^|}]*\|)*\s*(\d{4})`),
	// {{Release date|...}}, {{Film date|...}}, {{dts|...}}
	regexp.MustCompile(`(?i)\{\{\s*(?:release date|film date|dts)\s*\|(?:\s*[a-z]+\s*=[^|}]*\|)*\s*(\d{4})`),
	// | released = 21 May 1997
	regexp.MustCompile(`(?i)\|\s*(?:released|wydany|data wydania)\s*=[^\n]*?\b(\d{4})\b`),
	// "... was released in 1997"
	regexp.MustCompile(`(?i)released[^.\n]{0,100}?\b(\d{4})\b`),
}

// ExtractYear finds the first release year in article markup. Years
// outside 1900-2099 are ignored.
func ExtractYear(wikitext string) (int, bool) {
	for _, re := range yearPatterns {
		for _, m := range re.FindAllStringSubmatch(wikitext, -1) {
			if year, ok := validYear(m[1]); ok {
				return year, true
			}
		}
	}
	return 0, false
}

func validYear(s string) (int, bool) {
	year, err := strconv.Atoi(s)
	if err != nil || year < 1900 || year > 2099 {
		return 0, false
	}
	return year, true
}
