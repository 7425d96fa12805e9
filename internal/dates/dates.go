// Package dates turns free-text date expressions into canonical year, range or decade strings.
//
// Canonical forms are "YYYY", "YYYY-YYYY" and "YYYYs". Day and month are
// discarded: the corpus is indexed by year.
package dates

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mtl-archives/photometa/internal/textnorm"
)

const (
	MinYear = 1800
	MaxYear = 2100
)

const monthWord = `([a-zéèûôâîç]+)`

var (
	decadePattern     = regexp.MustCompile(`(?i)^(\p{L}+)\s+(\d{4})`)
	fullRangePattern  = regexp.MustCompile(`^(\d{4})\s*[-–]\s*(\d{4})$`)
	shortRangePattern = regexp.MustCompile(`^(\d{4})\s*[-–]\s*(\d{2})$`)
	yearPattern       = regexp.MustCompile(`^(\d{4})$`)
	dayMonthYear      = regexp.MustCompile(`(?i)^(\d{1,2})[-\s]` + monthWord + `\.?[-\s](\d{2,4})$`)
	ordinalDate       = regexp.MustCompile(`(?i)^(\d{1,2})(?:er|ème|e)?\s+` + monthWord + `\s+(\d{4})$`)
	monthYear         = regexp.MustCompile(`(?i)^` + monthWord + `\s+(\d{4})$`)
	trailingDate      = regexp.MustCompile(`(?i)[-–]\s*(\d{1,2})\s+` + monthWord + `\s+(\d{4})\s*$`)
	abbrevMonthYear   = regexp.MustCompile(`(?i)^` + monthWord + `\.?[-\s](\d{2})$`)
	anyYear           = regexp.MustCompile(`\d{4}`)
)

// rule is one entry of the ordered pattern table; the first rule that returns ok wins.
type rule struct {
	name  string
	parse func(string) (string, bool)
}

var rules = []rule{
	{"decade", parseDecade},
	{"full-range", parseFullRange},
	{"short-range", parseShortRange},
	{"year", parseYear},
	{"day-month-year", parseDayMonthYear},
	{"ordinal-date", parseOrdinalDate},
	{"month-year", parseMonthYear},
	{"trailing-date", parseTrailingDate},
	{"abbrev-month-year", parseAbbrevMonthYear},
	{"embedded-year", parseEmbeddedYear},
}

// Normalize parses a free-text date. ok is false when nothing usable was found.
func Normalize(text string) (string, bool) {
	value, _, ok := NormalizeWithRule(text)
	return value, ok
}

// NormalizeWithRule is Normalize that also reports which rule matched.
func NormalizeWithRule(text string) (value, ruleName string, ok bool) {
	text = textnorm.Normalize(text)
	if text == "" {
		return "", "", false
	}
	for _, r := range rules {
		if v, matched := r.parse(text); matched {
			return v, r.name, true
		}
	}
	return "", "", false
}

// ResolveYear converts a 2- or 4-digit year to four digits.
// Two-digit years are read as 19xx; anything outside [MinYear, MaxYear] is rejected.
func ResolveYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	year, err := strconv.Atoi(s)
	if err != nil || year < 0 {
		return 0, false
	}
	if year < 100 {
		year += 1900
	}
	if year < MinYear || year > MaxYear {
		return 0, false
	}
	return year, true
}

// IsMonth reports whether word is a French month name or abbreviation.
func IsMonth(word string) bool {
	_, ok := FrenchMonths[strings.TrimSuffix(strings.ToLower(word), ".")]
	return ok
}

func inRange(s string) bool {
	year, err := strconv.Atoi(s)
	return err == nil && year >= MinYear && year <= MaxYear
}

func parseDecade(s string) (string, bool) {
	m := decadePattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	keyword := strings.ToLower(m[1])
	for _, k := range DecadeKeywords {
		if keyword == k && inRange(m[2]) {
			return m[2] + "s", true
		}
	}
	return "", false
}

func parseFullRange(s string) (string, bool) {
	m := fullRangePattern.FindStringSubmatch(s)
	if m == nil || !inRange(m[1]) || !inRange(m[2]) {
		return "", false
	}
	return m[1] + "-" + m[2], true
}

func parseShortRange(s string) (string, bool) {
	m := shortRangePattern.FindStringSubmatch(s)
	if m == nil || !inRange(m[1]) {
		return "", false
	}
	end := m[1][:2] + m[2]
	if !inRange(end) {
		return "", false
	}
	return m[1] + "-" + end, true
}

func parseYear(s string) (string, bool) {
	m := yearPattern.FindStringSubmatch(s)
	if m == nil || !inRange(m[1]) {
		return "", false
	}
	return m[1], true
}

func parseDayMonthYear(s string) (string, bool) {
	m := dayMonthYear.FindStringSubmatch(s)
	if m == nil || !IsMonth(m[2]) {
		return "", false
	}
	year, ok := ResolveYear(m[3])
	if !ok {
		return "", false
	}
	return strconv.Itoa(year), true
}

func parseOrdinalDate(s string) (string, bool) {
	m := ordinalDate.FindStringSubmatch(s)
	if m == nil || !IsMonth(m[2]) || !inRange(m[3]) {
		return "", false
	}
	return m[3], true
}

func parseMonthYear(s string) (string, bool) {
	m := monthYear.FindStringSubmatch(s)
	if m == nil || !IsMonth(m[1]) || !inRange(m[2]) {
		return "", false
	}
	return m[2], true
}

func parseTrailingDate(s string) (string, bool) {
	m := trailingDate.FindStringSubmatch(s)
	if m == nil || !IsMonth(m[2]) || !inRange(m[3]) {
		return "", false
	}
	return m[3], true
}

func parseAbbrevMonthYear(s string) (string, bool) {
	m := abbrevMonthYear.FindStringSubmatch(s)
	if m == nil || !IsMonth(m[1]) {
		return "", false
	}
	year, ok := ResolveYear(m[2])
	if !ok {
		return "", false
	}
	return strconv.Itoa(year), true
}

func parseEmbeddedYear(s string) (string, bool) {
	for _, candidate := range anyYear.FindAllString(s, -1) {
		if inRange(candidate) {
			return candidate, true
		}
	}
	return "", false
}
