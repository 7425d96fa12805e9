package description

import (
	"fmt"
	"regexp"
	"strings"
)

// AbbreviationPolicy decides what a null-content abbreviation ("S/O", "n/d") resolves to.
type AbbreviationPolicy int

const (
	// Suppress treats the abbreviation as no content, so resolution falls
	// through to the next source and finally to synthesis.
	Suppress AbbreviationPolicy = iota
	// Expand replaces the abbreviation with a boilerplate sentence.
	Expand
)

func (p AbbreviationPolicy) String() string {
	if p == Expand {
		return "expand"
	}
	return "suppress"
}

// ParsePolicy parses "suppress" or "expand"; the empty string means Suppress.
func ParsePolicy(s string) (AbbreviationPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "suppress":
		return Suppress, nil
	case "expand":
		return Expand, nil
	default:
		return Suppress, fmt.Errorf("unknown abbreviation policy %q (expected suppress or expand)", s)
	}
}

// NullContent maps lower-cased null-content abbreviations to the boilerplate used by Expand.
var NullContent = map[string]string{
	"s/o":        "Sans objet (aucune description fournie).",
	"sans objet": "Sans objet (aucune description fournie).",
	"n/d":        "Donnée manquante (aucune description disponible).",
	"n.a.":       "Information non disponible.",
	"n/a":        "Information non disponible.",
}

// boilerplatePrefix is left at the start of descriptions written by an Expand run
var boilerplatePrefix = regexp.MustCompile(`(?i)^Sans objet \(aucune description fournie\)\.\s*`)

// IsNullContent reports whether text is a known null-content abbreviation.
func IsNullContent(text string) bool {
	_, ok := NullContent[strings.ToLower(text)]
	return ok
}

// StripBoilerplate removes a leading Expand boilerplate sentence
func StripBoilerplate(text string) string {
	return boilerplatePrefix.ReplaceAllString(text, "")
}
