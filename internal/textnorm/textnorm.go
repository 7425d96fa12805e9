// Package textnorm canonicalizes free-text metadata fields.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// punctuation maps typographic characters to their ASCII equivalents
var punctuation = strings.NewReplacer(
	"’", "'", // right single quotation mark
	"–", "-", // en dash
	"—", "-", // em dash
)

// Normalize returns the canonical form of a text value: NFC composition,
// ASCII apostrophes and dashes, whitespace runs collapsed to one space, trimmed.
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(value string) string {
	if value == "" {
		return ""
	}
	text := norm.NFC.String(value)
	text = punctuation.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}

// NormalizePtr is Normalize for optional values; nil becomes "".
func NormalizePtr(value *string) string {
	if value == nil {
		return ""
	}
	return Normalize(*value)
}

// Len counts characters, not bytes.
func Len(s string) int {
	return utf8.RuneCountInString(s)
}

// Truncate keeps at most n characters of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// IsUpper reports whether s has at least one cased letter and no lower-case ones.
func IsUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}

// CollapseLower lower-cases s and collapses whitespace; used as a grouping key.
func CollapseLower(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
