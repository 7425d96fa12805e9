// Package language labels description text as French, English or unknown.
package language

import (
	"strings"

	"github.com/mtl-archives/photometa/internal/textnorm"
)

const (
	French  = "fr"
	English = "en"
	Unknown = "unknown"
)

// MinLength is the shortest text (in characters) that is classified at all.
const MinLength = 24

// Markers are counted in the lower-cased text by the heuristic guess.
var (
	FrenchMarkers  = []string{"é", "è", "à", "ç", " qué", " montréal"}
	EnglishMarkers = []string{"the ", " and ", "street", " avenue", "montreal"}
)

// Detector is an optional probabilistic language detector.
type Detector interface {
	Detect(text string) (string, error)
}

// Classifier labels text with a language code.
// The zero value uses the heuristic only.
type Classifier struct {
	detector Detector
}

// NewClassifier creates a classifier; detector may be nil.
func NewClassifier(detector Detector) *Classifier {
	return &Classifier{detector: detector}
}

// HasDetector reports whether a probabilistic detector is configured
func (c *Classifier) HasDetector() bool {
	return c != nil && c.detector != nil
}

// Classify returns "fr", "en" or "unknown". Text shorter than MinLength is always unknown.
// Without a detector the heuristic guess is used; detector errors map to unknown.
func (c *Classifier) Classify(text string) string {
	if text == "" || textnorm.Len(text) < MinLength {
		return Unknown
	}
	if !c.HasDetector() {
		return Guess(text)
	}
	label, err := c.detector.Detect(text)
	if err != nil || label == "" {
		return Unknown
	}
	return label
}

// ClassifyWithFallback is Classify, retried with the heuristic guess when the detector has no answer.
func (c *Classifier) ClassifyWithFallback(text string) string {
	label := c.Classify(text)
	if label == Unknown && textnorm.Len(text) >= MinLength {
		return Guess(text)
	}
	return label
}

// Guess counts French and English markers; the strictly larger non-zero count wins.
func Guess(text string) string {
	lower := strings.ToLower(text)
	fr := countMarkers(lower, FrenchMarkers)
	en := countMarkers(lower, EnglishMarkers)
	switch {
	case fr > en && fr >= 1:
		return French
	case en > fr && en >= 1:
		return English
	default:
		return Unknown
	}
}

func countMarkers(text string, markers []string) int {
	total := 0
	for _, m := range markers {
		total += strings.Count(text, m)
	}
	return total
}
