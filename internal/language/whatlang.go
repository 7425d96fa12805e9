package language

import (
	"errors"

	"github.com/abadojack/whatlanggo"
)

// ErrNotDetected is returned when the detector cannot settle on French or English.
var ErrNotDetected = errors.New("language not detected")

// WhatlangDetector detects French or English with trigram statistics.
// Detection is deterministic: the same text always yields the same label.
type WhatlangDetector struct {
	options whatlanggo.Options
	// RequireReliable rejects low-confidence detections
	RequireReliable bool
}

// NewWhatlangDetector creates a detector restricted to French and English
func NewWhatlangDetector() *WhatlangDetector {
	return &WhatlangDetector{
		options: whatlanggo.Options{
			Whitelist: map[whatlanggo.Lang]bool{
				whatlanggo.Fra: true,
				whatlanggo.Eng: true,
			},
		},
	}
}

// Detect implements Detector
func (d *WhatlangDetector) Detect(text string) (string, error) {
	info := whatlanggo.DetectWithOptions(text, d.options)
	if d.RequireReliable && !info.IsReliable() {
		return "", ErrNotDetected
	}
	switch info.Lang {
	case whatlanggo.Fra:
		return French, nil
	case whatlanggo.Eng:
		return English, nil
	default:
		return "", ErrNotDetected
	}
}
