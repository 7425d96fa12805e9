package audit

import (
	"math"
	"sort"
	"strings"
)

// FieldStats accumulates presence and text-length statistics for one field
type FieldStats struct {
	Total    int
	Present  int
	NonEmpty int
	Empty    int
	Missing  int
	Lengths  []int
}

// Add records one value; nil means the field is missing from the record.
func (s *FieldStats) Add(value any) {
	s.Total++
	if value == nil {
		s.Missing++
		return
	}
	s.Present++

	switch v := value.(type) {
	case string:
		if stripped := strings.TrimSpace(v); stripped != "" {
			s.NonEmpty++
			s.Lengths = append(s.Lengths, len([]rune(stripped)))
		} else {
			s.Empty++
		}
	case []any:
		if len(v) > 0 {
			s.NonEmpty++
		} else {
			s.Empty++
		}
	default:
		s.NonEmpty++
	}
}

// LengthSummary describes a text-length distribution
type LengthSummary struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
}

// FieldSummary is the serialized form of FieldStats
type FieldSummary struct {
	Total           int            `json:"total"`
	Present         int            `json:"present"`
	NonEmpty        int            `json:"non_empty"`
	Empty           int            `json:"empty"`
	Missing         int            `json:"missing"`
	PercentPresent  float64        `json:"percent_present"`
	PercentNonEmpty float64        `json:"percent_non_empty"`
	LengthSummary   *LengthSummary `json:"length_summary"`
}

// Summary computes the serialized statistics
func (s *FieldStats) Summary() FieldSummary {
	return FieldSummary{
		Total:           s.Total,
		Present:         s.Present,
		NonEmpty:        s.NonEmpty,
		Empty:           s.Empty,
		Missing:         s.Missing,
		PercentPresent:  percentage(s.Present, s.Total),
		PercentNonEmpty: percentage(s.NonEmpty, s.Total),
		LengthSummary:   SummarizeLengths(s.Lengths),
	}
}

func percentage(value, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round2(float64(value) / float64(total) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SummarizeLengths returns min/max/mean/median/p90 of lengths, or nil when empty.
// p90 is the nearest-rank value at index floor(0.90 * (n-1)) of the sorted list.
func SummarizeLengths(lengths []int) *LengthSummary {
	n := len(lengths)
	if n == 0 {
		return nil
	}
	data := make([]int, n)
	copy(data, lengths)
	sort.Ints(data)

	sum := 0
	for _, l := range data {
		sum += l
	}

	var median float64
	if n%2 == 1 {
		median = float64(data[n/2])
	} else {
		median = float64(data[n/2-1]+data[n/2]) / 2
	}

	return &LengthSummary{
		Min:    float64(data[0]),
		Max:    float64(data[n-1]),
		Mean:   round2(float64(sum) / float64(n)),
		Median: round2(median),
		P90:    float64(data[int(math.Floor(0.90*float64(n-1)))]),
	}
}
