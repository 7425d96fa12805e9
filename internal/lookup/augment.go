package lookup

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mtl-archives/photometa/internal/models"
)

// Augmenter attaches portal, aerial and image information to raw records.
// Any collaborator may be nil, in which case that join is skipped.
type Augmenter struct {
	Images ImageResolver
	Portal PortalLookup
	Aerial AerialLookup
}

// SizeStats summarizes resolved image sizes
type SizeStats struct {
	Min   int64 `json:"min"`
	Max   int64 `json:"max"`
	Total int64 `json:"total"`
}

// AugmentSummary counts join outcomes for one augment run
type AugmentSummary struct {
	ManifestRecords    int            `json:"manifest_records"`
	ErrorRecords       int            `json:"error_records"`
	PortalMatched      int            `json:"portal_matched"`
	PortalUnmatched    int            `json:"portal_unmatched"`
	AerialMatched      int            `json:"matched_records"`
	AerialUnmatched    int            `json:"unmatched_records"`
	DatasetMatchCounts map[string]int `json:"dataset_match_counts"`
	DatasetEntryCounts map[string]int `json:"dataset_entry_counts,omitempty"`
	ImageFound         int            `json:"image_found"`
	ImageMissing       int            `json:"image_missing"`
	ZeroByteImages     int            `json:"zero_byte_images"`
	ImageSizeBytes     *SizeStats     `json:"image_size_bytes,omitempty"`
}

// NewAugmentSummary creates an empty summary
func NewAugmentSummary() *AugmentSummary {
	return &AugmentSummary{DatasetMatchCounts: make(map[string]int)}
}

// Augment updates rec in place and records the outcome in summary
func (a *Augmenter) Augment(rec *models.RawRecord, summary *AugmentSummary) error {
	summary.ManifestRecords++
	if rec.Error != "" {
		summary.ErrorRecords++
		return nil
	}

	if rec.ImageFilename == "" {
		if raw, ok := rec.Extra["image"]; ok {
			var uri string
			if err := json.Unmarshal(raw, &uri); err == nil {
				rec.ImageFilename = FilenameFromURI(uri)
			}
		}
	}

	if a.Images != nil {
		if err := a.resolveImage(rec, summary); err != nil {
			return err
		}
	}

	if a.Portal != nil {
		portal, ok := a.Portal.Portal(rec.ExternalURL)
		matched := ok && len(portal) > 0
		rec.PortalMatch = &matched
		if matched {
			rec.PortalRecord = portal
			summary.PortalMatched++
		} else {
			rec.PortalRecord = nil
			summary.PortalUnmatched++
		}
	}

	if a.Aerial != nil {
		matches := a.Aerial.Aerial(rec.ExternalURL)
		if matches == nil {
			matches = []models.AerialMatch{}
		}
		rec.AerialMatches = matches
		if len(matches) > 0 {
			summary.AerialMatched++
			for _, m := range matches {
				summary.DatasetMatchCounts[m.DatasetLabel]++
			}
		} else {
			summary.AerialUnmatched++
		}
	}
	return nil
}

func (a *Augmenter) resolveImage(rec *models.RawRecord, summary *AugmentSummary) error {
	info, err := a.Images.Resolve(rec.ImageFilename)
	if err != nil {
		return err
	}

	exists := info.Exists
	rec.ImageExists = &exists
	if !exists {
		rec.ImageSizeBytes = nil
		rec.ResolvedImageFilename = ""
		summary.ImageMissing++
		slog.Debug("Image not found in backup", "image_filename", rec.ImageFilename)
		return nil
	}

	size := info.SizeBytes
	rec.ImageSizeBytes = &size
	rec.ResolvedImageFilename = info.ResolvedName
	summary.ImageFound++
	if size == 0 {
		summary.ZeroByteImages++
	}

	if summary.ImageSizeBytes == nil {
		summary.ImageSizeBytes = &SizeStats{Min: size, Max: size}
	}
	s := summary.ImageSizeBytes
	s.Min = min(s.Min, size)
	s.Max = max(s.Max, size)
	s.Total += size
	return nil
}

// Save writes the summary as indented JSON
func (s *AugmentSummary) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create summary directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal augment summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write augment summary: %w", err)
	}
	return nil
}
