// Package lookup joins manifest records with the external sources they are
// matched against: the portal datastore, the aerial-survey datasets and the
// backup image directory.
package lookup

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mtl-archives/photometa/internal/models"
)

// ImageResolver reports whether an image file exists and its size
type ImageResolver interface {
	Resolve(filename string) (ImageInfo, error)
}

// PortalLookup finds the portal record for a normalized URL
type PortalLookup interface {
	Portal(url string) (map[string]any, bool)
}

// AerialLookup finds aerial-survey records for a normalized URL
type AerialLookup interface {
	Aerial(url string) []models.AerialMatch
}

// NormalizeURL is the join key used by every lookup
func NormalizeURL(url string) string {
	return strings.ToLower(strings.TrimSpace(url))
}

// ExtractURLs collects the URLs held in the given fields of a dataset record.
// String values may contain several URLs separated by newlines.
func ExtractURLs(rec map[string]any, fields []string) []string {
	var urls []string
	for _, field := range fields {
		switch v := rec[field].(type) {
		case string:
			text := strings.ReplaceAll(v, "\r", "\n")
			for _, chunk := range strings.Split(text, "\n") {
				if candidate := strings.TrimSpace(chunk); candidate != "" {
					urls = append(urls, candidate)
				}
			}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					urls = append(urls, strings.TrimSpace(s))
				}
			}
		}
	}
	return urls
}

type datastoreDocument struct {
	Result struct {
		Records []map[string]any `json:"records"`
	} `json:"result"`
}

// loadRecords reads an open-data datastore export. A missing file yields no records.
func loadRecords(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read datastore file: %w", err)
	}

	var doc datastoreDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse datastore file %s: %w", path, err)
	}
	return doc.Result.Records, nil
}
