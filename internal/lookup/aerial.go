package lookup

import (
	"log/slog"

	"github.com/mtl-archives/photometa/internal/models"
	"github.com/mtl-archives/photometa/internal/storage"
)

// Dataset describes one aerial-survey datastore export
type Dataset struct {
	Label     string   `yaml:"label"`
	Path      string   `yaml:"path"`
	URLFields []string `yaml:"url_fields"`
}

const (
	tiff300 = "Fichier TIFF - 300 dpi (CLIQUEZ SUR LE LIEN)"
)

// DefaultAerialDatasets lists the Montréal aerial-view collections, relative to the data directory
var DefaultAerialDatasets = []Dataset{
	{"aerial_1925_1935", "vues_aeriennes_1925_1935.json", []string{"Fichier tiff - 600 dpi"}},
	{"aerial_1947_1949", "vues_aeriennes_1947_1949.json", []string{"Fichier jpg - 300 dpi (CLIQUEZ SUR LE LIEN)"}},
	{"aerial_1958", "vues_aeriennes_1958.json", []string{tiff300}},
	{"aerial_1962", "vues_aeriennes_1962.json", []string{tiff300}},
	{"aerial_1964", "vues_aeriennes_1964.json", []string{tiff300}},
	{"aerial_1966", "vues_aeriennes_1966.json", []string{tiff300}},
	{"aerial_1969", "vues_aeriennes_1969.json", []string{tiff300}},
	{"aerial_1971", "vues_aeriennes_1971.json", []string{tiff300}},
	{"aerial_1973", "vues_aeriennes_1973.json", []string{tiff300}},
	{"aerial_1975", "vues_aeriennes_1975.json", []string{tiff300}},
	{"aerial_obliques_1960_1992", "vues_aeriennes_obliques_1960_1992.json", []string{"Fichiers TIFF - 300 dpi (CLIQUEZ SUR LE LIEN)", tiff300}},
}

// AerialIndex maps normalized URLs to matches across all loaded datasets
type AerialIndex struct {
	store        *storage.Store[[]models.AerialMatch]
	entryCounts  map[string]int
	datasetOrder []string
}

// NewAerialIndex creates an empty index
func NewAerialIndex() *AerialIndex {
	return &AerialIndex{
		store:       storage.New[[]models.AerialMatch](),
		entryCounts: make(map[string]int),
	}
}

// LoadDataset reads one dataset file and indexes its records. A missing file is skipped.
func (a *AerialIndex) LoadDataset(ds Dataset) error {
	records, err := loadRecords(ds.Path)
	if err != nil {
		return err
	}
	if records == nil {
		slog.Debug("Aerial dataset not found, skipping", "label", ds.Label, "path", ds.Path)
	}
	a.AddRecords(ds, records)
	return nil
}

// AddRecords indexes records of one dataset. Within a dataset the last record for a URL wins.
func (a *AerialIndex) AddRecords(ds Dataset, records []map[string]any) {
	mapping := make(map[string]map[string]any)
	var order []string
	for _, rec := range records {
		for _, url := range ExtractURLs(rec, ds.URLFields) {
			key := NormalizeURL(url)
			if key == "" {
				continue
			}
			if _, seen := mapping[key]; !seen {
				order = append(order, key)
			}
			mapping[key] = rec
		}
	}

	for _, key := range order {
		match := models.AerialMatch{DatasetLabel: ds.Label, Record: mapping[key]}
		a.store.Update(key, func(current []models.AerialMatch, _ bool) []models.AerialMatch {
			return append(current, match)
		})
	}
	if _, seen := a.entryCounts[ds.Label]; !seen {
		a.datasetOrder = append(a.datasetOrder, ds.Label)
	}
	a.entryCounts[ds.Label] += len(order)
}

// Aerial implements AerialLookup
func (a *AerialIndex) Aerial(url string) []models.AerialMatch {
	matches, _ := a.store.Get(NormalizeURL(url))
	return matches
}

// EntryCounts returns the number of indexed URLs per dataset label
func (a *AerialIndex) EntryCounts() map[string]int {
	out := make(map[string]int, len(a.entryCounts))
	for k, v := range a.entryCounts {
		out[k] = v
	}
	return out
}
