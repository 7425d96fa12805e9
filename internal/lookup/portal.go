package lookup

import (
	"log/slog"
	"strings"

	"github.com/mtl-archives/photometa/internal/models"
	"github.com/mtl-archives/photometa/internal/storage"
)

// PortalURLFields are the datastore fields holding image URLs
var PortalURLFields = []string{"Fichier jpg - 200 dpi", "Fichier tif - 300 dpi"}

// PortalIndex maps normalized image URLs to portal records
type PortalIndex struct {
	store *storage.Store[map[string]any]
}

// NewPortalIndex creates an empty index
func NewPortalIndex() *PortalIndex {
	return &PortalIndex{store: storage.New[map[string]any]()}
}

// LoadPortalIndex indexes a portal datastore export
func LoadPortalIndex(path string) (*PortalIndex, error) {
	records, err := loadRecords(path)
	if err != nil {
		return nil, err
	}
	idx := NewPortalIndex()
	for _, rec := range records {
		idx.Add(rec)
	}
	slog.Debug("Loaded portal datastore", "path", path, "records", len(records), "urls", idx.Len())
	return idx, nil
}

// Add indexes one portal record under each of its URL fields
func (p *PortalIndex) Add(rec map[string]any) {
	for _, key := range PortalURLFields {
		url := strings.TrimSpace(models.Stringify(rec[key]))
		if url != "" {
			p.store.Set(NormalizeURL(url), rec)
		}
	}
}

// Portal implements PortalLookup
func (p *PortalIndex) Portal(url string) (map[string]any, bool) {
	key := NormalizeURL(url)
	if key == "" {
		return nil, false
	}
	return p.store.Get(key)
}

// Len returns the number of indexed URLs
func (p *PortalIndex) Len() int {
	return p.store.Len()
}
