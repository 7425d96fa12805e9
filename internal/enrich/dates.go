package enrich

import (
	"strings"

	"github.com/mtl-archives/photometa/internal/fieldpath"
	"github.com/mtl-archives/photometa/internal/models"
)

// DateSourcePaths are tried in order when a document has no date_value
var DateSourcePaths = []fieldpath.Path{
	fieldpath.P("attributes_map", "Date"),
	fieldpath.P("portal_record", models.PortalDate),
	fieldpath.P("portal_date"),
}

// FillDate sets doc["date_value"] from the first available date source.
// An existing non-empty date_value is never replaced.
func FillDate(doc map[string]any) (DateStatus, string) {
	if existing := strings.TrimSpace(models.Stringify(doc["date_value"])); existing != "" {
		return DateAlreadyPresent, ""
	}

	var raw string
	for _, path := range DateSourcePaths {
		if v, ok := fieldpath.Lookup(doc, path); ok {
			if s := strings.TrimSpace(models.Stringify(v)); s != "" {
				raw = s
				break
			}
		}
	}

	value, status := ResolveDate(raw)
	if status == DateExtracted {
		doc["date_value"] = value
	}
	return status, raw
}
