// Package enrich turns raw manifest records into normalized records.
package enrich

import (
	"encoding/json"

	"github.com/mtl-archives/photometa/internal/dates"
	"github.com/mtl-archives/photometa/internal/description"
	"github.com/mtl-archives/photometa/internal/language"
	"github.com/mtl-archives/photometa/internal/models"
	"github.com/mtl-archives/photometa/internal/textnorm"
)

// Quality flags
const (
	FlagSynthetic = "synthetic-description"
	FlagShort     = "short-description"
	FlagUppercase = "uppercase-description"
)

// DateStatus describes what happened to date_value for one record
type DateStatus string

const (
	DateAlreadyPresent DateStatus = "already_present"
	DateExtracted      DateStatus = "extracted"
	DateNoSource       DateStatus = "no_source"
	DateParseFailed    DateStatus = "parse_failed"
)

// Outcome is the per-record provenance used for run statistics
type Outcome struct {
	DescriptionSource string
	Synthetic         bool
	QualityFlags      []string
	Language          string
	DateStatus        DateStatus
	RawDate           string
}

// Enricher runs text, date, description and language normalization over one record.
// It holds only static configuration and is safe to reuse across records.
type Enricher struct {
	resolver   *description.Resolver
	classifier *language.Classifier
}

// NewEnricher creates an enricher
func NewEnricher(resolver *description.Resolver, classifier *language.Classifier) *Enricher {
	if resolver == nil {
		resolver = description.NewResolver(description.Suppress)
	}
	if classifier == nil {
		classifier = language.NewClassifier(nil)
	}
	return &Enricher{resolver: resolver, classifier: classifier}
}

// Enrich produces the normalized record for raw. raw is not modified.
func (e *Enricher) Enrich(raw models.RawRecord) (models.NormalizedRecord, Outcome) {
	rec := models.NormalizedRecord{RawRecord: raw}
	if rec.MetadataSchemaVersion == 0 {
		rec.MetadataSchemaVersion = models.SchemaVersion
	}

	rec.AttributesMap = BuildAttributesMap(raw.Attributes)
	rec.PortalRecord = cleanPortal(raw.PortalRecord)
	rec.CleanName = textnorm.NormalizePtr(raw.Name)

	portalDescription := models.Stringify(rec.PortalRecord[models.PortalDescription])
	imageFilename := raw.ImageFilename
	if imageFilename == "" {
		imageFilename = raw.ResolvedImageFilename
	}

	resolved := e.resolver.Resolve(textnorm.NormalizePtr(raw.Description), portalDescription, description.Context{
		Name:              rec.CleanName,
		Date:              rec.AttributesMap["Date"],
		Location:          models.Stringify(rec.PortalRecord[models.PortalLocation]),
		Cote:              rec.AttributesMap["Cote"],
		PortalDescription: portalDescription,
		ImageFilename:     imageFilename,
	})

	rec.FinalDescription = resolved.Description
	rec.DescriptionSource = resolved.Source
	rec.RawDescription = raw.Description
	rec.PortalDescriptionClean = portalDescription
	rec.DescriptionLanguage = e.classifier.ClassifyWithFallback(resolved.Description)

	rec.Credits = firstNonEmpty(
		textnorm.Normalize(raw.Credits),
		models.Stringify(rec.PortalRecord[models.PortalCredits]),
	)
	rec.Cote = firstNonEmpty(
		rec.AttributesMap["Cote"],
		textnorm.Normalize(raw.Cote),
		models.Stringify(rec.PortalRecord[models.PortalCote]),
	)

	outcome := Outcome{
		DescriptionSource: resolved.Source,
		Synthetic:         resolved.Synthetic,
		Language:          rec.DescriptionLanguage,
	}

	if raw.DateValue != "" {
		outcome.DateStatus = DateAlreadyPresent
	} else {
		outcome.RawDate = firstNonEmpty(
			rec.AttributesMap["Date"],
			models.Stringify(rec.PortalRecord[models.PortalDate]),
			legacyPortalDate(raw),
		)
		value, status := ResolveDate(outcome.RawDate)
		outcome.DateStatus = status
		rec.DateValue = value
	}

	outcome.QualityFlags = QualityFlags(resolved.Description, resolved.Synthetic)
	rec.Quality = models.MetadataQuality{
		DescriptionSource: resolved.Source,
		QualityFlags:      outcome.QualityFlags,
	}
	return rec, outcome
}

// ResolveDate normalizes a raw date expression. An empty raw value is DateNoSource.
func ResolveDate(raw string) (string, DateStatus) {
	if textnorm.Normalize(raw) == "" {
		return "", DateNoSource
	}
	value, ok := dates.Normalize(raw)
	if !ok {
		return "", DateParseFailed
	}
	return value, DateExtracted
}

// QualityFlags computes the independent quality conditions of a final description
func QualityFlags(desc string, synthetic bool) []string {
	flags := []string{}
	if synthetic {
		flags = append(flags, FlagSynthetic)
	}
	if textnorm.Len(desc) < description.TargetLength {
		flags = append(flags, FlagShort)
	}
	if desc != "" && textnorm.IsUpper(desc) {
		flags = append(flags, FlagUppercase)
	}
	return flags
}

// BuildAttributesMap folds the ordered attribute list into trait -> cleaned value.
// Later duplicates replace earlier ones; empty cleaned values are dropped.
func BuildAttributesMap(attrs []models.Attribute) map[string]string {
	latest := make(map[string]string, len(attrs))
	for _, attr := range attrs {
		if attr.TraitType == "" {
			continue
		}
		latest[attr.TraitType] = attr.StringValue()
	}
	cleaned := make(map[string]string, len(latest))
	for trait, value := range latest {
		if v := textnorm.Normalize(value); v != "" {
			cleaned[trait] = v
		}
	}
	return cleaned
}

func cleanPortal(portal map[string]any) map[string]any {
	out := make(map[string]any, len(portal))
	for k, v := range portal {
		out[k] = v
	}
	for _, key := range models.PortalTextKeys {
		if v, ok := out[key]; ok {
			out[key] = textnorm.Normalize(models.Stringify(v))
		}
	}
	return out
}

func legacyPortalDate(raw models.RawRecord) string {
	msg, ok := raw.Extra["portal_date"]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		return ""
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
