package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// SchemaVersion is written to every normalized record that does not already carry one.
const SchemaVersion = 1

// Portal record keys (French labels used by the open-data portal)
const (
	PortalTitle       = "Titre"
	PortalDescription = "Description"
	PortalDate        = "Date"
	PortalCote        = "Cote"
	PortalCredits     = "Mention de crédits"
	PortalLocation    = "Lieu"
)

// PortalTextKeys lists the portal fields that are cleaned during enrichment
var PortalTextKeys = []string{PortalTitle, PortalDescription, PortalDate, PortalCote, PortalCredits, PortalLocation}

// Attribute is one {trait_type, value} pair scraped from the object metadata.
// Values are not guaranteed to be strings.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

// StringValue renders the attribute value as text; nil becomes "".
func (a Attribute) StringValue() string {
	return Stringify(a.Value)
}

// UnmarshalJSON accepts non-string trait types ("trait_type": 7)
func (a *Attribute) UnmarshalJSON(data []byte) error {
	var raw struct {
		TraitType any `json:"trait_type"`
		Value     any `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.TraitType = Stringify(raw.TraitType)
	a.Value = raw.Value
	return nil
}

// AerialMatch links a photograph to a record of an aerial-survey dataset
type AerialMatch struct {
	DatasetLabel string         `json:"dataset"`
	Record       map[string]any `json:"record"`
}

// RawRecord represents one photograph's scraped metadata as it appears in the manifest.
// Unknown top-level keys are kept in Extra and written back untouched.
type RawRecord struct {
	MetadataFilename      string         `json:"metadata_filename,omitempty"`
	ImageFilename         string         `json:"image_filename,omitempty"`
	ResolvedImageFilename string         `json:"resolved_image_filename,omitempty"`
	ImageExists           *bool          `json:"image_exists,omitempty"`
	ImageSizeBytes        *int64         `json:"image_size_bytes,omitempty"`
	Name                  *string        `json:"name"`
	Description           *string        `json:"description"`
	Attributes            []Attribute    `json:"attributes"`
	ExternalURL           string         `json:"external_url,omitempty"`
	PortalMatch           *bool          `json:"portal_match,omitempty"`
	PortalRecord          map[string]any `json:"portal_record,omitempty"`
	AerialMatches         []AerialMatch  `json:"aerial_matches,omitempty"`
	Credits               string         `json:"credits,omitempty"`
	Cote                  string         `json:"cote,omitempty"`
	DateValue             string         `json:"date_value,omitempty"`
	MetadataSchemaVersion int            `json:"metadata_schema_version,omitempty"`
	Error                 string         `json:"error,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// rawRecordKeys are the keys decoded into RawRecord fields
var rawRecordKeys = []string{
	"metadata_filename", "image_filename", "resolved_image_filename", "image_exists",
	"image_size_bytes", "name", "description", "attributes", "external_url",
	"portal_match", "portal_record", "aerial_matches", "credits", "cote",
	"date_value", "metadata_schema_version", "error",
}

// Scalar keys whose JSON type is not trusted; values are coerced before decoding
var (
	textKeys = []string{
		"metadata_filename", "image_filename", "resolved_image_filename", "name",
		"description", "external_url", "credits", "cote", "date_value", "error",
	}
	intKeys  = []string{"image_size_bytes", "metadata_schema_version"}
	boolKeys = []string{"image_exists", "portal_match"}
)

type rawRecordAlias RawRecord

// UnmarshalJSON decodes the known fields and keeps everything else in Extra.
// Scalars of the wrong JSON type are converted ("name": 1966 becomes "1966");
// integers that cannot be recovered are dropped.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	if all == nil {
		return nil
	}

	known := make(map[string]json.RawMessage, len(rawRecordKeys))
	for _, key := range rawRecordKeys {
		if v, ok := all[key]; ok {
			known[key] = v
			delete(all, key)
		}
	}
	if err := coerceScalars(known); err != nil {
		return err
	}
	fixed, err := json.Marshal(known)
	if err != nil {
		return err
	}

	var alias rawRecordAlias
	if err := json.Unmarshal(fixed, &alias); err != nil {
		return err
	}
	*r = RawRecord(alias)
	if len(all) > 0 {
		r.Extra = all
	}
	return nil
}

func coerceScalars(fields map[string]json.RawMessage) error {
	for _, key := range textKeys {
		v, ok, err := decodeAny(fields, key)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		switch v.(type) {
		case nil, string:
		default:
			if err := setJSON(fields, key, Stringify(v)); err != nil {
				return err
			}
		}
	}
	for _, key := range intKeys {
		v, ok, err := decodeAny(fields, key)
		if err != nil {
			return err
		}
		if !ok || v == nil {
			continue
		}
		n, valid := toInt(v)
		if !valid {
			delete(fields, key)
			continue
		}
		if err := setJSON(fields, key, n); err != nil {
			return err
		}
	}
	for _, key := range boolKeys {
		v, ok, err := decodeAny(fields, key)
		if err != nil {
			return err
		}
		if !ok || v == nil {
			continue
		}
		b, valid := toBool(v)
		if !valid {
			delete(fields, key)
			continue
		}
		if err := setJSON(fields, key, b); err != nil {
			return err
		}
	}
	return nil
}

func decodeAny(fields map[string]json.RawMessage, key string) (any, bool, error) {
	raw, ok := fields[key]
	if !ok {
		return nil, false, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func setJSON(fields map[string]json.RawMessage, key string, v any) error {
	data, err := marshalNoEscape(v)
	if err != nil {
		return err
	}
	fields[key] = data
	return nil
}

func toInt(v any) (int64, bool) {
	var s string
	switch val := v.(type) {
	case json.Number:
		s = val.String()
	case string:
		s = val
	default:
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}

func toBool(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		b, err := strconv.ParseBool(val)
		return b, err == nil
	case json.Number:
		f, err := val.Float64()
		return f != 0, err == nil
	default:
		return false, false
	}
}

// MarshalJSON writes the known fields merged with Extra
func (r RawRecord) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(rawRecordAlias(r), r.Extra)
}

// PortalString returns the text value of a portal field, or "" when absent
func (r *RawRecord) PortalString(key string) string {
	if r.PortalRecord == nil {
		return ""
	}
	return Stringify(r.PortalRecord[key])
}

// MetadataQuality carries per-record provenance and quality flags
type MetadataQuality struct {
	DescriptionSource string   `json:"description_source"`
	QualityFlags      []string `json:"quality_flags"`
}

// NormalizedRecord is a RawRecord after enrichment
type NormalizedRecord struct {
	RawRecord

	AttributesMap          map[string]string `json:"attributes_map"`
	CleanName              string            `json:"-"`
	FinalDescription       string            `json:"-"`
	DescriptionSource      string            `json:"description_source"`
	DescriptionLanguage    string            `json:"description_language"`
	RawDescription         *string           `json:"raw_description"`
	PortalDescriptionClean string            `json:"portal_description_clean"`
	Quality                MetadataQuality   `json:"metadata_quality"`
}

// MarshalJSON flattens the embedded RawRecord (including Extra) with the enrichment fields.
// The cleaned name and final description replace the raw values.
func (n NormalizedRecord) MarshalJSON() ([]byte, error) {
	base := n.RawRecord
	name := n.CleanName
	description := n.FinalDescription
	base.Name = &name
	base.Description = &description
	base.Credits = ""
	base.Cote = ""

	type enrichment struct {
		AttributesMap          map[string]string `json:"attributes_map"`
		DescriptionSource      string            `json:"description_source"`
		DescriptionLanguage    string            `json:"description_language"`
		RawDescription         *string           `json:"raw_description"`
		PortalDescriptionClean string            `json:"portal_description_clean"`
		Credits                string            `json:"credits"`
		Cote                   string            `json:"cote"`
		Quality                MetadataQuality   `json:"metadata_quality"`
	}

	baseJSON, err := base.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(baseJSON, &merged); err != nil {
		return nil, err
	}

	flags := n.Quality.QualityFlags
	if flags == nil {
		flags = []string{}
	}
	attrs := n.AttributesMap
	if attrs == nil {
		attrs = map[string]string{}
	}
	extraJSON, err := marshalNoEscape(enrichment{
		AttributesMap:          attrs,
		DescriptionSource:      n.DescriptionSource,
		DescriptionLanguage:    n.DescriptionLanguage,
		RawDescription:         n.RawDescription,
		PortalDescriptionClean: n.PortalDescriptionClean,
		Credits:                n.Credits,
		Cote:                   n.Cote,
		Quality:                MetadataQuality{DescriptionSource: n.Quality.DescriptionSource, QualityFlags: flags},
	})
	if err != nil {
		return nil, err
	}
	var extra map[string]json.RawMessage
	if err := json.Unmarshal(extraJSON, &extra); err != nil {
		return nil, err
	}
	for k, v := range extra {
		merged[k] = v
	}
	return marshalNoEscape(merged)
}

// ExportRow is the flat, columnar form of a record used by tabular exports
type ExportRow struct {
	MetadataFilename      string   `json:"metadata_filename" parquet:"metadata_filename"`
	ImageFilename         string   `json:"image_filename" parquet:"image_filename"`
	ResolvedImageFilename string   `json:"resolved_image_filename" parquet:"resolved_image_filename"`
	ImageSizeBytes        int64    `json:"image_size_bytes" parquet:"image_size_bytes"`
	Name                  string   `json:"name" parquet:"name"`
	Description           string   `json:"description" parquet:"description"`
	DateValue             string   `json:"date_value" parquet:"date_value"`
	Credits               string   `json:"credits" parquet:"credits"`
	Cote                  string   `json:"cote" parquet:"cote"`
	ExternalURL           string   `json:"external_url" parquet:"external_url"`
	PortalMatch           bool     `json:"portal_match" parquet:"portal_match"`
	PortalTitle           string   `json:"portal_title" parquet:"portal_title"`
	PortalDescription     string   `json:"portal_description" parquet:"portal_description"`
	PortalDate            string   `json:"portal_date" parquet:"portal_date"`
	PortalCote            string   `json:"portal_cote" parquet:"portal_cote"`
	AerialDatasets        []string `json:"aerial_datasets" parquet:"aerial_datasets,list"`
}

// Document converts the row into a generic JSON-style document
func (e ExportRow) Document() map[string]any {
	datasets := make([]any, 0, len(e.AerialDatasets))
	for _, d := range e.AerialDatasets {
		datasets = append(datasets, d)
	}
	return map[string]any{
		"metadata_filename":       e.MetadataFilename,
		"image_filename":          e.ImageFilename,
		"resolved_image_filename": e.ResolvedImageFilename,
		"image_size_bytes":        float64(e.ImageSizeBytes),
		"name":                    e.Name,
		"description":             e.Description,
		"date_value":              e.DateValue,
		"credits":                 e.Credits,
		"cote":                    e.Cote,
		"external_url":            e.ExternalURL,
		"portal_match":            e.PortalMatch,
		"portal_title":            e.PortalTitle,
		"portal_description":      e.PortalDescription,
		"portal_date":             e.PortalDate,
		"portal_cote":             e.PortalCote,
		"aerial_datasets":         datasets,
	}
}

// Stringify renders a decoded JSON value as text the way it would be read by a person.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func marshalWithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := marshalNoEscape(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, val := range extra {
		if _, exists := merged[k]; !exists {
			merged[k] = val
		}
	}
	return marshalNoEscape(merged)
}

// marshalNoEscape is json.Marshal without HTML escaping of &, < and >
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ExportRow flattens the record for columnar export. Record-level date, credits
// and cote win over the matching attributes.
func (r RawRecord) ExportRow() ExportRow {
	attrs := make(map[string]string, len(r.Attributes))
	for _, a := range r.Attributes {
		if v := a.StringValue(); v != "" && v != "None" {
			attrs[a.TraitType] = v
		}
	}
	pick := func(values ...string) string {
		for _, v := range values {
			if v != "" {
				return v
			}
		}
		return ""
	}

	row := ExportRow{
		MetadataFilename:      r.MetadataFilename,
		ImageFilename:         r.ImageFilename,
		ResolvedImageFilename: pick(r.ResolvedImageFilename, r.ImageFilename),
		DateValue:             pick(r.DateValue, attrs["Date"]),
		Credits:               pick(r.Credits, attrs["Credits"]),
		Cote:                  pick(r.Cote, attrs["Cote"]),
		ExternalURL:           r.ExternalURL,
		PortalMatch:           r.PortalMatch != nil && *r.PortalMatch,
		PortalTitle:           r.PortalString(PortalTitle),
		PortalDescription:     r.PortalString(PortalDescription),
		PortalDate:            r.PortalString(PortalDate),
		PortalCote:            r.PortalString(PortalCote),
		AerialDatasets:        make([]string, 0, len(r.AerialMatches)),
	}
	if r.ImageSizeBytes != nil {
		row.ImageSizeBytes = *r.ImageSizeBytes
	}
	if r.Name != nil {
		row.Name = *r.Name
	}
	if r.Description != nil {
		row.Description = *r.Description
	}
	for _, m := range r.AerialMatches {
		row.AerialDatasets = append(row.AerialDatasets, m.DatasetLabel)
	}
	return row
}
