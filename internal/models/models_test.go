package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawRecordPreservesUnknownKeys(t *testing.T) {
	line := `{"metadata_filename":"a.json","name":"Parc","description":null,"attributes":[],"collection":"aerial","scan":{"dpi":300}}`

	var rec RawRecord
	require.NoError(t, json.Unmarshal([]byte(line), &rec))
	assert.Equal(t, "a.json", rec.MetadataFilename)
	assert.Nil(t, rec.Description)
	assert.Contains(t, rec.Extra, "collection")
	assert.Contains(t, rec.Extra, "scan")
	assert.NotContains(t, rec.Extra, "name")

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "aerial", doc["collection"])
	assert.Equal(t, map[string]any{"dpi": float64(300)}, doc["scan"])
	assert.Nil(t, doc["description"])
}

func TestRawRecordCoercesScalarTypes(t *testing.T) {
	line := `{
		"metadata_filename": "n.json",
		"name": 1966,
		"description": true,
		"date_value": 1966,
		"cote": 12.5,
		"image_size_bytes": 12.5,
		"metadata_schema_version": "2",
		"portal_match": "true",
		"image_exists": 1,
		"attributes": [{"trait_type": 7, "value": 1936}]
	}`

	var rec RawRecord
	require.NoError(t, json.Unmarshal([]byte(line), &rec))
	require.NotNil(t, rec.Name)
	assert.Equal(t, "1966", *rec.Name)
	assert.Equal(t, "true", *rec.Description)
	assert.Equal(t, "1966", rec.DateValue)
	assert.Equal(t, "12.5", rec.Cote)
	require.NotNil(t, rec.ImageSizeBytes)
	assert.Equal(t, int64(12), *rec.ImageSizeBytes)
	assert.Equal(t, 2, rec.MetadataSchemaVersion)
	require.NotNil(t, rec.PortalMatch)
	assert.True(t, *rec.PortalMatch)
	require.NotNil(t, rec.ImageExists)
	assert.True(t, *rec.ImageExists)
	require.Len(t, rec.Attributes, 1)
	assert.Equal(t, "7", rec.Attributes[0].TraitType)
	assert.Equal(t, "1936", rec.Attributes[0].StringValue())
}

func TestRawRecordDropsUnrecoverableScalars(t *testing.T) {
	var rec RawRecord
	require.NoError(t, json.Unmarshal([]byte(`{"image_size_bytes": "big", "portal_match": [1], "name": null}`), &rec))
	assert.Nil(t, rec.ImageSizeBytes)
	assert.Nil(t, rec.PortalMatch)
	assert.Nil(t, rec.Name)

	var typed *json.UnmarshalTypeError
	err := json.Unmarshal([]byte(`{"portal_record": "oops"}`), &rec)
	assert.ErrorAs(t, err, &typed)
}

func TestMarshalKeepsHTMLCharacters(t *testing.T) {
	name := "Rue A & B <nord>"
	rec := NormalizedRecord{
		RawRecord:        RawRecord{Name: &name, Description: &name},
		CleanName:        name,
		FinalDescription: "Coin A & B > C",
		RawDescription:   &name,
	}

	data, err := rec.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Rue A & B <nord>"`)
	assert.Contains(t, string(data), `"Coin A & B > C"`)
	assert.NotContains(t, string(data), `\u0026`)

	data, err = RawRecord{Name: &name}.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name":"Rue A & B <nord>"`)
}

func TestAttributeStringValue(t *testing.T) {
	tests := []struct {
		value    any
		expected string
	}{
		{nil, ""},
		{"1936", "1936"},
		{float64(1936), "1936"},
		{float64(1.5), "1.5"},
		{true, "true"},
		{json.Number("42"), "42"},
		{[]any{"a"}, "[a]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Attribute{TraitType: "x", Value: tt.value}.StringValue())
	}
}

func TestNormalizedRecordMarshal(t *testing.T) {
	raw := "S/O"
	rec := NormalizedRecord{
		RawRecord: RawRecord{
			MetadataFilename: "a.json",
			Name:             &raw,
			Description:      &raw,
			Credits:          "raw credits",
			Extra:            map[string]json.RawMessage{"collection": json.RawMessage(`"aerial"`)},
		},
		CleanName:           "Parc Lafontaine",
		FinalDescription:    "Parc Lafontaine. Capturée ou datée de 1966.",
		DescriptionSource:   "synthetic",
		DescriptionLanguage: "fr",
		RawDescription:      &raw,
	}
	rec.Credits = "Archives de Montréal"

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "Parc Lafontaine", doc["name"])
	assert.Equal(t, "Parc Lafontaine. Capturée ou datée de 1966.", doc["description"])
	assert.Equal(t, "S/O", doc["raw_description"])
	assert.Equal(t, "synthetic", doc["description_source"])
	assert.Equal(t, "Archives de Montréal", doc["credits"])
	assert.Equal(t, "", doc["cote"])
	assert.Equal(t, "aerial", doc["collection"])
	assert.Equal(t, map[string]any{}, doc["attributes_map"])
	assert.Equal(t, map[string]any{"description_source": "", "quality_flags": []any{}}, doc["metadata_quality"])
}

func TestExportRow(t *testing.T) {
	line := `{
		"metadata_filename": "a.json",
		"image_filename": "a.jpg",
		"image_size_bytes": 2048,
		"name": "Parc",
		"description": "Vue du parc",
		"attributes": [
			{"trait_type": "Date", "value": "1936"},
			{"trait_type": "Credits", "value": "None"},
			{"trait_type": "Cote", "value": "VM97"}
		],
		"cote": "VM97-3",
		"portal_match": true,
		"portal_record": {"Titre": "Parc Lafontaine", "Date": "1936"},
		"aerial_matches": [{"dataset": "1947", "record": {}}]
	}`

	var rec RawRecord
	require.NoError(t, json.Unmarshal([]byte(line), &rec))
	row := rec.ExportRow()

	assert.Equal(t, "a.jpg", row.ResolvedImageFilename)
	assert.Equal(t, int64(2048), row.ImageSizeBytes)
	assert.Equal(t, "1936", row.DateValue)
	assert.Equal(t, "", row.Credits)
	assert.Equal(t, "VM97-3", row.Cote)
	assert.True(t, row.PortalMatch)
	assert.Equal(t, "Parc Lafontaine", row.PortalTitle)
	assert.Equal(t, []string{"1947"}, row.AerialDatasets)

	doc := row.Document()
	assert.Equal(t, "Vue du parc", doc["description"])
	assert.Equal(t, []any{"1947"}, doc["aerial_datasets"])

	empty := RawRecord{}.ExportRow()
	assert.NotNil(t, empty.AerialDatasets)
}
