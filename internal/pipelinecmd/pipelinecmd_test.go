package pipelinecmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtl-archives/photometa/internal/audit"
	"github.com/mtl-archives/photometa/internal/description"
	"github.com/mtl-archives/photometa/internal/lookup"
	"github.com/mtl-archives/photometa/internal/manifest"
	"github.com/mtl-archives/photometa/internal/models"
)

func writeLines(t *testing.T, path string, lines ...string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}

func readDocs(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var docs []map[string]any
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var doc map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &doc))
		docs = append(docs, doc)
	}
	require.NoError(t, scanner.Err())
	return docs
}

var rawManifest = []string{
	`{"metadata_filename":"a.json","name":"Parc Lafontaine","description":"S/O","portal_record":{"Description":""},"attributes":[{"trait_type":"Date","value":"1966"}]}`,
	`{"metadata_filename":"b.json", "name": `,
	`{"metadata_filename":"c.json","error":"json_decode_error"}`,
	`{"metadata_filename":"d.json","name":"Rue Sainte-Catherine","description":"Vue de la rue Sainte-Catherine vers l'est, avec tramways et passants.","date_value":"1950","custom_field":42}`,
}

func TestExecuteCleanLenient(t *testing.T) {
	dir := t.TempDir()
	input := writeLines(t, filepath.Join(dir, "manifest.jsonl"), rawManifest...)
	output := filepath.Join(dir, "out", "clean.jsonl")
	summaryPath := filepath.Join(dir, "out", "summary.yaml")

	summary, err := executeClean(context.Background(), cleanOptions{
		Input:   input,
		Output:  output,
		Summary: summaryPath,
		Policy:  description.Suppress,
		Quiet:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalRecords)
	assert.Equal(t, 1, summary.MalformedLines)
	assert.Equal(t, 1, summary.ErrorRecords)
	assert.Equal(t, 1, summary.Dates.AlreadyPresent)
	assert.Equal(t, 1, summary.Dates.Extracted)

	docs := readDocs(t, output)
	require.Len(t, docs, 4)

	a := docs[0]
	assert.Equal(t, "synthetic", a["description_source"])
	assert.Contains(t, a["description"], "Parc Lafontaine")
	assert.Contains(t, a["description"], "1966")
	assert.Equal(t, "S/O", a["raw_description"])
	assert.Equal(t, "1966", a["date_value"])
	assert.Equal(t, 1.0, a["metadata_schema_version"])
	quality := a["metadata_quality"].(map[string]any)
	assert.Contains(t, quality["quality_flags"], "synthetic-description")

	assert.Equal(t, map[string]any{"metadata_filename": "b.json", "error": "json_decode_error", "line": 2.0}, docs[1])
	assert.Equal(t, "json_decode_error", docs[2]["error"])
	assert.Equal(t, "c.json", docs[2]["metadata_filename"])

	d := docs[3]
	assert.Equal(t, "1950", d["date_value"])
	assert.Equal(t, 42.0, d["custom_field"])
	assert.Equal(t, "original", d["description_source"])

	data, err := os.ReadFile(summaryPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run_id:")
	assert.Contains(t, string(data), "malformed_lines: 1")
}

func TestNewClassifierWiresDetector(t *testing.T) {
	assert.False(t, newClassifier(false, true).HasDetector())
	assert.True(t, newClassifier(true, false).HasDetector())
	assert.True(t, newClassifier(true, true).HasDetector())
}

func TestExecuteCleanRequireReliable(t *testing.T) {
	dir := t.TempDir()
	input := writeLines(t, filepath.Join(dir, "manifest.jsonl"), rawManifest...)
	output := filepath.Join(dir, "clean.jsonl")

	summary, err := executeClean(context.Background(), cleanOptions{
		Input:             input,
		Output:            output,
		Summary:           filepath.Join(dir, "summary.yaml"),
		Policy:            description.Suppress,
		LanguageDetection: true,
		RequireReliable:   true,
		Quiet:             true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalRecords)

	for _, doc := range readDocs(t, output) {
		if _, ok := doc["error"]; ok {
			continue
		}
		assert.Contains(t, []any{"fr", "en", "unknown"}, doc["description_language"])
	}
}

func TestExecuteCleanStrict(t *testing.T) {
	dir := t.TempDir()
	input := writeLines(t, filepath.Join(dir, "manifest.jsonl"), rawManifest...)

	_, err := executeClean(context.Background(), cleanOptions{
		Input:  input,
		Output: filepath.Join(dir, "clean.jsonl"),
		Strict: true,
		Quiet:  true,
	})
	require.Error(t, err)

	var lineErr *manifest.LineError
	require.True(t, errors.As(err, &lineErr))
	assert.Equal(t, 2, lineErr.Line)
	assert.Contains(t, err.Error(), "line 2")
}

func TestExecuteCleanNoInput(t *testing.T) {
	dir := t.TempDir()
	_, err := executeClean(context.Background(), cleanOptions{
		Candidates: []string{filepath.Join(dir, "manifest_enriched.jsonl"), filepath.Join(dir, "manifest.jsonl")},
		Output:     filepath.Join(dir, "clean.jsonl"),
		Quiet:      true,
	})
	assert.ErrorIs(t, err, manifest.ErrNoInput)

	_, err = executeClean(context.Background(), cleanOptions{
		Input:  filepath.Join(dir, "absent.jsonl"),
		Output: filepath.Join(dir, "clean.jsonl"),
		Quiet:  true,
	})
	assert.ErrorIs(t, err, manifest.ErrNoInput)
}

func TestExecuteCleanDiscoversCandidate(t *testing.T) {
	dir := t.TempDir()
	writeLines(t, filepath.Join(dir, "manifest.jsonl"), rawManifest[0])

	summary, err := executeClean(context.Background(), cleanOptions{
		Candidates: []string{filepath.Join(dir, "manifest_enriched.jsonl"), filepath.Join(dir, "manifest.jsonl")},
		Output:     filepath.Join(dir, "clean.jsonl"),
		Quiet:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "manifest.jsonl"), summary.InputPath)
}

func TestExecuteCleanIsStableOnRerun(t *testing.T) {
	dir := t.TempDir()
	input := writeLines(t, filepath.Join(dir, "manifest.jsonl"), rawManifest[0], rawManifest[3])
	first := filepath.Join(dir, "first.jsonl")
	second := filepath.Join(dir, "second.jsonl")

	_, err := executeClean(context.Background(), cleanOptions{Input: input, Output: first, Quiet: true})
	require.NoError(t, err)
	_, err = executeClean(context.Background(), cleanOptions{Input: first, Output: second, Quiet: true})
	require.NoError(t, err)

	a, b := readDocs(t, first), readDocs(t, second)
	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i]["description"], b[i]["description"])
		assert.Equal(t, a[i]["date_value"], b[i]["date_value"])
	}
}

func TestExecuteAudit(t *testing.T) {
	dir := t.TempDir()
	input := writeLines(t, filepath.Join(dir, "clean.jsonl"),
		`{"metadata_filename":"r1.json","description":"A B"}`,
		`{"metadata_filename":"r2.json","description":"a   b"}`,
		`not json`,
		`{"metadata_filename":"r3.json","description":"C D"}`,
	)
	reportDir := filepath.Join(dir, "reports")

	_, err := executeAudit(context.Background(), auditOptions{Input: input, ReportDir: reportDir, Quiet: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")

	report, err := executeAudit(context.Background(), auditOptions{Input: input, ReportDir: reportDir, Lenient: true, Quiet: true})
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalRecords)
	assert.Equal(t, 1, report.MalformedLines)
	assert.Equal(t, 2, report.Issues[audit.IssueDuplicateDescription])

	for _, name := range []string{audit.ReportJSONFile, audit.ReportMDFile, audit.CoverageCSVFile, audit.IssueLogFile} {
		_, err := os.Stat(filepath.Join(reportDir, name))
		assert.NoError(t, err, name)
	}

	var duplicates []string
	for _, doc := range readDocs(t, filepath.Join(reportDir, audit.IssueLogFile)) {
		if doc["issue"] == audit.IssueDuplicateDescription {
			duplicates = append(duplicates, doc["metadata_filename"].(string))
		}
	}
	assert.Equal(t, []string{"r1.json", "r2.json"}, duplicates)
}

func TestExecuteAuditCustomIssueOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeLines(t, filepath.Join(dir, "clean.jsonl"), `{"metadata_filename":"r1.json"}`)
	issuePath := filepath.Join(dir, "elsewhere", "issues.ndjson")

	report, err := executeAudit(context.Background(), auditOptions{
		Input:       input,
		ReportDir:   filepath.Join(dir, "reports"),
		IssueOutput: issuePath,
		Quiet:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, issuePath, report.IssueOutputPath)
	assert.Len(t, readDocs(t, issuePath), 2)
}

func TestExecuteAuditParquet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.parquet")
	require.NoError(t, manifest.WriteParquet(path, []models.ExportRow{
		{MetadataFilename: "p1.json", Description: "Vue aérienne du port de Montréal", PortalDescription: "Port", Cote: "VM97"},
		{MetadataFilename: "p2.json", Description: "", PortalTitle: "Titre"},
	}))

	report, err := executeAudit(context.Background(), auditOptions{Input: path, ReportDir: filepath.Join(dir, "reports"), Quiet: true})
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalRecords)
	assert.Equal(t, 1, report.FieldCoverage["portal_description"].NonEmpty)
	assert.Equal(t, 1, report.FieldCoverage["cote"].NonEmpty)
	assert.Equal(t, 1, report.Issues[audit.IssueMissingDescription])
}

func TestExecuteDates(t *testing.T) {
	dir := t.TempDir()
	input := writeLines(t, filepath.Join(dir, "clean.jsonl"),
		`{"metadata_filename":"1","attributes_map":{"Date":"26-mars-36"}}`,
		`{"metadata_filename":"2","date_value":"1901","attributes_map":{"Date":"1955"}}`,
		`{"metadata_filename":"3","portal_record":{"Date":"Décennie 1930"}}`,
		`{"metadata_filename":"4","portal_date":"1947-1949"}`,
		`{"metadata_filename":"5"}`,
		`{"metadata_filename":"6","attributes_map":{"Date":"inconnue"}}`,
	)
	output := filepath.Join(dir, "dated.jsonl")

	summary, err := executeDates(context.Background(), input, output, true, true)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Dates.Extracted)
	assert.Equal(t, 1, summary.Dates.AlreadyPresent)
	assert.Equal(t, 1, summary.Dates.NoSource)
	assert.Equal(t, 1, summary.Dates.ParseFailed)
	assert.Equal(t, []string{"inconnue"}, summary.FailedDateSamples)
	_, err = os.Stat(output)
	assert.True(t, os.IsNotExist(err), "dry run must not write output")

	_, err = executeDates(context.Background(), input, output, false, true)
	require.NoError(t, err)
	docs := readDocs(t, output)
	require.Len(t, docs, 6)
	assert.Equal(t, "1936", docs[0]["date_value"])
	assert.Equal(t, "1901", docs[1]["date_value"])
	assert.Equal(t, "1930s", docs[2]["date_value"])
	assert.Equal(t, "1947-1949", docs[3]["date_value"])
	assert.NotContains(t, docs[4], "date_value")
	assert.NotContains(t, docs[5], "date_value")
}

func TestExecuteAugment(t *testing.T) {
	dir := t.TempDir()
	images := filepath.Join(dir, "images")
	require.NoError(t, os.MkdirAll(images, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(images, "VM94-1.tif"), []byte("tiff"), 0644))

	portal := filepath.Join(dir, "portal.json")
	require.NoError(t, os.WriteFile(portal, []byte(`{"result":{"records":[{"Titre":"Parc","Fichier jpg - 200 dpi":"https://p/1.jpg"}]}}`), 0644))
	aerial := filepath.Join(dir, "aerial.json")
	require.NoError(t, os.WriteFile(aerial, []byte(`{"result":{"records":[{"url":"https://p/1.jpg\nhttps://p/9.jpg"}]}}`), 0644))

	input := writeLines(t, filepath.Join(dir, "manifest.jsonl"),
		`{"metadata_filename":"1.json","image_filename":"VM94-1.jpg","external_url":"https://P/1.jpg "}`,
		`{broken`,
		`{"metadata_filename":"2.json","image_filename":"VM94-2.jpg","external_url":"https://p/2.jpg"}`,
	)
	output := filepath.Join(dir, "enriched.jsonl")

	summary, err := executeAugment(context.Background(), augmentOptions{
		Input:           input,
		Output:          output,
		Summary:         filepath.Join(dir, "summary.json"),
		PortalDatastore: portal,
		BackupImageDir:  images,
		Datasets:        []lookup.Dataset{{Label: "aerial_1958", Path: aerial, URLFields: []string{"url"}}},
		Quiet:           true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.ManifestRecords)
	assert.Equal(t, 1, summary.ErrorRecords)
	assert.Equal(t, 1, summary.PortalMatched)
	assert.Equal(t, 1, summary.AerialMatched)
	assert.Equal(t, 1, summary.ImageFound)
	assert.Equal(t, map[string]int{"aerial_1958": 2}, summary.DatasetEntryCounts)

	docs := readDocs(t, output)
	require.Len(t, docs, 3)
	assert.Equal(t, true, docs[0]["portal_match"])
	assert.Equal(t, "VM94-1.tif", docs[0]["resolved_image_filename"])
	assert.Equal(t, 4.0, docs[0]["image_size_bytes"])
	assert.Len(t, docs[0]["aerial_matches"], 1)
	assert.Equal(t, "json_decode_error", docs[1]["error"])
	assert.Equal(t, false, docs[2]["image_exists"])
	assert.Equal(t, false, docs[2]["portal_match"])
}

func TestExecuteExport(t *testing.T) {
	dir := t.TempDir()
	input := writeLines(t, filepath.Join(dir, "clean.jsonl"),
		`{"metadata_filename":"1.json","name":"Parc","description":"Une description","date_value":"1966","portal_record":{"Titre":"Parc Lafontaine"},"aerial_matches":[{"dataset":"aerial_1958","record":{}}],"attributes":[{"trait_type":"Cote","value":"VM94"}]}`,
		`{"metadata_filename":"2.json","error":"json_decode_error"}`,
	)
	out := filepath.Join(dir, "export")

	summary, err := executeExport(context.Background(), input, nil, out)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Rows)
	assert.Equal(t, 1, summary.SkippedErrors)

	rows, err := manifest.ReadParquet(summary.ParquetPath)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Parc Lafontaine", rows[0].PortalTitle)
	assert.Equal(t, "VM94", rows[0].Cote)
	assert.Equal(t, "1966", rows[0].DateValue)
	assert.Equal(t, []string{"aerial_1958"}, rows[0].AerialDatasets)

	_, err = os.Stat(filepath.Join(out, exportSummaryFile))
	assert.NoError(t, err)
}

func TestExecuteInspect(t *testing.T) {
	dir := t.TempDir()
	input := writeLines(t, filepath.Join(dir, "manifest.jsonl"), rawManifest...)

	var out strings.Builder
	err := executeInspect(context.Background(), &out, nil, input, 0, description.Suppress, true)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Loaded 3 records")
	assert.Contains(t, text, "Source:         synthetic")
	assert.Contains(t, text, "Error record:   json_decode_error")
}

func TestExecuteInspectInteractive(t *testing.T) {
	dir := t.TempDir()
	input := writeLines(t, filepath.Join(dir, "manifest.jsonl"), rawManifest[0], rawManifest[3])

	var out strings.Builder
	err := executeInspect(context.Background(), &out, strings.NewReader("\n\n"), input, 2, description.Suppress, false)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out.String(), "Press Enter"))
}
