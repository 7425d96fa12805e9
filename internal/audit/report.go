package audit

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

// Report file names written into the report directory
const (
	ReportJSONFile  = "metadata_quality_report.json"
	ReportMDFile    = "metadata_quality_report.md"
	CoverageCSVFile = "metadata_coverage_summary.csv"
	CoverageXLSX    = "metadata_coverage_summary.xlsx"
	IssueLogFile    = "metadata_quality_issues.ndjson"
)

// Report is the aggregate result of an audit run
type Report struct {
	GeneratedAt              time.Time                 `json:"generated_at"`
	InputPath                string                    `json:"input_path"`
	TotalRecords             int                       `json:"total_records"`
	MalformedLines           int                       `json:"malformed_lines,omitempty"`
	FieldCoverage            map[string]FieldSummary   `json:"field_coverage"`
	DescriptionLengths       *LengthSummary            `json:"description_lengths"`
	PortalDescriptionLengths *LengthSummary            `json:"portal_description_lengths"`
	LanguageDistribution     map[string]map[string]int `json:"language_distribution"`
	Issues                   map[string]int            `json:"issues"`
	IssueSamples             map[string][]IssueSample  `json:"issue_samples"`
	IssueOutputPath          string                    `json:"issue_output_path"`

	// FieldOrder keeps the audited field order for tabular outputs
	FieldOrder []string `json:"-"`
}

// Paths lists the files produced by WriteAll
type Paths struct {
	JSON     string
	Markdown string
	CSV      string
	XLSX     string
}

// WriteAll writes the JSON, Markdown and CSV reports into dir, plus XLSX when withXLSX is set
func (r *Report) WriteAll(dir string, withXLSX bool) (Paths, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Paths{}, fmt.Errorf("failed to create report directory: %w", err)
	}

	paths := Paths{
		JSON:     filepath.Join(dir, ReportJSONFile),
		Markdown: filepath.Join(dir, ReportMDFile),
		CSV:      filepath.Join(dir, CoverageCSVFile),
	}
	if err := r.SaveToJSON(paths.JSON); err != nil {
		return paths, err
	}
	if err := os.WriteFile(paths.Markdown, []byte(r.RenderMarkdown()), 0644); err != nil {
		return paths, fmt.Errorf("failed to write markdown report: %w", err)
	}
	if err := r.ExportCoverageCSV(paths.CSV); err != nil {
		return paths, err
	}
	if withXLSX {
		paths.XLSX = filepath.Join(dir, CoverageXLSX)
		if err := r.ExportCoverageXLSX(paths.XLSX); err != nil {
			return paths, err
		}
	}
	return paths, nil
}

// SaveToJSON saves the report to a JSON file
func (r *Report) SaveToJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

var coverageHeader = []string{"field", "total", "present", "non_empty", "empty", "missing", "percent_present", "percent_non_empty"}

func (r *Report) coverageRows() [][]string {
	rows := make([][]string, 0, len(r.FieldOrder))
	for _, field := range r.fields() {
		s := r.FieldCoverage[field]
		rows = append(rows, []string{
			field,
			strconv.Itoa(s.Total),
			strconv.Itoa(s.Present),
			strconv.Itoa(s.NonEmpty),
			strconv.Itoa(s.Empty),
			strconv.Itoa(s.Missing),
			formatNumber(s.PercentPresent),
			formatNumber(s.PercentNonEmpty),
		})
	}
	return rows
}

// ExportCoverageCSV writes one row per audited field
func (r *Report) ExportCoverageCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create coverage CSV: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(coverageHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range r.coverageRows() {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// ExportCoverageXLSX writes the coverage table as a spreadsheet
func (r *Report) ExportCoverageXLSX(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Coverage"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, header := range coverageHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, field := range r.fields() {
		s := r.FieldCoverage[field]
		values := []any{field, s.Total, s.Present, s.NonEmpty, s.Empty, s.Missing, s.PercentPresent, s.PercentNonEmpty}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	for i := range coverageHeader {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 18)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

// fields returns FieldOrder, or the coverage keys sorted when the report was decoded from JSON
func (r *Report) fields() []string {
	if len(r.FieldOrder) > 0 {
		return r.FieldOrder
	}
	keys := make([]string, 0, len(r.FieldCoverage))
	for k := range r.FieldCoverage {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// issueKeys lists issues with a count or samples, known issues first
func (r *Report) issueKeys() []string {
	var keys []string
	seen := make(map[string]bool)
	for _, k := range IssueOrder {
		if _, ok := r.Issues[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range r.Issues {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
