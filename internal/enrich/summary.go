package enrich

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// failedDateSampleLimit caps how many unparseable dates are kept for the summary
const failedDateSampleLimit = 10

// DateCounts tallies date_value resolution outcomes
type DateCounts struct {
	AlreadyPresent int `json:"already_present" yaml:"already_present"`
	Extracted      int `json:"extracted" yaml:"extracted"`
	NoSource       int `json:"no_source" yaml:"no_source"`
	ParseFailed    int `json:"parse_failed" yaml:"parse_failed"`
}

// Summary holds run statistics for one enrichment pass
type Summary struct {
	RunID                   string         `json:"run_id" yaml:"run_id"`
	GeneratedAt             time.Time      `json:"generated_at" yaml:"generated_at"`
	InputPath               string         `json:"input_path" yaml:"input_path"`
	OutputPath              string         `json:"output_path" yaml:"output_path"`
	TotalRecords            int            `json:"total_records" yaml:"total_records"`
	MalformedLines          int            `json:"malformed_lines" yaml:"malformed_lines"`
	ErrorRecords            int            `json:"error_records" yaml:"error_records"`
	DescriptionSourceCounts map[string]int `json:"description_source_counts" yaml:"description_source_counts"`
	QualityFlagCounts       map[string]int `json:"quality_flag_counts" yaml:"quality_flag_counts"`
	LanguageCounts          map[string]int `json:"language_counts" yaml:"language_counts"`
	Dates                   DateCounts     `json:"dates" yaml:"dates"`
	FailedDateSamples       []string       `json:"failed_date_samples" yaml:"failed_date_samples"`
}

// NewSummary creates an empty summary for a run
func NewSummary(inputPath, outputPath string) *Summary {
	return &Summary{
		RunID:                   uuid.NewString(),
		GeneratedAt:             time.Now().UTC(),
		InputPath:               inputPath,
		OutputPath:              outputPath,
		DescriptionSourceCounts: make(map[string]int),
		QualityFlagCounts:       make(map[string]int),
		LanguageCounts:          make(map[string]int),
		FailedDateSamples:       []string{},
	}
}

// Add records the outcome of one enriched record
func (s *Summary) Add(o Outcome) {
	s.TotalRecords++
	s.DescriptionSourceCounts[o.DescriptionSource]++
	for _, flag := range o.QualityFlags {
		s.QualityFlagCounts[flag]++
	}
	if o.Language != "" {
		s.LanguageCounts[o.Language]++
	}
	s.AddDate(o.DateStatus, o.RawDate)
}

// AddDate records one date resolution outcome
func (s *Summary) AddDate(status DateStatus, raw string) {
	switch status {
	case DateAlreadyPresent:
		s.Dates.AlreadyPresent++
	case DateExtracted:
		s.Dates.Extracted++
	case DateNoSource:
		s.Dates.NoSource++
	case DateParseFailed:
		s.Dates.ParseFailed++
		if len(s.FailedDateSamples) < failedDateSampleLimit {
			s.FailedDateSamples = append(s.FailedDateSamples, raw)
		}
	}
}

// Save writes the summary as YAML when path ends in .yaml/.yml, JSON otherwise
func (s *Summary) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create summary directory: %w", err)
		}
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(s)
	default:
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}
	return nil
}

// PrintSummary prints a human-readable summary of the run
func (s *Summary) PrintSummary() {
	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Println("METADATA CLEANING SUMMARY")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Run ID: %s\n", s.RunID)
	fmt.Printf("Input: %s\n", s.InputPath)
	fmt.Printf("Output: %s\n", s.OutputPath)
	fmt.Printf("Total Records: %d\n", s.TotalRecords)
	fmt.Printf("Malformed Lines: %d\n", s.MalformedLines)
	fmt.Printf("Error Records: %d\n", s.ErrorRecords)
	fmt.Println()

	printCounts("DESCRIPTION SOURCES", s.DescriptionSourceCounts)
	printCounts("QUALITY FLAGS", s.QualityFlagCounts)
	printCounts("LANGUAGES", s.LanguageCounts)

	fmt.Println("DATES")
	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf("Already had date_value: %d\n", s.Dates.AlreadyPresent)
	fmt.Printf("Extracted and normalized: %d\n", s.Dates.Extracted)
	fmt.Printf("No date source: %d\n", s.Dates.NoSource)
	fmt.Printf("Parse failed: %d\n", s.Dates.ParseFailed)
	for _, sample := range s.FailedDateSamples {
		fmt.Printf("  - %s\n", sample)
	}
	fmt.Println(strings.Repeat("=", 70))
}

func printCounts(title string, counts map[string]int) {
	fmt.Println(title)
	fmt.Println(strings.Repeat("-", 70))
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		fmt.Printf("  %-40s %d\n", k, counts[k])
	}
	fmt.Println()
}
