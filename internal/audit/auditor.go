// Package audit measures field coverage, description lengths, language mix
// and per-record quality issues over a normalized manifest.
package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/mtl-archives/photometa/internal/fieldpath"
	"github.com/mtl-archives/photometa/internal/language"
	"github.com/mtl-archives/photometa/internal/models"
	"github.com/mtl-archives/photometa/internal/textnorm"
)

// Thresholds
const (
	ShortDescriptionLength = 25
	LongDescriptionLength  = 512
	SampleLimit            = 25
)

// Issue names
const (
	IssueMissingDescription       = "missing_description"
	IssueShortDescription         = "short_description"
	IssueLongDescription          = "long_description"
	IssueMissingPortalDescription = "missing_portal_description"
	IssueUppercaseDescription     = "uppercase_description"
	IssueDuplicateDescription     = "duplicate_description"
)

// IssueOrder is the order issues are listed in reports
var IssueOrder = []string{
	IssueMissingDescription,
	IssueShortDescription,
	IssueLongDescription,
	IssueMissingPortalDescription,
	IssueUppercaseDescription,
	IssueDuplicateDescription,
}

const missingPreview = "(missing)"

// Issue is one line of the issue log
type Issue struct {
	Issue            string   `json:"issue"`
	MetadataFilename string   `json:"metadata_filename"`
	Value            *string  `json:"value,omitempty"`
	Preview          string   `json:"preview,omitempty"`
	Length           int      `json:"length,omitempty"`
	Duplicates       []string `json:"duplicates,omitempty"`
}

// IssueSample is the short form of an issue kept in the report
type IssueSample struct {
	MetadataFilename string `json:"metadata_filename"`
	Preview          string `json:"preview"`
}

func (i Issue) sample() IssueSample {
	preview := i.Preview
	if preview == "" && i.Value != nil {
		preview = *i.Value
	}
	return IssueSample{MetadataFilename: i.MetadataFilename, Preview: preview}
}

// IssueSink receives issues as they are found
type IssueSink interface {
	Write(v any) error
}

// record is the view of one document the checks work on
type record struct {
	filename       string
	description    string
	hasDescription bool
	portal         string
	hasPortal      bool
}

type check struct {
	issue  string
	detect func(r record) (Issue, bool)
}

// checks run in order on every record
var checks = []check{
	{IssueMissingDescription, func(r record) (Issue, bool) {
		if r.description != "" {
			return Issue{}, false
		}
		value := r.description
		return Issue{Value: &value, Preview: missingPreview}, true
	}},
	{IssueShortDescription, func(r record) (Issue, bool) {
		n := textnorm.Len(r.description)
		if r.description == "" || n >= ShortDescriptionLength {
			return Issue{}, false
		}
		value := r.description
		return Issue{Value: &value, Length: n}, true
	}},
	{IssueLongDescription, func(r record) (Issue, bool) {
		n := textnorm.Len(r.description)
		if n <= LongDescriptionLength {
			return Issue{}, false
		}
		value := textnorm.Truncate(r.description, 200) + "..."
		return Issue{Value: &value, Length: n}, true
	}},
	{IssueMissingPortalDescription, func(r record) (Issue, bool) {
		if r.portal != "" {
			return Issue{}, false
		}
		return Issue{Preview: missingPreview}, true
	}},
	{IssueUppercaseDescription, func(r record) (Issue, bool) {
		if r.description == "" || !textnorm.IsUpper(r.description) {
			return Issue{}, false
		}
		value := r.description
		if textnorm.Len(value) > 120 {
			value = textnorm.Truncate(value, 120) + "..."
		}
		return Issue{Value: &value}, true
	}},
}

// Auditor accumulates statistics over a stream of documents
type Auditor struct {
	fields     []Field
	classifier *language.Classifier
	sink       IssueSink

	total          int
	coverage       map[string]*FieldStats
	languageCounts map[string]map[string]int
	issues         map[string]int
	samples        map[string][]IssueSample

	duplicates map[string][]string
	dupOrder   []string

	descriptionField Field
	portalField      Field
}

// NewAuditor creates an auditor. sink may be nil when no issue log is wanted.
func NewAuditor(classifier *language.Classifier, sink IssueSink) *Auditor {
	if classifier == nil {
		classifier = language.NewClassifier(nil)
	}
	a := &Auditor{
		fields:         DefaultFields,
		classifier:     classifier,
		sink:           sink,
		coverage:       make(map[string]*FieldStats),
		languageCounts: map[string]map[string]int{"description": {}, "portal_description": {}},
		issues:         make(map[string]int),
		samples:        make(map[string][]IssueSample),
		duplicates:     make(map[string][]string),
	}
	for _, f := range a.fields {
		a.coverage[f.Name] = &FieldStats{}
	}
	a.descriptionField = findField(a.fields, "description")
	a.portalField = findField(a.fields, "portal_description")
	return a
}

// Add audits one document
func (a *Auditor) Add(doc map[string]any) error {
	a.total++

	for _, f := range a.fields {
		value, _ := fieldpath.Resolve(doc, f.Paths)
		a.coverage[f.Name].Add(value)
	}

	rec := record{filename: lookupString(doc, filenamePaths)}
	rec.description = strings.TrimSpace(lookupString(doc, a.descriptionField.Paths))
	rec.portal = strings.TrimSpace(lookupString(doc, a.portalField.Paths))

	a.languageCounts["description"][a.classifier.Classify(rec.description)]++
	a.languageCounts["portal_description"][a.classifier.Classify(rec.portal)]++

	for _, c := range checks {
		issue, found := c.detect(rec)
		if !found {
			continue
		}
		issue.Issue = c.issue
		issue.MetadataFilename = rec.filename
		if err := a.record(issue); err != nil {
			return err
		}
	}

	if rec.description != "" {
		key := textnorm.CollapseLower(rec.description)
		if _, seen := a.duplicates[key]; !seen {
			a.dupOrder = append(a.dupOrder, key)
		}
		a.duplicates[key] = append(a.duplicates[key], rec.filename)
	}
	return nil
}

// Total returns the number of documents audited so far
func (a *Auditor) Total() int {
	return a.total
}

func (a *Auditor) record(issue Issue) error {
	a.issues[issue.Issue]++
	if len(a.samples[issue.Issue]) < SampleLimit {
		a.samples[issue.Issue] = append(a.samples[issue.Issue], issue.sample())
	}
	if a.sink != nil {
		if err := a.sink.Write(issue); err != nil {
			return fmt.Errorf("failed to write issue log: %w", err)
		}
	}
	return nil
}

// flushDuplicates reports every filename sharing a normalized description with another record
func (a *Auditor) flushDuplicates() error {
	for _, key := range a.dupOrder {
		files := a.duplicates[key]
		if len(files) < 2 {
			continue
		}
		unique := dedupe(files)
		preview := key
		if textnorm.Len(key) > 120 {
			preview = textnorm.Truncate(key, 120) + "..."
		}
		for _, filename := range unique {
			issue := Issue{
				Issue:            IssueDuplicateDescription,
				MetadataFilename: filename,
				Preview:          preview,
				Duplicates:       unique,
			}
			if err := a.record(issue); err != nil {
				return err
			}
		}
	}
	a.duplicates = make(map[string][]string)
	a.dupOrder = nil
	return nil
}

// Finish closes the stream and builds the report
func (a *Auditor) Finish(inputPath, issueOutputPath string) (*Report, error) {
	if err := a.flushDuplicates(); err != nil {
		return nil, err
	}

	report := &Report{
		GeneratedAt:          time.Now().UTC(),
		InputPath:            inputPath,
		TotalRecords:         a.total,
		FieldCoverage:        make(map[string]FieldSummary, len(a.fields)),
		LanguageDistribution: a.languageCounts,
		Issues:               a.issues,
		IssueSamples:         a.samples,
		IssueOutputPath:      issueOutputPath,
	}
	for _, f := range a.fields {
		report.FieldOrder = append(report.FieldOrder, f.Name)
		report.FieldCoverage[f.Name] = a.coverage[f.Name].Summary()
	}
	report.DescriptionLengths = SummarizeLengths(a.coverage[a.descriptionField.Name].Lengths)
	report.PortalDescriptionLengths = SummarizeLengths(a.coverage[a.portalField.Name].Lengths)
	return report, nil
}

func lookupString(doc map[string]any, paths []fieldpath.Path) string {
	value, ok := fieldpath.Resolve(doc, paths)
	if !ok {
		return ""
	}
	return models.Stringify(value)
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
