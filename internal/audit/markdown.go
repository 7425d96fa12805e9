package audit

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// RenderMarkdown renders the report as a Markdown document with aligned tables
func (r *Report) RenderMarkdown() string {
	var lines []string
	lines = append(lines,
		"# Metadata Quality Report",
		"",
		fmt.Sprintf("- **Generated at:** %s", r.GeneratedAt.Format("2006-01-02T15:04:05Z07:00")),
		fmt.Sprintf("- **Input file:** `%s`", r.InputPath),
		fmt.Sprintf("- **Total records:** %d", r.TotalRecords),
	)
	if r.MalformedLines > 0 {
		lines = append(lines, fmt.Sprintf("- **Malformed lines skipped:** %d", r.MalformedLines))
	}

	lines = append(lines, "", "## Field Coverage", "")
	coverage := [][]string{{"Field", "Present %", "Non-empty %", "Missing", "Empty"}}
	for _, field := range r.fields() {
		s := r.FieldCoverage[field]
		coverage = append(coverage, []string{
			"`" + field + "`",
			formatNumber(s.PercentPresent) + "%",
			formatNumber(s.PercentNonEmpty) + "%",
			strconv.Itoa(s.Missing),
			strconv.Itoa(s.Empty),
		})
	}
	lines = append(lines, formatTable(coverage)...)

	lines = appendLengthSection(lines, "Description Length", r.DescriptionLengths)
	lines = appendLengthSection(lines, "Portal Description Length", r.PortalDescriptionLengths)

	lines = append(lines, "", "## Language Distribution", "")
	languages := [][]string{{"Field", "Label", "Count"}}
	for _, field := range []string{"description", "portal_description"} {
		counts := r.LanguageDistribution[field]
		labels := make([]string, 0, len(counts))
		for label := range counts {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			languages = append(languages, []string{"`" + field + "`", label, strconv.Itoa(counts[label])})
		}
	}
	lines = append(lines, formatTable(languages)...)

	lines = append(lines, "", "## Issue Summary", "")
	issues := [][]string{{"Issue", "Count"}}
	for _, issue := range r.issueKeys() {
		issues = append(issues, []string{issue, strconv.Itoa(r.Issues[issue])})
	}
	lines = append(lines, formatTable(issues)...)

	lines = append(lines, "", "## Samples", "")
	for _, issue := range r.issueKeys() {
		lines = append(lines, "### "+issue, "")
		samples := r.IssueSamples[issue]
		if len(samples) == 0 {
			lines = append(lines, "(no samples recorded)", "")
			continue
		}
		for _, s := range samples {
			lines = append(lines, fmt.Sprintf("- `%s` - %s", s.MetadataFilename, s.Preview))
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

func appendLengthSection(lines []string, label string, s *LengthSummary) []string {
	if s == nil {
		return lines
	}
	return append(lines,
		"",
		"## "+label,
		"",
		fmt.Sprintf("- **Average length:** %s characters", formatNumber(s.Mean)),
		fmt.Sprintf("- **Median length:** %s characters", formatNumber(s.Median)),
		fmt.Sprintf("- **Min length:** %s characters", formatNumber(s.Min)),
		fmt.Sprintf("- **Max length:** %s characters", formatNumber(s.Max)),
		fmt.Sprintf("- **P90 length:** %s characters", formatNumber(s.P90)),
	)
}

// formatTable renders rows (first row is the header) as a padded Markdown table.
// Widths are display widths so accented and wide characters line up.
func formatTable(rows [][]string) []string {
	if len(rows) == 0 {
		return nil
	}
	colWidths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i := range colWidths {
			if i >= len(row) {
				continue
			}
			if width := runewidth.StringWidth(row[i]); width > colWidths[i] {
				colWidths[i] = width
			}
		}
	}
	for i := range colWidths {
		if colWidths[i] < 3 {
			colWidths[i] = 3
		}
	}

	result := make([]string, 0, len(rows)+1)
	for rowIdx, row := range rows {
		result = append(result, formatRow(row, colWidths))
		if rowIdx == 0 {
			sep := make([]string, len(colWidths))
			for i, w := range colWidths {
				sep[i] = strings.Repeat("-", w)
			}
			result = append(result, formatRow(sep, colWidths))
		}
	}
	return result
}

func formatRow(row []string, colWidths []int) string {
	var sb strings.Builder
	sb.WriteString("|")
	for i, width := range colWidths {
		content := ""
		if i < len(row) {
			content = row[i]
		}
		sb.WriteString(" ")
		sb.WriteString(content)
		if padding := width - runewidth.StringWidth(content); padding > 0 {
			sb.WriteString(strings.Repeat(" ", padding))
		}
		sb.WriteString(" |")
	}
	return sb.String()
}
