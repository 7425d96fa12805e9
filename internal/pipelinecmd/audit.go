package pipelinecmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mtl-archives/photometa/internal/audit"
	"github.com/mtl-archives/photometa/internal/manifest"
)

type auditOptions struct {
	Input             string
	Candidates        []string
	ReportDir         string
	IssueOutput       string
	Lenient           bool
	XLSX              bool
	LanguageDetection bool
	RequireReliable   bool
	Quiet             bool
}

// NewAuditCmd creates the audit command
func NewAuditCmd() *cobra.Command {
	var input, reportDir, issueOutput string
	var lenient, xlsx, noDetect bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Generate a metadata quality report for a manifest",
		Long: `Measure field coverage, description lengths, language mix and per-record
quality issues (missing, short, long, uppercase and duplicate descriptions).

Writes metadata_quality_report.json, metadata_quality_report.md and
metadata_coverage_summary.csv into the report directory, plus a
line-delimited issue log. Parquet exports are accepted as input.`,
		Example: `  # Audit the cleaned manifest
  photometa audit

  # Audit a parquet export and also write an Excel coverage sheet
  photometa audit --input export.parquet --report-dir reports --xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			opts := auditOptions{
				Input:             input,
				Candidates:        cfg.ResolveAll(cfg.Audit.InputCandidates),
				ReportDir:         stringFlag(cmd, "report-dir", reportDir, cfg.Resolve(cfg.Audit.ReportDir)),
				IssueOutput:       stringFlag(cmd, "issue-output", issueOutput, cfg.Resolve(cfg.Audit.IssueOutput)),
				Lenient:           lenient,
				XLSX:              boolFlag(cmd, "xlsx", xlsx, cfg.Audit.XLSX),
				LanguageDetection: cfg.Clean.LanguageDetection && !noDetect,
				RequireReliable:   cfg.Clean.RequireReliable,
			}
			_, err = executeAudit(commandContext(cmd), opts)
			return err
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Manifest to audit (.jsonl or .parquet)")
	cmd.Flags().StringVar(&reportDir, "report-dir", "", "Directory for the report files")
	cmd.Flags().StringVar(&issueOutput, "issue-output", "", "Path for the detailed issue log (default <report-dir>/"+audit.IssueLogFile+")")
	cmd.Flags().BoolVar(&lenient, "lenient", false, "Skip malformed lines instead of failing")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "Also write the coverage table as an Excel workbook")
	cmd.Flags().BoolVar(&noDetect, "no-detect", false, "Use only the marker heuristic for language classification")

	return cmd
}

func executeAudit(ctx context.Context, opts auditOptions) (*audit.Report, error) {
	inputPath, err := resolveInput(opts.Input, opts.Candidates)
	if err != nil {
		return nil, err
	}

	issuePath := opts.IssueOutput
	if issuePath == "" {
		issuePath = filepath.Join(opts.ReportDir, audit.IssueLogFile)
	}

	slog.Info("Auditing manifest", "input", inputPath, "report_dir", opts.ReportDir)

	issues, err := manifest.NewWriter(issuePath)
	if err != nil {
		return nil, err
	}

	auditor := audit.NewAuditor(newClassifier(opts.LanguageDetection, opts.RequireReliable), issues)

	malformed := 0
	var onMalformed manifest.MalformedFunc
	if opts.Lenient {
		onMalformed = func(le *manifest.LineError) error {
			malformed++
			slog.Warn("Skipping malformed line", "line", le.Line, "error", le.Err)
			return nil
		}
	}

	loader := manifest.NewLoader(inputPath)
	err = loader.EachDocument(func(_ int, doc map[string]any) error {
		if err := interrupted(ctx); err != nil {
			return err
		}
		return auditor.Add(doc)
	}, onMalformed)
	if err != nil {
		issues.Close()
		return nil, fmt.Errorf("failed to audit manifest: %w", err)
	}

	report, err := auditor.Finish(inputPath, issuePath)
	if closeErr := issues.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, err
	}
	report.MalformedLines = malformed

	paths, err := report.WriteAll(opts.ReportDir, opts.XLSX)
	if err != nil {
		return report, err
	}

	if !opts.Quiet {
		printAuditSummary(report, paths)
	}
	return report, nil
}

func printAuditSummary(report *audit.Report, paths audit.Paths) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Println("METADATA QUALITY AUDIT")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Input: %s\n", report.InputPath)
	fmt.Printf("Total Records: %d\n", report.TotalRecords)
	if report.MalformedLines > 0 {
		fmt.Printf("Malformed Lines Skipped: %d\n", report.MalformedLines)
	}
	fmt.Println()
	fmt.Println("ISSUES")
	fmt.Println(strings.Repeat("-", 70))
	for _, issue := range audit.IssueOrder {
		if count, ok := report.Issues[issue]; ok {
			fmt.Printf("  %-40s %d\n", issue, count)
		}
	}
	fmt.Println()
	fmt.Printf("JSON report:     %s\n", paths.JSON)
	fmt.Printf("Markdown report: %s\n", paths.Markdown)
	fmt.Printf("Coverage CSV:    %s\n", paths.CSV)
	if paths.XLSX != "" {
		fmt.Printf("Coverage XLSX:   %s\n", paths.XLSX)
	}
	fmt.Printf("Issue log:       %s\n", report.IssueOutputPath)
	fmt.Println(strings.Repeat("=", 70))
}
