package pipelinecmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mtl-archives/photometa/internal/enrich"
	"github.com/mtl-archives/photometa/internal/manifest"
)

// NewDatesCmd creates the dates command
func NewDatesCmd() *cobra.Command {
	var input, output string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "dates",
		Short: "Fill date_value from attribute and portal dates",
		Long: `Normalize free-form dates into a single year, a year range or a decade
and store the result in date_value. Records that already carry a date_value
are left untouched.`,
		Example: `  # Show what would be extracted without writing
  photometa dates --input manifest_clean.jsonl --dry-run

  # Write the updated manifest
  photometa dates --input manifest_clean.jsonl --output manifest_dated.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				return fmt.Errorf("--input is required")
			}
			if output == "" && !dryRun {
				return fmt.Errorf("--output is required unless --dry-run is set")
			}
			_, err := executeDates(commandContext(cmd), input, output, dryRun, false)
			return err
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Input manifest (required)")
	cmd.Flags().StringVar(&output, "output", "", "Output manifest")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print statistics without writing")

	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func executeDates(ctx context.Context, input, output string, dryRun, quiet bool) (*enrich.Summary, error) {
	inputPath, err := resolveInput(input, nil)
	if err != nil {
		return nil, err
	}
	if output == "" && !dryRun {
		return nil, errors.New("an output path is required")
	}
	slog.Info("Normalizing dates", "input", inputPath, "output", output, "dry_run", dryRun)

	summary := enrich.NewSummary(inputPath, output)

	var writer *manifest.Writer
	if !dryRun {
		writer, err = manifest.NewWriter(output)
		if err != nil {
			return nil, err
		}
	}

	loader := manifest.NewLoader(inputPath)
	err = loader.EachDocument(func(_ int, doc map[string]any) error {
		if err := interrupted(ctx); err != nil {
			return err
		}
		summary.TotalRecords++
		status, raw := enrich.FillDate(doc)
		summary.AddDate(status, raw)
		if writer == nil {
			return nil
		}
		return writer.Write(doc)
	}, nil)

	if writer != nil {
		if closeErr := writer.Close(); err == nil {
			err = closeErr
		}
	}
	if err != nil {
		return summary, fmt.Errorf("failed to normalize dates: %w", err)
	}

	if !quiet {
		printDateSummary(summary, dryRun)
	}
	return summary, nil
}

func printDateSummary(s *enrich.Summary, dryRun bool) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Println("DATE NORMALIZATION")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Total records: %d\n", s.TotalRecords)
	fmt.Printf("Already had date_value: %d\n", s.Dates.AlreadyPresent)
	fmt.Printf("Extracted and normalized: %d\n", s.Dates.Extracted)
	fmt.Printf("No date source: %d\n", s.Dates.NoSource)
	fmt.Printf("Parse failed: %d\n", s.Dates.ParseFailed)
	if len(s.FailedDateSamples) > 0 {
		fmt.Println("\nSample failed dates:")
		for _, sample := range s.FailedDateSamples {
			fmt.Printf("  - %s\n", sample)
		}
	}
	if dryRun {
		fmt.Println("\n[dry run: nothing written]")
	} else {
		fmt.Printf("\nWritten to: %s\n", s.OutputPath)
	}
	fmt.Println(strings.Repeat("=", 70))
}
