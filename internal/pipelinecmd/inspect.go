package pipelinecmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mtl-archives/photometa/internal/description"
	"github.com/mtl-archives/photometa/internal/enrich"
	"github.com/mtl-archives/photometa/internal/manifest"
	"github.com/mtl-archives/photometa/internal/models"
	"github.com/mtl-archives/photometa/internal/textnorm"
)

const previewChars = 500

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	var input, policy string
	var limit int
	var interactive, showRaw bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Preview how records would be enriched",
		Long: `Inspect raw manifest records next to their enrichment preview.

Useful for tuning the abbreviation policy and checking which records
end up with synthesized descriptions.`,
		Example: `  # Inspect the first 5 records interactively
  photometa inspect --input manifest_enriched.jsonl --limit 5 --interactive

  # Preview the expand policy without the raw fields
  photometa inspect --input manifest_enriched.jsonl --abbreviations expand --raw=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				return fmt.Errorf("--input is required")
			}
			parsed, err := description.ParsePolicy(policy)
			if err != nil {
				return err
			}

			in := io.Reader(nil)
			if interactive {
				in = os.Stdin
			}
			return executeInspect(commandContext(cmd), os.Stdout, in, input, limit, parsed, showRaw)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Manifest to inspect (required)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of records to inspect (0 for all)")
	cmd.Flags().StringVar(&policy, "abbreviations", "suppress", "Null-content abbreviation policy (suppress or expand)")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Pause after each record (press Enter to continue)")
	cmd.Flags().BoolVar(&showRaw, "raw", true, "Show the raw name, description and portal fields")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// executeInspect prints records to out. When in is non-nil it waits for a line after each record.
func executeInspect(ctx context.Context, out io.Writer, in io.Reader, input string, limit int, policy description.AbbreviationPolicy, showRaw bool) error {
	loader := manifest.NewLoader(input)
	records, err := loader.LoadSample(limit)
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	enricher := enrich.NewEnricher(description.NewResolver(policy), newClassifier(true, false))

	fmt.Fprintf(out, "Loaded %d records from %s\n", len(records), input)
	fmt.Fprintln(out, strings.Repeat("=", 80))
	fmt.Fprintln(out)

	var reader *bufio.Reader
	if in != nil {
		reader = bufio.NewReader(in)
	}

	for i, raw := range records {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nInspection interrupted.")
			return nil
		default:
		}

		fmt.Fprintf(out, "RECORD %d/%d  %s\n", i+1, len(records), raw.MetadataFilename)
		fmt.Fprintln(out, strings.Repeat("-", 80))

		if raw.Error != "" {
			fmt.Fprintf(out, "Error record:   %s\n\n", raw.Error)
			continue
		}

		if showRaw {
			fmt.Fprintf(out, "Name:           %s\n", textnorm.NormalizePtr(raw.Name))
			fmt.Fprintf(out, "Description:    %s\n", preview(textnorm.NormalizePtr(raw.Description)))
			fmt.Fprintf(out, "Portal desc.:   %s\n", preview(raw.PortalString(models.PortalDescription)))
			fmt.Fprintf(out, "Image:          %s\n", raw.ImageFilename)
			fmt.Fprintln(out)
		}

		rec, outcome := enricher.Enrich(raw)
		fmt.Fprintf(out, "Final desc.:    %s\n", preview(rec.FinalDescription))
		fmt.Fprintf(out, "Length:         %d characters\n", textnorm.Len(rec.FinalDescription))
		fmt.Fprintf(out, "Source:         %s\n", rec.DescriptionSource)
		fmt.Fprintf(out, "Language:       %s\n", rec.DescriptionLanguage)
		fmt.Fprintf(out, "Date:           %s (%s)\n", rec.DateValue, outcome.DateStatus)
		if len(outcome.QualityFlags) > 0 {
			fmt.Fprintf(out, "Flags:          %s\n", strings.Join(outcome.QualityFlags, ", "))
		}
		fmt.Fprintln(out)

		if reader == nil {
			continue
		}

		fmt.Fprint(out, "Press Enter to continue to next record (or Ctrl+C to quit)...")
		inputCh := make(chan struct{})
		go func() {
			_, _ = reader.ReadString('\n')
			close(inputCh)
		}()

		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nInspection interrupted.")
			return nil
		case <-inputCh:
			fmt.Fprintln(out)
		}
	}

	return nil
}

func preview(s string) string {
	if textnorm.Len(s) <= previewChars {
		return s
	}
	return textnorm.Truncate(s, previewChars) + fmt.Sprintf(" [... %d characters]", textnorm.Len(s))
}
