package pipelinecmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mtl-archives/photometa/internal/description"
	"github.com/mtl-archives/photometa/internal/enrich"
	"github.com/mtl-archives/photometa/internal/manifest"
	"github.com/mtl-archives/photometa/internal/models"
)

type cleanOptions struct {
	Input             string
	Candidates        []string
	Output            string
	Summary           string
	Policy            description.AbbreviationPolicy
	LanguageDetection bool
	RequireReliable   bool
	Strict            bool
	Quiet             bool
}

// NewCleanCmd creates the clean command
func NewCleanCmd() *cobra.Command {
	var input, output, summary, policy string
	var strict, noDetect bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Normalize and enrich a raw photo manifest",
		Long: `Normalize text, resolve descriptions, classify language and extract
canonical dates for every record of a line-delimited JSON manifest.

Malformed lines are written through as error markers unless --strict is set,
in which case the run stops at the first one.`,
		Example: `  # Clean the default manifest under the data directory
  photometa clean

  # Clean a specific file and write a YAML summary
  photometa clean --input manifest_enriched.jsonl --output clean.jsonl --summary summary.yaml

  # Expand null-content abbreviations instead of synthesizing
  photometa clean --abbreviations expand`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			policyName := stringFlag(cmd, "abbreviations", policy, cfg.Clean.AbbreviationPolicy)
			parsed, err := description.ParsePolicy(policyName)
			if err != nil {
				return err
			}

			opts := cleanOptions{
				Input:             input,
				Candidates:        cfg.ResolveAll(cfg.Clean.InputCandidates),
				Output:            stringFlag(cmd, "output", output, cfg.Resolve(cfg.Clean.Output)),
				Summary:           stringFlag(cmd, "summary", summary, cfg.Resolve(cfg.Clean.Summary)),
				Policy:            parsed,
				LanguageDetection: cfg.Clean.LanguageDetection && !noDetect,
				RequireReliable:   cfg.Clean.RequireReliable,
				Strict:            boolFlag(cmd, "strict", strict, cfg.Clean.Strict),
			}
			_, err = executeClean(commandContext(cmd), opts)
			return err
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Input manifest (defaults to the first existing configured candidate)")
	cmd.Flags().StringVar(&output, "output", "", "Output path for the normalized manifest")
	cmd.Flags().StringVar(&summary, "summary", "", "Output path for run statistics (.json, .yaml or .yml)")
	cmd.Flags().StringVar(&policy, "abbreviations", "", "Null-content abbreviation policy (suppress or expand)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Abort on the first malformed line")
	cmd.Flags().BoolVar(&noDetect, "no-detect", false, "Use only the marker heuristic for language classification")

	return cmd
}

func executeClean(ctx context.Context, opts cleanOptions) (*enrich.Summary, error) {
	inputPath, err := resolveInput(opts.Input, opts.Candidates)
	if err != nil {
		return nil, err
	}
	if opts.Output == "" {
		return nil, errors.New("an output path is required")
	}

	slog.Info("Cleaning manifest", "input", inputPath, "output", opts.Output, "abbreviations", opts.Policy.String())

	enricher := enrich.NewEnricher(description.NewResolver(opts.Policy), newClassifier(opts.LanguageDetection, opts.RequireReliable))
	summary := enrich.NewSummary(inputPath, opts.Output)

	writer, err := manifest.NewWriter(opts.Output)
	if err != nil {
		return nil, err
	}

	var onMalformed manifest.MalformedFunc
	if !opts.Strict {
		onMalformed = func(le *manifest.LineError) error {
			summary.MalformedLines++
			slog.Warn("Skipping malformed line", "line", le.Line, "metadata_filename", le.Filename, "error", le.Err)
			return writer.Write(le.Marker())
		}
	}

	loader := manifest.NewLoader(inputPath)
	err = loader.EachRaw(func(line int, raw models.RawRecord) error {
		if err := interrupted(ctx); err != nil {
			return err
		}

		if raw.Error != "" {
			summary.ErrorRecords++
			return writer.Write(raw)
		}

		rec, outcome := enricher.Enrich(raw)
		summary.Add(outcome)
		if outcome.DateStatus == enrich.DateParseFailed {
			slog.Debug("Could not parse date", "line", line, "metadata_filename", raw.MetadataFilename, "date", outcome.RawDate)
		}
		return writer.Write(rec)
	}, onMalformed)

	closeErr := writer.Close()
	if err != nil {
		return summary, fmt.Errorf("failed to clean manifest: %w", err)
	}
	if closeErr != nil {
		return summary, closeErr
	}

	if opts.Summary != "" {
		if err := summary.Save(opts.Summary); err != nil {
			return summary, err
		}
		slog.Info("Summary saved", "path", opts.Summary)
	}

	if !opts.Quiet {
		summary.PrintSummary()
	}
	return summary, nil
}
