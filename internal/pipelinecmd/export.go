package pipelinecmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mtl-archives/photometa/internal/manifest"
	"github.com/mtl-archives/photometa/internal/models"
)

// Export file names
const (
	exportParquetFile = "manifest_export.parquet"
	exportNDJSONFile  = "manifest_export.ndjson"
	exportSummaryFile = "export_summary.json"
)

type exportSummary struct {
	Rows          int      `json:"rows"`
	SkippedErrors int      `json:"skipped_error_records"`
	Columns       []string `json:"columns"`
	ParquetPath   string   `json:"parquet_path"`
	NDJSONPath    string   `json:"ndjson_path"`
}

var exportColumns = []string{
	"metadata_filename", "image_filename", "resolved_image_filename", "image_size_bytes",
	"name", "description", "date_value", "credits", "cote", "external_url", "portal_match",
	"portal_title", "portal_description", "portal_date", "portal_cote", "aerial_datasets",
}

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	var input, outputDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a manifest as flat Parquet and NDJSON rows",
		Long: `Flatten every record of a manifest into one row per photograph and write
it as Parquet and line-delimited JSON. The Parquet file can be fed back to
"photometa audit".`,
		Example: `  photometa export --input manifest_clean.jsonl --output-dir export`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = cfg.Resolve("export")
			}
			candidates := cfg.ResolveAll(cfg.Audit.InputCandidates)
			_, err = executeExport(commandContext(cmd), input, candidates, outputDir)
			return err
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Manifest to export (defaults to the first existing audit candidate)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for the export files")

	return cmd
}

func executeExport(ctx context.Context, input string, candidates []string, outputDir string) (*exportSummary, error) {
	inputPath, err := resolveInput(input, candidates)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	summary := &exportSummary{
		Columns:     exportColumns,
		ParquetPath: filepath.Join(outputDir, exportParquetFile),
		NDJSONPath:  filepath.Join(outputDir, exportNDJSONFile),
	}

	ndjson, err := manifest.NewWriter(summary.NDJSONPath)
	if err != nil {
		return nil, err
	}

	var rows []models.ExportRow
	loader := manifest.NewLoader(inputPath)
	err = loader.EachRaw(func(_ int, rec models.RawRecord) error {
		if err := interrupted(ctx); err != nil {
			return err
		}
		if rec.Error != "" {
			summary.SkippedErrors++
			return nil
		}
		row := rec.ExportRow()
		rows = append(rows, row)
		return ndjson.Write(row)
	}, func(le *manifest.LineError) error {
		summary.SkippedErrors++
		slog.Warn("Skipping malformed line", "line", le.Line, "error", le.Err)
		return nil
	})
	if closeErr := ndjson.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to export manifest: %w", err)
	}

	if err := manifest.WriteParquet(summary.ParquetPath, rows); err != nil {
		return nil, err
	}
	summary.Rows = len(rows)

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, exportSummaryFile), data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write export summary: %w", err)
	}

	slog.Info("Export complete", "rows", summary.Rows, "parquet", summary.ParquetPath, "ndjson", summary.NDJSONPath)
	return summary, nil
}
