package pipelinecmd

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mtl-archives/photometa/internal/config"
	"github.com/mtl-archives/photometa/internal/lookup"
	"github.com/mtl-archives/photometa/internal/manifest"
	"github.com/mtl-archives/photometa/internal/models"
)

type augmentOptions struct {
	Input           string
	Output          string
	Summary         string
	PortalDatastore string
	BackupImageDir  string
	Datasets        []lookup.Dataset
	Quiet           bool
}

// NewAugmentCmd creates the augment command
func NewAugmentCmd() *cobra.Command {
	var input, output, summary, portal, images string
	var noAerial bool

	cmd := &cobra.Command{
		Use:   "augment",
		Short: "Join a raw manifest with portal, aerial-survey and image sources",
		Long: `Attach the matching portal datastore record (portal_record, portal_match),
the aerial-survey dataset records (aerial_matches) and the backup image
status (image_exists, image_size_bytes, resolved_image_filename) to every
record of a raw manifest. Records are joined on their normalized external_url.`,
		Example: `  # Augment using the configured datastores
  photometa augment

  # Resolve images against a mounted backup drive
  photometa augment --images "/Volumes/FREE SPACE/mtl_archives_photographs"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			opts := augmentOptionsFrom(cfg)
			opts.Input = stringFlag(cmd, "input", input, opts.Input)
			opts.Output = stringFlag(cmd, "output", output, opts.Output)
			opts.Summary = stringFlag(cmd, "summary", summary, opts.Summary)
			opts.PortalDatastore = stringFlag(cmd, "portal", portal, opts.PortalDatastore)
			opts.BackupImageDir = stringFlag(cmd, "images", images, opts.BackupImageDir)
			if noAerial {
				opts.Datasets = nil
			}
			_, err = executeAugment(commandContext(cmd), opts)
			return err
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Raw manifest to augment")
	cmd.Flags().StringVar(&output, "output", "", "Output path for the augmented manifest")
	cmd.Flags().StringVar(&summary, "summary", "", "Output path for join statistics")
	cmd.Flags().StringVar(&portal, "portal", "", "Portal datastore export (JSON)")
	cmd.Flags().StringVar(&images, "images", "", "Backup image directory (image resolution is skipped when empty)")
	cmd.Flags().BoolVar(&noAerial, "no-aerial", false, "Skip the aerial-survey datasets")

	return cmd
}

func augmentOptionsFrom(cfg *config.Config) augmentOptions {
	return augmentOptions{
		Input:           cfg.Resolve(cfg.Augment.Input),
		Output:          cfg.Resolve(cfg.Augment.Output),
		Summary:         cfg.Resolve(cfg.Augment.Summary),
		PortalDatastore: cfg.Resolve(cfg.Augment.PortalDatastore),
		BackupImageDir:  cfg.Augment.BackupImageDir,
		Datasets:        cfg.Datasets(),
	}
}

func executeAugment(ctx context.Context, opts augmentOptions) (*lookup.AugmentSummary, error) {
	inputPath, err := resolveInput(opts.Input, nil)
	if err != nil {
		return nil, err
	}

	augmenter := &lookup.Augmenter{}
	summary := lookup.NewAugmentSummary()

	if opts.PortalDatastore != "" {
		portal, err := lookup.LoadPortalIndex(opts.PortalDatastore)
		if err != nil {
			return nil, fmt.Errorf("failed to load portal datastore: %w", err)
		}
		augmenter.Portal = portal
	}

	if len(opts.Datasets) > 0 {
		aerial := lookup.NewAerialIndex()
		for _, ds := range opts.Datasets {
			if err := aerial.LoadDataset(ds); err != nil {
				return nil, fmt.Errorf("failed to load aerial dataset %s: %w", ds.Label, err)
			}
		}
		augmenter.Aerial = aerial
		summary.DatasetEntryCounts = aerial.EntryCounts()
	}

	if opts.BackupImageDir != "" {
		augmenter.Images = lookup.NewBackupImages(opts.BackupImageDir)
	}

	slog.Info("Augmenting manifest", "input", inputPath, "output", opts.Output,
		"portal", augmenter.Portal != nil, "aerial", augmenter.Aerial != nil, "images", augmenter.Images != nil)

	writer, err := manifest.NewWriter(opts.Output)
	if err != nil {
		return nil, err
	}

	loader := manifest.NewLoader(inputPath)
	err = loader.EachRaw(func(_ int, rec models.RawRecord) error {
		if err := interrupted(ctx); err != nil {
			return err
		}
		if err := augmenter.Augment(&rec, summary); err != nil {
			return err
		}
		return writer.Write(rec)
	}, func(le *manifest.LineError) error {
		summary.ManifestRecords++
		summary.ErrorRecords++
		slog.Warn("Skipping malformed line", "line", le.Line, "error", le.Err)
		return writer.Write(le.Marker())
	})

	if closeErr := writer.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return summary, fmt.Errorf("failed to augment manifest: %w", err)
	}

	if opts.Summary != "" {
		if err := summary.Save(opts.Summary); err != nil {
			return summary, err
		}
	}

	if !opts.Quiet {
		printAugmentSummary(summary)
	}
	return summary, nil
}

func printAugmentSummary(s *lookup.AugmentSummary) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Println("MANIFEST AUGMENTATION")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Records: %d (errors: %d)\n", s.ManifestRecords, s.ErrorRecords)
	fmt.Printf("Portal matched: %d, unmatched: %d\n", s.PortalMatched, s.PortalUnmatched)
	fmt.Printf("Aerial matched: %d, unmatched: %d\n", s.AerialMatched, s.AerialUnmatched)
	fmt.Printf("Images found: %d, missing: %d, zero-byte: %d\n", s.ImageFound, s.ImageMissing, s.ZeroByteImages)

	if len(s.DatasetMatchCounts) > 0 {
		fmt.Println("\nMatches per dataset:")
		labels := make([]string, 0, len(s.DatasetMatchCounts))
		for label := range s.DatasetMatchCounts {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			fmt.Printf("  %-30s %d\n", label, s.DatasetMatchCounts[label])
		}
	}
	fmt.Println(strings.Repeat("=", 70))
}
