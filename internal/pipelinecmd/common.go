// Package pipelinecmd holds the photometa subcommands.
package pipelinecmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mtl-archives/photometa/internal/config"
	"github.com/mtl-archives/photometa/internal/language"
	"github.com/mtl-archives/photometa/internal/manifest"
)

// SetupLogging installs the default text logger; verbose enables debug output.
func SetupLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

// loadConfig reads the configuration named by the persistent --config flag
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Debug("Loaded configuration", "config", cfg.String())
	return cfg, nil
}

// newClassifier wires the trigram detector when detection is on; requireReliable
// sends low-confidence detections to the marker heuristic.
func newClassifier(detection, requireReliable bool) *language.Classifier {
	if !detection {
		return language.NewClassifier(nil)
	}
	detector := language.NewWhatlangDetector()
	detector.RequireReliable = requireReliable
	return language.NewClassifier(detector)
}

// resolveInput returns explicit when it exists, otherwise the first existing candidate
func resolveInput(explicit string, candidates []string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("%w: input file not found: %s", manifest.ErrNoInput, explicit)
		}
		return explicit, nil
	}
	return manifest.Discover(candidates)
}

func interrupted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// stringFlag returns the flag value when set on the command line, else fallback
func stringFlag(cmd *cobra.Command, name, value, fallback string) string {
	if cmd.Flags().Changed(name) {
		return value
	}
	return fallback
}

func boolFlag(cmd *cobra.Command, name string, value, fallback bool) bool {
	if cmd.Flags().Changed(name) {
		return value
	}
	return fallback
}
