// Package config provides configuration management for the photometa pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mtl-archives/photometa/internal/description"
	"github.com/mtl-archives/photometa/internal/lookup"
)

// Environment variables
const (
	EnvConfig  = "PHOTOMETA_CONFIG"
	EnvDataDir = "PHOTOMETA_DATA_DIR"
)

// DefaultConfigFile is read when present and no other config is given
const DefaultConfigFile = "photometa.yaml"

// Configuration validation errors.
var (
	ErrEmptyDataDir            = errors.New("data_dir is required")
	ErrNoCleanInputs           = errors.New("clean.input_candidates must not be empty")
	ErrNoAuditInputs           = errors.New("audit.input_candidates must not be empty")
	ErrMissingOutputPath       = errors.New("clean.output is required")
	ErrMissingReportDir        = errors.New("audit.report_dir is required")
	ErrInvalidPolicy           = errors.New("clean.abbreviation_policy must be 'suppress' or 'expand'")
	ErrDatasetMissingLabel     = errors.New("aerial dataset label is required")
	ErrDatasetMissingPath      = errors.New("aerial dataset path is required")
	ErrDatasetMissingURLFields = errors.New("aerial dataset needs at least one url field")
)

// Config represents the complete pipeline configuration.
// Relative paths are resolved against DataDir.
type Config struct {
	DataDir string        `yaml:"data_dir"`
	Clean   CleanConfig   `yaml:"clean"`
	Audit   AuditConfig   `yaml:"audit"`
	Augment AugmentConfig `yaml:"augment"`
}

// CleanConfig configures the enrichment pass.
type CleanConfig struct {
	InputCandidates    []string `yaml:"input_candidates"`
	Output             string   `yaml:"output"`
	Summary            string   `yaml:"summary"`
	AbbreviationPolicy string   `yaml:"abbreviation_policy"`
	LanguageDetection  bool     `yaml:"language_detection"`
	RequireReliable    bool     `yaml:"require_reliable"`
	Strict             bool     `yaml:"strict"`
}

// AuditConfig configures the quality audit.
type AuditConfig struct {
	InputCandidates []string `yaml:"input_candidates"`
	ReportDir       string   `yaml:"report_dir"`
	IssueOutput     string   `yaml:"issue_output"`
	XLSX            bool     `yaml:"xlsx"`
}

// AugmentConfig configures the join with portal, aerial and image sources.
type AugmentConfig struct {
	Input           string           `yaml:"input"`
	Output          string           `yaml:"output"`
	Summary         string           `yaml:"summary"`
	PortalDatastore string           `yaml:"portal_datastore"`
	BackupImageDir  string           `yaml:"backup_image_dir"`
	AerialDatasets  []lookup.Dataset `yaml:"aerial_datasets"`
}

// Default returns the built-in configuration.
func Default() *Config {
	datasets := make([]lookup.Dataset, len(lookup.DefaultAerialDatasets))
	copy(datasets, lookup.DefaultAerialDatasets)

	return &Config{
		DataDir: filepath.Join("data", "mtl_archives"),
		Clean: CleanConfig{
			InputCandidates:    []string{"manifest_enriched.jsonl", "manifest.jsonl"},
			Output:             "manifest_clean.jsonl",
			Summary:            "manifest_clean_summary.json",
			AbbreviationPolicy: "suppress",
			LanguageDetection:  true,
		},
		Audit: AuditConfig{
			InputCandidates: []string{"manifest_clean.jsonl", "manifest_enriched.jsonl"},
			ReportDir:       "reports",
		},
		Augment: AugmentConfig{
			Input:           "manifest.jsonl",
			Output:          "manifest_enriched.jsonl",
			Summary:         "manifest_enriched_summary.json",
			PortalDatastore: "phototheque_datastore.json",
			AerialDatasets:  datasets,
		},
	}
}

// Load reads configuration. An empty path falls back to $PHOTOMETA_CONFIG, then to
// photometa.yaml in the working directory, then to the defaults.
// $PHOTOMETA_DATA_DIR overrides data_dir.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}

	cfg := Default()
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if dir := os.Getenv(EnvDataDir); dir != "" {
		cfg.DataDir = dir
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfig loads configuration from a YAML file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return ErrEmptyDataDir
	}
	if len(c.Clean.InputCandidates) == 0 {
		return ErrNoCleanInputs
	}
	if c.Clean.Output == "" {
		return ErrMissingOutputPath
	}
	if _, err := description.ParsePolicy(c.Clean.AbbreviationPolicy); err != nil {
		return ErrInvalidPolicy
	}
	if len(c.Audit.InputCandidates) == 0 {
		return ErrNoAuditInputs
	}
	if c.Audit.ReportDir == "" {
		return ErrMissingReportDir
	}

	for i, ds := range c.Augment.AerialDatasets {
		if ds.Label == "" {
			return fmt.Errorf("%w: aerial_datasets[%d]", ErrDatasetMissingLabel, i)
		}
		if ds.Path == "" {
			return fmt.Errorf("%w: aerial_datasets[%d]", ErrDatasetMissingPath, i)
		}
		if len(ds.URLFields) == 0 {
			return fmt.Errorf("%w: aerial_datasets[%d]", ErrDatasetMissingURLFields, i)
		}
	}
	return nil
}

// Policy returns the parsed abbreviation policy.
func (c *Config) Policy() description.AbbreviationPolicy {
	policy, _ := description.ParsePolicy(c.Clean.AbbreviationPolicy)
	return policy
}

// Resolve joins a relative path with DataDir. Empty and absolute paths are returned unchanged.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.DataDir, path)
}

// ResolveAll applies Resolve to every path.
func (c *Config) ResolveAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, c.Resolve(p))
	}
	return out
}

// Datasets returns the aerial datasets with resolved paths.
func (c *Config) Datasets() []lookup.Dataset {
	out := make([]lookup.Dataset, 0, len(c.Augment.AerialDatasets))
	for _, ds := range c.Augment.AerialDatasets {
		ds.Path = c.Resolve(ds.Path)
		out = append(out, ds)
	}
	return out
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{DataDir: %s, Policy: %s, AerialDatasets: %d}",
		c.DataDir,
		c.Policy(),
		len(c.Augment.AerialDatasets),
	)
}
