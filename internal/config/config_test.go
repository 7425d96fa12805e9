package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mtl-archives/photometa/internal/description"
)

// Helper to create a temp config file.
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "photometa.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}

	return configPath
}

const validConfigYAML = `
data_dir: /srv/archives
clean:
  output: out/clean.jsonl
  abbreviation_policy: expand
  require_reliable: true
  strict: true
audit:
  report_dir: /tmp/reports
augment:
  backup_image_dir: /mnt/backup
  aerial_datasets:
    - label: aerial_1958
      path: vues_aeriennes_1958.json
      url_fields: ["Fichier TIFF - 300 dpi (CLIQUEZ SUR LE LIEN)"]
`

func TestLoadConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.DataDir != "/srv/archives" {
		t.Errorf("Expected data_dir /srv/archives, got %s", cfg.DataDir)
	}
	if cfg.Policy() != description.Expand {
		t.Errorf("Expected expand policy, got %s", cfg.Policy())
	}
	if !cfg.Clean.Strict {
		t.Error("Expected strict to be true")
	}
	if !cfg.Clean.LanguageDetection {
		t.Error("Expected language_detection default to survive partial config")
	}
	if !cfg.Clean.RequireReliable {
		t.Error("Expected require_reliable to be true")
	}
	if got := cfg.Resolve(cfg.Clean.Output); got != filepath.Join("/srv/archives", "out", "clean.jsonl") {
		t.Errorf("Expected output resolved against data_dir, got %s", got)
	}
	if got := cfg.Resolve(cfg.Audit.ReportDir); got != "/tmp/reports" {
		t.Errorf("Expected absolute report dir unchanged, got %s", got)
	}

	datasets := cfg.Datasets()
	if len(datasets) != 1 {
		t.Fatalf("Expected 1 dataset, got %d", len(datasets))
	}
	if datasets[0].Path != filepath.Join("/srv/archives", "vues_aeriennes_1958.json") {
		t.Errorf("Unexpected dataset path %s", datasets[0].Path)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected defaults to validate, got %v", err)
	}
	if cfg.Policy() != description.Suppress {
		t.Errorf("Expected suppress policy by default, got %s", cfg.Policy())
	}
	if cfg.Clean.RequireReliable {
		t.Error("Expected require_reliable to default to false")
	}
	if len(cfg.Augment.AerialDatasets) != 11 {
		t.Errorf("Expected 11 default aerial datasets, got %d", len(cfg.Augment.AerialDatasets))
	}
	if cfg.Audit.InputCandidates[0] != "manifest_clean.jsonl" {
		t.Errorf("Expected clean manifest as first audit candidate, got %s", cfg.Audit.InputCandidates[0])
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	path := createTempConfigFile(t, "data_dir: from-file\n")
	t.Setenv(EnvConfig, path)
	t.Setenv(EnvDataDir, "/from/env")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.DataDir != "/from/env" {
		t.Errorf("Expected data dir from environment, got %s", cfg.DataDir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"empty data dir", func(c *Config) { c.DataDir = "" }, ErrEmptyDataDir},
		{"no clean inputs", func(c *Config) { c.Clean.InputCandidates = nil }, ErrNoCleanInputs},
		{"no output", func(c *Config) { c.Clean.Output = "" }, ErrMissingOutputPath},
		{"bad policy", func(c *Config) { c.Clean.AbbreviationPolicy = "translate" }, ErrInvalidPolicy},
		{"no audit inputs", func(c *Config) { c.Audit.InputCandidates = []string{} }, ErrNoAuditInputs},
		{"no report dir", func(c *Config) { c.Audit.ReportDir = "" }, ErrMissingReportDir},
		{"dataset label", func(c *Config) { c.Augment.AerialDatasets[0].Label = "" }, ErrDatasetMissingLabel},
		{"dataset path", func(c *Config) { c.Augment.AerialDatasets[1].Path = "" }, ErrDatasetMissingPath},
		{"dataset fields", func(c *Config) { c.Augment.AerialDatasets[2].URLFields = nil }, ErrDatasetMissingURLFields},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := createTempConfigFile(t, "clean: [unclosed")
	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}
