package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := LoadFile("")

	if cfg.Archive.BaseURL == "" {
		t.Fatal("expected a default archive base URL")
	}
	if cfg.Download.FileType != "all" {
		t.Fatalf("expected default file type all, got %q", cfg.Download.FileType)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.Logging.Level)
	}
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
archive:
  baseUrl: https://example.org/dace
download:
  outputDir: /data/spectra
pipelineHints:
  ESPRESSO19: "2.2.8"
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := LoadFile(path)

	if cfg.Archive.BaseURL != "https://example.org/dace" {
		t.Fatalf("file value not applied: %q", cfg.Archive.BaseURL)
	}
	if cfg.Download.OutputDir != "/data/spectra" {
		t.Fatalf("file value not applied: %q", cfg.Download.OutputDir)
	}
	// Untouched keys keep their defaults.
	if cfg.Download.FileType != "all" {
		t.Fatalf("default lost: %q", cfg.Download.FileType)
	}
	if cfg.PipelineHints["ESPRESSO19"] != "2.2.8" {
		t.Fatalf("pipeline hints not applied: %v", cfg.PipelineHints)
	}
}

func TestEnvOverridesWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
archive:
  apiKey: from-file
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("DACE_API_KEY", "from-env")
	t.Setenv("DATABASE_DSN", "postgres://u:p@localhost/ledger")
	t.Setenv("SPECTRADL_LOG_LEVEL", "debug")

	cfg := LoadFile(path)

	if cfg.Archive.APIKey != "from-env" {
		t.Fatalf("env override lost: %q", cfg.Archive.APIKey)
	}
	if cfg.Database.DSN != "postgres://u:p@localhost/ledger" {
		t.Fatalf("env override lost: %q", cfg.Database.DSN)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("env override lost: %q", cfg.Logging.Level)
	}
}
