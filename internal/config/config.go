package config

import (
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "SPECTRADL_CONFIG"
	daceAPIKeyEnv  = "DACE_API_KEY"
	daceRCPathEnv  = "DACE_RC_PATH"
	daceProfileEnv = "DACE_PROFILE"
	databaseDSNEnv = "DATABASE_DSN"
	logLevelEnv    = "SPECTRADL_LOG_LEVEL"
	outputDirEnv   = "SPECTRADL_OUTPUT_DIR"
)

// Config holds high-level settings required across the application.
type Config struct {
	Archive       ArchiveConfig     `yaml:"archive"`
	Catalog       CatalogConfig     `yaml:"catalog"`
	Database      DatabaseConfig    `yaml:"database"`
	Download      DownloadConfig    `yaml:"download"`
	PipelineHints map[string]string `yaml:"pipelineHints"`
	Logging       LoggingConfig     `yaml:"logging"`
}

// ArchiveConfig describes how to reach the DACE archive.
type ArchiveConfig struct {
	BaseURL string `yaml:"baseUrl"`
	APIKey  string `yaml:"apiKey"`
	RCPath  string `yaml:"rcPath"`
	Profile string `yaml:"profile"`
}

// CatalogConfig describes the SIMBAD endpoints.
type CatalogConfig struct {
	TAPURL   string `yaml:"tapUrl"`
	SimIDURL string `yaml:"simIdUrl"`
}

// DatabaseConfig describes the optional Postgres download ledger.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// DownloadConfig carries defaults for bulk downloads.
type DownloadConfig struct {
	OutputDir string `yaml:"outputDir"`
	FileType  string `yaml:"fileType"`
}

// LoggingConfig selects console verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile reads the given YAML file on top of defaults, then applies
// environment overrides. An empty path skips the file step.
func LoadFile(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(daceAPIKeyEnv); v != "" {
		c.Archive.APIKey = v
	}

	if v := os.Getenv(daceRCPathEnv); v != "" {
		c.Archive.RCPath = v
	}

	if v := os.Getenv(daceProfileEnv); v != "" {
		c.Archive.Profile = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(outputDirEnv); v != "" {
		c.Download.OutputDir = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Archive.BaseURL != "" {
		base.Archive.BaseURL = override.Archive.BaseURL
	}
	if override.Archive.APIKey != "" {
		base.Archive.APIKey = override.Archive.APIKey
	}
	if override.Archive.RCPath != "" {
		base.Archive.RCPath = override.Archive.RCPath
	}
	if override.Archive.Profile != "" {
		base.Archive.Profile = override.Archive.Profile
	}

	if override.Catalog.TAPURL != "" {
		base.Catalog.TAPURL = override.Catalog.TAPURL
	}
	if override.Catalog.SimIDURL != "" {
		base.Catalog.SimIDURL = override.Catalog.SimIDURL
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Download.OutputDir != "" {
		base.Download.OutputDir = override.Download.OutputDir
	}
	if override.Download.FileType != "" {
		base.Download.FileType = override.Download.FileType
	}

	if len(override.PipelineHints) > 0 {
		base.PipelineHints = override.PipelineHints
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	rcPath := ".dacerc.yaml"
	if home, err := os.UserHomeDir(); err == nil {
		rcPath = filepath.Join(home, ".dacerc.yaml")
	}

	return Config{
		Archive: ArchiveConfig{
			BaseURL: "https://dace-api.unige.ch",
			RCPath:  rcPath,
		},
		Catalog: CatalogConfig{
			TAPURL:   "https://simbad.cds.unistra.fr/simbad/sim-tap/sync",
			SimIDURL: "https://simbad.cds.unistra.fr/simbad/sim-id",
		},
		Download: DownloadConfig{
			OutputDir: "spectra",
			FileType:  "all",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
