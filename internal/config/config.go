package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Scan contains traversal and fingerprinting settings.
type Scan struct {
	Recursive    bool `toml:"recursive"`
	Workers      int  `toml:"workers"`
	BlockSizeKiB int  `toml:"block_size_kib"`
}

// Export contains configuration for the tabular export.
type Export struct {
	// Format is "csv" or "sqlite".
	Format string `toml:"format"`
}

// Delete contains configuration for destructive cleanup runs.
type Delete struct {
	// LockDir holds the advisory lock files taken by delete-enabled runs.
	// Defaults to the system temp directory.
	LockDir string `toml:"lock_dir"`
}

// Progress contains configuration for the terminal progress bar.
type Progress struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for dupfind.
type Config struct {
	Scan     Scan     `toml:"scan"`
	Export   Export   `toml:"export"`
	Delete   Delete   `toml:"delete"`
	Progress Progress `toml:"progress"`
	Logging  Logging  `toml:"logging"`
}

// Load parses and validates the configuration file at path. An empty path
// yields the defaults; a path that does not exist also yields the defaults and
// reports exists=false.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) == "" {
		return "", false, nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %q is a directory", expanded)
	}
	return expanded, true, nil
}

// DefaultConfigPath returns where `config init` writes when no path is given.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigFile)
}

// BlockSize returns the fingerprint read block size in bytes.
func (c *Config) BlockSize() int {
	return c.Scan.BlockSizeKiB << 10
}

// ExportFileName returns the fixed export file name for the configured format.
func (c *Config) ExportFileName() string {
	if c.Export.Format == ExportSQLite {
		return "duplicatefiles.db"
	}
	return "duplicatefiles.csv"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
