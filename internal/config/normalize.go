package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeExport()
	if err := c.normalizeDelete(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

// Normalize re-applies normalization after callers override fields, e.g.
// from command-line flags.
func (c *Config) Normalize() error {
	return c.normalize()
}

func (c *Config) normalizeExport() {
	c.Export.Format = strings.ToLower(strings.TrimSpace(c.Export.Format))
	if c.Export.Format == "" {
		c.Export.Format = ExportCSV
	}
}

func (c *Config) normalizeDelete() error {
	c.Delete.LockDir = strings.TrimSpace(c.Delete.LockDir)
	if c.Delete.LockDir == "" {
		c.Delete.LockDir = os.TempDir()
	}
	var err error
	if c.Delete.LockDir, err = expandPath(c.Delete.LockDir); err != nil {
		return fmt.Errorf("delete.lock_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
