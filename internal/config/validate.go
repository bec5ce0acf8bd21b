package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateScan() error {
	if c.Scan.Workers <= 0 {
		return errors.New("scan.workers must be positive")
	}
	if c.Scan.Workers > maxWorkers {
		return fmt.Errorf("scan.workers must be at most %d", maxWorkers)
	}
	if c.Scan.BlockSizeKiB <= 0 {
		return errors.New("scan.block_size_kib must be positive")
	}
	if c.Scan.BlockSizeKiB > maxBlockSizeKiB {
		return fmt.Errorf("scan.block_size_kib must be at most %d", maxBlockSizeKiB)
	}
	return nil
}

func (c *Config) validateExport() error {
	switch c.Export.Format {
	case ExportCSV, ExportSQLite:
		return nil
	default:
		return fmt.Errorf("export.format: unsupported value %q (use %q or %q)", c.Export.Format, ExportCSV, ExportSQLite)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
