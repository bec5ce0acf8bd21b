package testsupport

import (
	"path/filepath"
	"testing"

	"dupfind/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a default config whose lock directory lives in a
// per-test temp directory, then applies opts.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Delete.LockDir = filepath.Join(t.TempDir(), "locks")
	cfg.Progress.Enabled = false

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate config: %v", err)
	}
	return &cfg
}

// WithRecursive enables subdirectory traversal.
func WithRecursive() ConfigOption {
	return func(c *config.Config) {
		c.Scan.Recursive = true
	}
}

// WithWorkers sets the fingerprint worker count.
func WithWorkers(n int) ConfigOption {
	return func(c *config.Config) {
		c.Scan.Workers = n
	}
}
