package config

const (
	defaultConfigFile   = "dupfind.toml"
	defaultWorkers      = 1
	defaultBlockSizeKiB = 128
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"

	maxWorkers      = 64
	maxBlockSizeKiB = 64 << 10
)

// Export formats.
const (
	ExportCSV    = "csv"
	ExportSQLite = "sqlite"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Scan: Scan{
			Workers:      defaultWorkers,
			BlockSizeKiB: defaultBlockSizeKiB,
		},
		Export: Export{
			Format: ExportCSV,
		},
		Progress: Progress{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
