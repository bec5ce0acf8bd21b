package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"dupfind/internal/action"
	"dupfind/internal/config"
	"dupfind/internal/logging"
	"dupfind/internal/metrics"
	"dupfind/internal/preflight"
	"dupfind/internal/progress"
	"dupfind/internal/runlock"
	"dupfind/internal/scan"
)

type scanFlags struct {
	recursive    bool
	output       bool
	delete       bool
	workers      int
	exportFormat string
	json         bool
	noProgress   bool
	logLevel     string
	logFormat    string
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var flags scanFlags

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:   "dupfind [flags] <path>",
		Short: "Find duplicate files by size and content",
		Long: "dupfind lists files under a directory that share identical content.\n" +
			"Files are first grouped by size; only same-size files are fingerprinted.\n" +
			"Use --output to export the groups and --delete to keep only the first copy of each.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, ctx, flags, args[0])
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	f := rootCmd.Flags()
	f.BoolVarP(&flags.recursive, "recursive", "r", false, "Descend into subdirectories")
	f.BoolVarP(&flags.output, "output", "o", false, "Export duplicate groups to duplicatefiles.csv (or .db) in the working directory")
	f.BoolVarP(&flags.delete, "delete", "d", false, "Delete every duplicate except the first copy found")
	f.IntVar(&flags.workers, "workers", 0, "Files fingerprinted concurrently")
	f.StringVar(&flags.exportFormat, "export-format", "", "Export format: csv or sqlite")
	f.BoolVar(&flags.json, "json", false, "Write the report as JSON")
	f.BoolVar(&flags.noProgress, "no-progress", false, "Disable the progress bar")
	f.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&flags.logFormat, "log-format", "", "Log format: console or json")

	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

// resolveConfig layers explicitly set flags over the loaded configuration.
func resolveConfig(cmd *cobra.Command, ctx *commandContext, flags scanFlags) (*config.Config, error) {
	loaded, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	cfg := *loaded

	changed := cmd.Flags().Changed
	if changed("recursive") {
		cfg.Scan.Recursive = flags.recursive
	}
	if changed("workers") {
		cfg.Scan.Workers = flags.workers
	}
	if changed("export-format") {
		cfg.Export.Format = flags.exportFormat
	}
	if flags.noProgress {
		cfg.Progress.Enabled = false
	}
	if changed("log-level") {
		cfg.Logging.Level = flags.logLevel
	}
	if changed("log-format") {
		cfg.Logging.Format = flags.logFormat
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func runScan(cmd *cobra.Command, ctx *commandContext, flags scanFlags, rootArg string) error {
	cfg, err := resolveConfig(cmd, ctx, flags)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	logger, err := logging.NewFromConfig(cfg, stderr)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if path := ctx.configFlagValue(); path != "" && !ctx.configExists {
		logging.WarnWithContext(logger, "config file not found; using defaults", "config_missing",
			logging.String(logging.FieldPath, ctx.configPath),
			logging.String(logging.FieldErrorHint, "run `dupfind config init --path "+path+"` to create one"),
			logging.String(logging.FieldImpact, "built-in defaults apply"),
		)
	}

	root, err := preflight.CheckRoot(rootArg)
	if err != nil {
		return err
	}

	req := preflight.Request{Root: root, Delete: flags.delete}
	if flags.output {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		req.ExportDir = wd
	}
	for _, check := range preflight.RunAll(req) {
		if check.Passed {
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", check.Name),
			logging.String("detail", check.Detail),
			logging.String(logging.FieldErrorHint, "re-run with elevated permissions"),
			logging.String(logging.FieldImpact, "some paths may be skipped or left in place"),
		)
	}

	if flags.delete {
		lock, err := runlock.Acquire(cfg.Delete.LockDir, root)
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Warn("failed to release run lock", logging.Error(err))
			}
		}()
	}

	stats := &metrics.Stats{}
	stats.Start()
	scanID := scan.NewID()
	runCtx := logging.WithScanID(cmd.Context(), scanID)

	var progressFn scan.ProgressFunc
	if cfg.Progress.Enabled && !flags.json && progress.IsTerminal(stderr) {
		progressFn = func(totalBytes, totalFiles int64) (func(int64), func()) {
			bar := progress.New(stderr, totalBytes, totalFiles, stats.Snapshot)
			return bar.AddBytes, bar.Close
		}
	}

	result, err := scan.Find(runCtx, scan.Options{
		Root:      root,
		Recursive: cfg.Scan.Recursive,
		Workers:   cfg.Scan.Workers,
		BlockSize: cfg.BlockSize(),
		ScanID:    scanID,
		Logger:    logger,
		Stats:     stats,
		Progress:  progressFn,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	dispatcher := action.New(action.Options{
		Out:          out,
		JSON:         flags.json,
		ScanID:       scanID,
		Export:       flags.output,
		ExportFormat: cfg.Export.Format,
		ExportPath:   cfg.ExportFileName(),
		Delete:       flags.delete,
		Logger:       logger,
		Stats:        stats,
	})
	outcome, err := dispatcher.Run(logging.WithPhase(runCtx, "action"), result.Groups)
	if err != nil {
		return err
	}
	stats.Stop()
	logging.WithContext(runCtx, logger).Info("run complete",
		logging.Int("deleted", len(outcome.Deleted)),
		logging.Int("deletion_errors", len(outcome.Failures)),
		logging.Int64("bytes_hashed", stats.BytesHashed),
		logging.Duration("elapsed", stats.Duration()),
	)

	if flags.json {
		return nil
	}
	if outcome.ExportPath != "" {
		abs, err := filepath.Abs(outcome.ExportPath)
		if err != nil {
			abs = outcome.ExportPath
		}
		fmt.Fprintf(out, "\nExported duplicates to %s\n", abs)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderSummary(stats.Snapshot(), flags.delete))
	return nil
}

func renderSummary(snap metrics.Snapshot, deleted bool) string {
	rows := snap.Rows(deleted)
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{r.Label, r.Value})
	}
	return renderTable([]string{"Summary", ""}, tableRows, []columnAlignment{alignLeft, alignRight})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
