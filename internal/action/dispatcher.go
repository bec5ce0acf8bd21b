// Package action applies the user's chosen actions to a finished scan.
//
// A Dispatcher always writes a report, then optionally exports the groups
// and finally deletes redundant copies. Export always completes before any
// file is removed, so an export lists every copy that existed at scan time.
package action

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"dupfind/internal/config"
	"dupfind/internal/grouper"
	"dupfind/internal/logging"
	"dupfind/internal/metrics"
)

// ErrAlreadyRun is returned by a second call to Run.
var ErrAlreadyRun = errors.New("dispatcher already ran")

type Options struct {
	// Out receives the report.
	Out io.Writer
	// JSON switches the report to a machine-readable document.
	JSON   bool
	ScanID string

	Export       bool
	ExportFormat string
	ExportPath   string

	Delete bool

	Logger *slog.Logger
	Stats  *metrics.Stats
}

// Outcome summarizes what Run did.
type Outcome struct {
	ExportPath    string
	Deleted       []string
	Failures      []*DeletionError
	SkippedGroups int
}

type Dispatcher struct {
	opts   Options
	logger *slog.Logger
	stats  *metrics.Stats
	ran    atomic.Bool
}

func New(opts Options) *Dispatcher {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.ExportFormat == "" {
		opts.ExportFormat = config.ExportCSV
	}
	return &Dispatcher{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "action"),
		stats:  metrics.OrNew(opts.Stats),
	}
}

// Run reports, exports and deletes, in that order. It may be called once.
func (d *Dispatcher) Run(ctx context.Context, groups []grouper.DuplicateGroup) (*Outcome, error) {
	if !d.ran.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRun
	}
	logger := logging.WithContext(ctx, d.logger)
	outcome := &Outcome{}

	if d.opts.JSON {
		if err := writeJSONReport(d.opts.Out, d.opts.ScanID, groups); err != nil {
			return nil, fmt.Errorf("write report: %w", err)
		}
	} else if err := writeTextReport(d.opts.Out, groups); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}

	if d.opts.Export {
		path, err := d.export(ctx, groups)
		if err != nil {
			return nil, err
		}
		outcome.ExportPath = path
		logger.Info("duplicates exported",
			logging.String(logging.FieldPath, path),
			logging.String("format", d.opts.ExportFormat),
			logging.Int("groups", len(groups)),
		)
	}

	if d.opts.Delete {
		if err := d.deleteRedundant(ctx, logger, groups, outcome); err != nil {
			return outcome, err
		}
	}
	return outcome, nil
}

func (d *Dispatcher) export(ctx context.Context, groups []grouper.DuplicateGroup) (string, error) {
	path := d.opts.ExportPath
	switch d.opts.ExportFormat {
	case config.ExportCSV:
		if path == "" {
			path = CSVFileName
		}
		if err := ExportCSV(path, groups); err != nil {
			return "", fmt.Errorf("export csv: %w", err)
		}
	case config.ExportSQLite:
		if path == "" {
			path = SQLiteFileName
		}
		if err := ExportSQLite(ctx, path, groups); err != nil {
			return "", fmt.Errorf("export sqlite: %w", err)
		}
	default:
		return "", fmt.Errorf("unsupported export format %q", d.opts.ExportFormat)
	}
	return path, nil
}
