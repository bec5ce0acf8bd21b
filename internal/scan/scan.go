// Package scan runs the duplicate search end to end: walk the tree, bucket
// files by size, drop sizes seen only once, then fingerprint what remains.
//
// Stages run strictly in order and never read back from a later stage.
// Every log line of a scan carries its scan_id.
package scan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"dupfind/internal/fingerprint"
	"dupfind/internal/grouper"
	"dupfind/internal/logging"
	"dupfind/internal/metrics"
	"dupfind/internal/sizeindex"
	"dupfind/internal/walker"
)

// ProgressFunc is called once the candidates are known. It returns a sink
// for hashed byte counts, safe for concurrent use, and a function that
// finishes the display. Either may be nil.
type ProgressFunc func(totalBytes, totalFiles int64) (onBytes func(n int64), done func())

type Options struct {
	Root      string
	Recursive bool
	Workers   int
	BlockSize int
	// ScanID correlates log lines; a random UUID is used when empty.
	ScanID   string
	Logger   *slog.Logger
	Stats    *metrics.Stats
	Progress ProgressFunc
}

type Result struct {
	ScanID     string
	Walk       *walker.Result
	Candidates []sizeindex.Group
	Groups     []grouper.DuplicateGroup
	Failures   []*fingerprint.Error
}

// NewID returns a fresh scan correlation ID.
func NewID() string {
	return uuid.NewString()
}

// Find locates duplicate files under opts.Root. Per-path failures are
// recorded in the result and never abort the scan; only cancellation does.
func Find(ctx context.Context, opts Options) (*Result, error) {
	scanID := opts.ScanID
	if scanID == "" {
		scanID = NewID()
	}
	ctx = logging.WithScanID(ctx, scanID)
	stats := metrics.OrNew(opts.Stats)
	logger := logging.NewComponentLogger(opts.Logger, "scan")
	res := &Result{ScanID: scanID}

	logging.WithContext(ctx, logger).Info("scan started",
		logging.String("root", opts.Root),
		logging.Bool("recursive", opts.Recursive),
		logging.Int("workers", opts.Workers),
	)

	walkCtx := logging.WithPhase(ctx, "walk")
	walked, err := walker.Walk(walkCtx, opts.Root, walker.Options{
		Recursive: opts.Recursive,
		Logger:    opts.Logger,
		Stats:     stats,
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", opts.Root, err)
	}
	res.Walk = walked

	idx := sizeindex.Build(walked.Files)
	res.Candidates = idx.Candidates()
	logging.WithContext(logging.WithPhase(ctx, "index"), logger).Debug("size index built",
		logging.Int("files", idx.Len()),
		logging.Int("sizes", len(idx.Groups())),
		logging.Int("candidate_groups", len(res.Candidates)),
	)

	var onBytes func(int64)
	if opts.Progress != nil && len(res.Candidates) > 0 {
		var totalBytes, totalFiles int64
		for _, c := range res.Candidates {
			totalBytes += c.Bytes()
			totalFiles += int64(len(c.Paths))
		}
		var done func()
		onBytes, done = opts.Progress(totalBytes, totalFiles)
		if done != nil {
			defer done()
		}
	}

	grouped, err := grouper.Group(logging.WithPhase(ctx, "fingerprint"), res.Candidates, grouper.Options{
		Workers:    opts.Workers,
		BlockSize:  opts.BlockSize,
		Logger:     opts.Logger,
		Stats:      stats,
		OnProgress: onBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("fingerprint candidates: %w", err)
	}
	res.Groups = grouped.Groups
	res.Failures = grouped.Failures

	logging.WithContext(ctx, logger).Info("scan complete",
		logging.Int("files", len(walked.Files)),
		logging.Int("duplicate_groups", len(res.Groups)),
		logging.Int("traversal_errors", len(walked.Errors)),
		logging.Int("fingerprint_errors", len(res.Failures)),
	)
	return res, nil
}
