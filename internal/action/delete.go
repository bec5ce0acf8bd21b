package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"dupfind/internal/fileutil"
	"dupfind/internal/grouper"
	"dupfind/internal/logging"
)

// ErrSizeChanged marks a duplicate whose size no longer matches its group.
var ErrSizeChanged = errors.New("file size changed since the scan")

// DeletionError records a redundant copy that could not be removed.
type DeletionError struct {
	Path string
	Err  error
}

func (e *DeletionError) Error() string {
	return fmt.Sprintf("delete %s: %v", e.Path, e.Err)
}

func (e *DeletionError) Unwrap() error { return e.Err }

// deleteRedundant removes every path but the first in each group. A group
// whose canonical copy is gone is left untouched.
func (d *Dispatcher) deleteRedundant(ctx context.Context, logger *slog.Logger, groups []grouper.DuplicateGroup, outcome *Outcome) error {
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}

		canonical := g.Canonical()
		ok, err := fileutil.IsRegularFile(canonical)
		if err != nil || !ok {
			outcome.SkippedGroups++
			attrs := []logging.Attr{
				logging.String(logging.FieldPath, canonical),
				logging.String(logging.FieldErrorHint, "file changed during the scan; re-run to refresh results"),
				logging.String(logging.FieldImpact, "no copy in this group was deleted"),
			}
			if err != nil {
				attrs = append(attrs, logging.Error(err))
			}
			logging.WarnWithContext(logger, "canonical copy missing; skipping group", "canonical_missing", attrs...)
			continue
		}

		for _, path := range g.Redundant() {
			if err := removeDuplicate(path, g.Size); err != nil {
				derr := &DeletionError{Path: path, Err: err}
				outcome.Failures = append(outcome.Failures, derr)
				atomic.AddInt64(&d.stats.DeletionErrors, 1)
				logging.WarnWithContext(logger, "cannot delete duplicate; skipping", "deletion_error",
					logging.String(logging.FieldPath, path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, logging.HintFor(err)),
					logging.String(logging.FieldImpact, "duplicate copy remains on disk"),
				)
				continue
			}
			outcome.Deleted = append(outcome.Deleted, path)
			atomic.AddInt64(&d.stats.Deleted, 1)
			atomic.AddInt64(&d.stats.DeletedBytes, g.Size)
			logger.Debug("duplicate deleted",
				logging.String(logging.FieldPath, path),
				logging.String("kept", canonical),
			)
		}
	}
	logger.Info("deletion complete",
		logging.Int("deleted", len(outcome.Deleted)),
		logging.Int("failures", len(outcome.Failures)),
		logging.Int("skipped_groups", outcome.SkippedGroups),
	)
	return nil
}

func removeDuplicate(path string, size int64) error {
	current, err := fileutil.SizeOf(path)
	if err != nil {
		return err
	}
	if current != size {
		return fmt.Errorf("%w (was %d, now %d bytes)", ErrSizeChanged, size, current)
	}
	return fileutil.RemoveRegularFile(path)
}
