// Package walker enumerates the regular files beneath a root directory.
//
// Traversal uses an explicit stack rather than recursion. Entries are read in
// lexical order; the files of a directory are emitted before its
// subdirectories are descended, and subdirectories are descended in lexical
// order, so an unchanged tree always yields the same sequence. Symlinks are
// never followed and directories are tracked by identity, so cyclic links and
// bind mounts cannot cause repeated visits.
package walker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"dupfind/internal/logging"
	"dupfind/internal/metrics"
)

// FileRecord is a regular file discovered during the walk.
type FileRecord struct {
	Path string
	Size int64
}

// TraversalError reports a directory or entry that could not be read. The
// walk records it and continues.
type TraversalError struct {
	Path string
	Err  error
}

func (e *TraversalError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *TraversalError) Unwrap() error { return e.Err }

// Options controls a walk.
type Options struct {
	// Recursive descends into subdirectories. When false, subdirectories of
	// root are skipped without error.
	Recursive bool
	Logger    *slog.Logger
	Stats     *metrics.Stats
}

// Result is the flat output of a walk.
type Result struct {
	Files  []FileRecord
	Errors []*TraversalError
	// Dirs counts directories whose listing was read.
	Dirs int
	// SkippedDirs counts subdirectories not descended because Recursive is off.
	SkippedDirs int
	// Ignored counts symlinks, devices, sockets, and pipes.
	Ignored int
}

// Walk lists every regular file reachable from root. Unreadable directories
// are reported in Result.Errors and skipped. The only returned error is a
// context cancellation, in which case the partial result is returned too.
func Walk(ctx context.Context, root string, opts Options) (*Result, error) {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(opts.Logger, "walker"))
	stats := metrics.OrNew(opts.Stats)

	res := &Result{}
	visited := make(map[dirID]struct{})
	stack := []string{filepath.Clean(root)}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if id, ok := identify(dir); ok {
			if _, seen := visited[id]; seen {
				logger.Debug("directory already visited", logging.String(logging.FieldPath, dir))
				continue
			}
			visited[id] = struct{}{}
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			res.fail(logger, stats, dir, err)
			if len(entries) == 0 {
				continue
			}
		}
		res.Dirs++
		atomic.AddInt64(&stats.DirsVisited, 1)

		var subdirs []string
		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			mode := entry.Type()
			switch {
			case mode.IsDir():
				if !opts.Recursive {
					res.SkippedDirs++
					continue
				}
				subdirs = append(subdirs, path)
			case mode.IsRegular():
				info, err := entry.Info()
				if err != nil {
					res.fail(logger, stats, path, err)
					continue
				}
				if !info.Mode().IsRegular() {
					res.Ignored++
					continue
				}
				res.Files = append(res.Files, FileRecord{Path: path, Size: info.Size()})
				atomic.AddInt64(&stats.FilesSeen, 1)
			default:
				res.Ignored++
			}
		}
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}

	logger.Debug("walk complete",
		logging.Int("files", len(res.Files)),
		logging.Int("dirs", res.Dirs),
		logging.Int("skipped_dirs", res.SkippedDirs),
		logging.Int("ignored", res.Ignored),
		logging.Int("errors", len(res.Errors)),
	)
	return res, nil
}

func (r *Result) fail(logger *slog.Logger, stats *metrics.Stats, path string, err error) {
	r.Errors = append(r.Errors, &TraversalError{Path: path, Err: err})
	atomic.AddInt64(&stats.TraversalErrors, 1)
	logging.WarnWithContext(logger, "cannot read path; skipping", "traversal_error",
		logging.String(logging.FieldPath, path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, logging.HintFor(err)),
		logging.String(logging.FieldImpact, "files below this path are not checked for duplicates"),
	)
}
