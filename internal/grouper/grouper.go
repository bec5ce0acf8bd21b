// Package grouper turns same-size candidates into duplicate groups.
//
// Every member of every candidate group is fingerprinted, then each size group
// is split by fingerprint and only splits with two or more members survive.
// Paths keep their traversal order inside a group; the first path is the
// canonical copy that deletion keeps.
package grouper

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"dupfind/internal/fingerprint"
	"dupfind/internal/logging"
	"dupfind/internal/metrics"
	"dupfind/internal/sizeindex"
)

// DuplicateGroup is a set of files sharing size and fingerprint.
type DuplicateGroup struct {
	Size        int64
	Fingerprint fingerprint.Fingerprint
	Paths       []string
}

// Canonical is the first-discovered path, kept by deletion.
func (g DuplicateGroup) Canonical() string {
	return g.Paths[0]
}

// Redundant lists every path after the canonical one.
func (g DuplicateGroup) Redundant() []string {
	return g.Paths[1:]
}

// Reclaimable is the space freed by removing the redundant copies.
func (g DuplicateGroup) Reclaimable() int64 {
	return g.Size * int64(len(g.Paths)-1)
}

type Options struct {
	// Workers is the number of files fingerprinted concurrently. Values
	// below 1 mean 1.
	Workers   int
	BlockSize int
	Logger    *slog.Logger
	Stats     *metrics.Stats
	// OnProgress receives bytes read; it is called from worker goroutines.
	OnProgress func(n int64)
}

type Result struct {
	Groups   []DuplicateGroup
	Failures []*fingerprint.Error
}

type slot struct {
	fp  fingerprint.Fingerprint
	err error
}

type job struct {
	group  int
	member int
}

// Group fingerprints every candidate and regroups by fingerprint. Files that
// cannot be read are reported in Result.Failures and left out. Results are
// stored by (group, member) position, so output order never depends on which
// worker finished first.
func Group(ctx context.Context, candidates []sizeindex.Group, opts Options) (*Result, error) {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(opts.Logger, "grouper"))
	stats := metrics.OrNew(opts.Stats)

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	slots := make([][]slot, len(candidates))
	for i, c := range candidates {
		slots[i] = make([]slot, len(c.Paths))
		atomic.AddInt64(&stats.CandidateGroups, 1)
		atomic.AddInt64(&stats.CandidateFiles, int64(len(c.Paths)))
		atomic.AddInt64(&stats.CandidateBytes, c.Bytes())
	}

	jobs := make(chan job)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		hasher := fingerprint.NewHasher(opts.BlockSize)
		progress := func(n int64) {
			atomic.AddInt64(&stats.BytesHashed, n)
			if opts.OnProgress != nil {
				opts.OnProgress(n)
			}
		}
		for j := range jobs {
			path := candidates[j.group].Paths[j.member]
			fp, err := hasher.File(ctx, path, progress)
			slots[j.group][j.member] = slot{fp: fp, err: err}
			if err == nil {
				atomic.AddInt64(&stats.Hashed, 1)
			}
		}
	}

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go worker()
	}

feed:
	for gi, c := range candidates {
		for mi := range c.Paths {
			select {
			case jobs <- job{group: gi, member: mi}:
			case <-ctx.Done():
				break feed
			}
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{}
	for gi, c := range candidates {
		var order []fingerprint.Fingerprint
		byFP := make(map[fingerprint.Fingerprint][]string)
		for mi, path := range c.Paths {
			s := slots[gi][mi]
			if s.err != nil {
				res.fail(logger, stats, path, s.err)
				continue
			}
			if _, ok := byFP[s.fp]; !ok {
				order = append(order, s.fp)
			}
			byFP[s.fp] = append(byFP[s.fp], path)
		}
		for _, fp := range order {
			paths := byFP[fp]
			if len(paths) < 2 {
				continue
			}
			g := DuplicateGroup{Size: c.Size, Fingerprint: fp, Paths: paths}
			res.Groups = append(res.Groups, g)
			atomic.AddInt64(&stats.DuplicateGroups, 1)
			atomic.AddInt64(&stats.RedundantFiles, int64(len(paths)-1))
			atomic.AddInt64(&stats.ReclaimableBytes, g.Reclaimable())
		}
	}

	logger.Debug("grouping complete",
		logging.Int("candidate_groups", len(candidates)),
		logging.Int("duplicate_groups", len(res.Groups)),
		logging.Int("failures", len(res.Failures)),
	)
	return res, nil
}

func (r *Result) fail(logger *slog.Logger, stats *metrics.Stats, path string, err error) {
	var ferr *fingerprint.Error
	if !errors.As(err, &ferr) {
		ferr = &fingerprint.Error{Path: path, Err: err}
	}
	r.Failures = append(r.Failures, ferr)
	atomic.AddInt64(&stats.FingerprintErrors, 1)
	logging.WarnWithContext(logger, "cannot fingerprint file; excluding it", "fingerprint_error",
		logging.String(logging.FieldPath, path),
		logging.Error(ferr.Err),
		logging.String(logging.FieldErrorHint, logging.HintFor(ferr.Err)),
		logging.String(logging.FieldImpact, "file is left out of its duplicate group"),
	)
}
