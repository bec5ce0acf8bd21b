package metrics

import (
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Snapshot struct {
	DurationMs        int64
	FilesSeen         int64
	DirsVisited       int64
	TraversalErrors   int64
	CandidateGroups   int64
	CandidateFiles    int64
	CandidateBytes    int64
	Hashed            int64
	BytesHashed       int64
	FingerprintErrors int64
	DuplicateGroups   int64
	RedundantFiles    int64
	ReclaimableBytes  int64
	Deleted           int64
	DeletedBytes      int64
	DeletionErrors    int64
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		DurationMs:        s.Duration().Milliseconds(),
		FilesSeen:         atomic.LoadInt64(&s.FilesSeen),
		DirsVisited:       atomic.LoadInt64(&s.DirsVisited),
		TraversalErrors:   atomic.LoadInt64(&s.TraversalErrors),
		CandidateGroups:   atomic.LoadInt64(&s.CandidateGroups),
		CandidateFiles:    atomic.LoadInt64(&s.CandidateFiles),
		CandidateBytes:    atomic.LoadInt64(&s.CandidateBytes),
		Hashed:            atomic.LoadInt64(&s.Hashed),
		BytesHashed:       atomic.LoadInt64(&s.BytesHashed),
		FingerprintErrors: atomic.LoadInt64(&s.FingerprintErrors),
		DuplicateGroups:   atomic.LoadInt64(&s.DuplicateGroups),
		RedundantFiles:    atomic.LoadInt64(&s.RedundantFiles),
		ReclaimableBytes:  atomic.LoadInt64(&s.ReclaimableBytes),
		Deleted:           atomic.LoadInt64(&s.Deleted),
		DeletedBytes:      atomic.LoadInt64(&s.DeletedBytes),
		DeletionErrors:    atomic.LoadInt64(&s.DeletionErrors),
	}
}

// Row is one label/value line of the scan summary.
type Row struct {
	Label string
	Value string
}

// Rows renders the snapshot as summary lines. Counts use English digit
// grouping and byte totals use IEC units. Deletion lines appear only when
// deleted is true.
func (snap Snapshot) Rows(deleted bool) []Row {
	p := message.NewPrinter(language.English)
	count := func(n int64) string { return p.Sprintf("%d", n) }
	bytes := func(n int64) string { return humanize.IBytes(uint64(max(n, 0))) }

	rows := []Row{
		{"Directories scanned", count(snap.DirsVisited)},
		{"Files scanned", count(snap.FilesSeen)},
		{"Same-size candidates", p.Sprintf("%d files in %d groups", snap.CandidateFiles, snap.CandidateGroups)},
		{"Bytes hashed", bytes(snap.BytesHashed)},
		{"Duplicate groups", count(snap.DuplicateGroups)},
		{"Redundant copies", count(snap.RedundantFiles)},
		{"Reclaimable space", bytes(snap.ReclaimableBytes)},
		{"Traversal errors", count(snap.TraversalErrors)},
		{"Fingerprint errors", count(snap.FingerprintErrors)},
	}
	if deleted {
		rows = append(rows,
			Row{"Deleted files", count(snap.Deleted)},
			Row{"Space freed", bytes(snap.DeletedBytes)},
			Row{"Deletion errors", count(snap.DeletionErrors)},
		)
	}
	rows = append(rows, Row{"Elapsed", p.Sprintf("%.2fs", float64(snap.DurationMs)/1000.0)})
	return rows
}
