// Package metrics counts what a scan did: files walked, bytes hashed,
// duplicates found, and files removed. Counters are updated with sync/atomic
// so the fingerprint workers and the progress bar can share one Stats value.
package metrics

import "time"

type Stats struct {
	FilesSeen       int64
	DirsVisited     int64
	TraversalErrors int64

	CandidateGroups int64
	CandidateFiles  int64
	CandidateBytes  int64

	Hashed            int64
	BytesHashed       int64
	FingerprintErrors int64

	DuplicateGroups  int64
	RedundantFiles   int64
	ReclaimableBytes int64

	Deleted        int64
	DeletedBytes   int64
	DeletionErrors int64

	Started  time.Time
	Finished time.Time
}

func (s *Stats) Start() { s.Started = time.Now() }
func (s *Stats) Stop()  { s.Finished = time.Now() }
func (s *Stats) Duration() time.Duration {
	if s.Started.IsZero() {
		return 0
	}
	if s.Finished.IsZero() {
		return time.Since(s.Started)
	}
	return s.Finished.Sub(s.Started)
}

// OrNew returns s, or a fresh Stats when s is nil, so callers may pass nil.
func OrNew(s *Stats) *Stats {
	if s == nil {
		return &Stats{}
	}
	return s
}
