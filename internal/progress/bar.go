// Package progress renders a byte-based progress bar while candidates are
// fingerprinted. A nil *Bar is valid and discards every update, so callers
// can skip the bar on non-terminals without branching.
package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"dupfind/internal/metrics"
)

// SnapshotFn supplies live counters for the bar description.
type SnapshotFn func() metrics.Snapshot

type Bar struct {
	bar  *progressbar.ProgressBar
	ch   chan int64
	done chan struct{}
	stop chan struct{}

	snap   SnapshotFn
	total  int64
	lastB  int64
	lastAt time.Time
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// New starts a bar over totalBytes written to w. snap may be nil.
func New(w io.Writer, totalBytes, totalFiles int64, snap SnapshotFn) *Bar {
	b := &Bar{
		ch:     make(chan int64, 16384),
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
		snap:   snap,
		total:  totalFiles,
		lastAt: time.Now(),
	}

	b.bar = progressbar.NewOptions64(
		totalBytes,
		progressbar.OptionSetWriter(w),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetDescription("hashing"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(120*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	_ = b.bar.RenderBlank()

	go func() {
		defer close(b.done)
		for n := range b.ch {
			_ = b.bar.Add64(n)
		}
		_ = b.bar.Finish()
	}()

	go func() {
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				b.updateDescription()
			case <-b.stop:
				return
			}
		}
	}()

	return b
}

// AddBytes is safe to call from several goroutines.
func (b *Bar) AddBytes(n int64) {
	if b == nil || n <= 0 {
		return
	}
	b.ch <- n
}

// Close flushes pending updates and finishes the bar.
func (b *Bar) Close() {
	if b == nil {
		return
	}
	close(b.stop)
	close(b.ch)
	<-b.done
}

func (b *Bar) updateDescription() {
	if b.snap == nil {
		return
	}
	snap := b.snap()

	now := time.Now()
	dt := now.Sub(b.lastAt).Seconds()
	mbps := 0.0
	if dt > 0 {
		mbps = (float64(snap.BytesHashed-b.lastB) / 1_000_000.0) / dt
	}
	b.lastB = snap.BytesHashed
	b.lastAt = now

	b.bar.Describe(fmt.Sprintf("hashing %d/%d files | err=%d | %.1f MB/s",
		snap.Hashed, b.total, snap.FingerprintErrors, mbps))
}
