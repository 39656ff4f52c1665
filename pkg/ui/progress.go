package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"coversync/pkg/catalog"

	"github.com/schollz/progressbar/v3"
)

// StatusTracker tallies finished collections for the end-of-run summary
type StatusTracker struct {
	mu           sync.Mutex
	Collections  int
	Skipped      int
	Added        int
	Removed      int
	EmptyRemoved int
	Failures     int
	StartTime    time.Time
}

// NewStatusTracker creates a new status tracker
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{StartTime: time.Now()}
}

// Track records one finished collection. It is safe for concurrent use.
func (st *StatusTracker) Track(col *catalog.Collection) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.Collections++
	if col.Err != nil {
		st.Skipped++
		return
	}
	st.Added += len(col.Added)
	st.Removed += len(col.Removed)
	st.EmptyRemoved += len(col.EmptyRemoved)
	st.Failures += len(col.Failures)
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// Summary returns a one-line description of the run
func (st *StatusTracker) Summary() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return fmt.Sprintf("%d collections (%d skipped): %d added, %d removed, %d zero-length removed, %d failed in %s",
		st.Collections, st.Skipped, st.Added, st.Removed, st.EmptyRemoved, st.Failures,
		time.Since(st.StartTime).Round(time.Millisecond))
}

// CollectionProgress ticks once per finished collection
type CollectionProgress struct {
	bar *progressbar.ProgressBar
}

// NewCollectionProgress creates a progress bar for total collections on stderr
func NewCollectionProgress(total int) *CollectionProgress {
	return NewCollectionProgressWithWriter(total, os.Stderr)
}

// NewCollectionProgressWithWriter creates a progress bar rendering to w
func NewCollectionProgressWithWriter(total int, w io.Writer) *CollectionProgress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("syncing collections"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &CollectionProgress{bar: bar}
}

// Done advances the bar by one collection
func (p *CollectionProgress) Done(col *catalog.Collection) {
	if col.Title != "" {
		p.bar.Describe(col.Title)
	}
	_ = p.bar.Add(1)
}

// Finish completes the bar
func (p *CollectionProgress) Finish() {
	_ = p.bar.Finish()
}
