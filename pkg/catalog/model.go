package catalog

import (
	"sync"
)

// CoverExtension is appended to every normalized filename stem
const CoverExtension = ".jpg"

// CoverRecord is one cover the remote listing says should exist in the mirror
type CoverRecord struct {
	Filename  string `json:"filename"`
	SourceURL string `json:"source_url"`
}

// PageResult is what one listing page yields.
// Mismatch is set when the site reports a different active page than the one requested,
// which means the previous page was the last one.
type PageResult struct {
	ReportedPage int
	Mismatch     bool
	Title        string
	Records      []CoverRecord
	// Unparsable holds captions that were dropped because they could not be normalized
	Unparsable []string
}

// FileFailure records a per-file reconciliation problem that did not stop the collection
type FileFailure struct {
	Filename string
	Err      error
}

// Collection is one remote listing and its local mirror directory.
// It is owned by a single sync task; the accumulator methods are safe for the
// reconciliation workers that run inside that task.
type Collection struct {
	SourceURL string
	Title     string
	Records   []CoverRecord

	Added        []string
	Removed      []string
	EmptyRemoved []string
	Failures     []FileFailure

	// Err is the collection-fatal error, if any
	Err error

	mu sync.Mutex
}

// NewCollection creates an empty collection for a seed URL
func NewCollection(sourceURL string) *Collection {
	return &Collection{SourceURL: sourceURL}
}

// SetTitle records the title discovered on the first page. Later calls are ignored.
func (c *Collection) SetTitle(title string) bool {
	if c.Title != "" || title == "" {
		return false
	}
	c.Title = title
	return true
}

// AddRecords appends records in page order
func (c *Collection) AddRecords(records ...CoverRecord) {
	c.Records = append(c.Records, records...)
}

// Expected returns the records keyed by filename.
// When two records share a filename the first one wins.
func (c *Collection) Expected() map[string]CoverRecord {
	expected := make(map[string]CoverRecord, len(c.Records))
	for _, r := range c.Records {
		if _, dup := expected[r.Filename]; dup {
			continue
		}
		expected[r.Filename] = r
	}
	return expected
}

// RecordAdded notes a cover that was downloaded, or would be in a dry run
func (c *Collection) RecordAdded(name string) {
	c.mu.Lock()
	c.Added = append(c.Added, name)
	c.mu.Unlock()
}

// RecordRemoved notes a stale file that was deleted
func (c *Collection) RecordRemoved(name string) {
	c.mu.Lock()
	c.Removed = append(c.Removed, name)
	c.mu.Unlock()
}

// RecordEmptyRemoved notes a zero-length cover that was deleted for re-download
func (c *Collection) RecordEmptyRemoved(name string) {
	c.mu.Lock()
	c.EmptyRemoved = append(c.EmptyRemoved, name)
	c.mu.Unlock()
}

// RecordFailure notes a per-file delete, download or write failure
func (c *Collection) RecordFailure(name string, err error) {
	c.mu.Lock()
	c.Failures = append(c.Failures, FileFailure{Filename: name, Err: err})
	c.mu.Unlock()
}

// HasChanges reports whether anything was added or removed
func (c *Collection) HasChanges() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Added)+len(c.Removed)+len(c.EmptyRemoved) > 0
}
