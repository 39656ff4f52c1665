package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"coversync/pkg/catalog"
	errs "coversync/pkg/errors"
	"coversync/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// tempSuffix marks in-progress writes. A leftover temp file is not an expected
// cover, so the next scan classifies it as stale.
const tempSuffix = ".tmp"

// Manager owns the base directory every collection mirror lives under
type Manager struct {
	baseDir string
	logger  logger.Logger
}

// NewManager creates a manager rooted at baseDir. Nothing is created on disk until Dir.Ensure.
func NewManager(baseDir string, log logger.Logger) *Manager {
	return &Manager{
		baseDir: baseDir,
		logger:  logger.OrGlobal(log),
	}
}

// BaseDir returns the root of the mirror tree
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// Dir returns the mirror directory of the collection named title.
// Titles that are not a single path element directly below the base
// directory are rejected with ErrUnsafeDirectory.
func (m *Manager) Dir(title string) (*Dir, error) {
	if title == "." || strings.ContainsAny(title, `/\`) || !filepath.IsLocal(title) {
		return nil, errs.ErrUnsafeDirectory.WithTarget(title)
	}
	path := filepath.Join(m.baseDir, title)
	return &Dir{
		path:   path,
		logger: m.logger.WithField("dir", path),
	}, nil
}

// Dir is one collection's mirror directory.
// Callers working on disjoint filenames may use it concurrently.
type Dir struct {
	path   string
	logger logger.Logger
}

// ScanResult partitions the files of a mirror directory.
// Every file lands in exactly one list; each list is sorted.
type ScanResult struct {
	// Keep holds expected files with content
	Keep []string
	// Stale holds files that are not expected
	Stale []string
	// Empty holds expected files of zero length
	Empty []string
}

// Path returns the directory path
func (d *Dir) Path() string {
	return d.path
}

// Ensure creates the directory if it does not exist yet
func (d *Dir) Ensure() error {
	if err := os.MkdirAll(d.path, 0755); err != nil {
		return errs.Filesystem("create directory", d.path, err)
	}
	return nil
}

// Scan lists the directory and classifies every regular file against expected.
// Expected files are stat'ed with at most limit checks in flight; a stat failure
// aborts the scan. A directory that does not exist scans as empty.
func (d *Dir) Scan(ctx context.Context, expected map[string]catalog.CoverRecord, limit int) (ScanResult, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ScanResult{}, nil
		}
		return ScanResult{}, errs.Filesystem("read directory", d.path, err)
	}

	var (
		result ScanResult
		mu     sync.Mutex
	)

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if _, ok := expected[name]; !ok {
			mu.Lock()
			result.Stale = append(result.Stale, name)
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(d.path, name)
			info, err := os.Stat(path)
			if err != nil {
				return errs.Filesystem("stat", path, err)
			}

			mu.Lock()
			defer mu.Unlock()
			if info.Size() == 0 {
				result.Empty = append(result.Empty, name)
			} else {
				result.Keep = append(result.Keep, name)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return ScanResult{}, err
	}

	sort.Strings(result.Keep)
	sort.Strings(result.Stale)
	sort.Strings(result.Empty)

	d.logger.DebugWithFields("Directory scanned", map[string]interface{}{
		"keep":  len(result.Keep),
		"stale": len(result.Stale),
		"empty": len(result.Empty),
	})

	return result, nil
}

// Exists reports whether a file called name is present
func (d *Dir) Exists(name string) (bool, error) {
	path := filepath.Join(d.path, name)
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, errs.Filesystem("stat", path, err)
	}
}

// Save writes r to name through a temporary file and a rename, so a failed
// write never leaves a partial cover in place.
func (d *Dir) Save(r io.Reader, name string) error {
	filename := filepath.Join(d.path, name)
	tempFile := filename + tempSuffix

	out, err := os.Create(tempFile)
	if err != nil {
		return errs.Filesystem("create", tempFile, err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return errs.Filesystem("write", filename, err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return errs.Filesystem("close", filename, closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return errs.Filesystem("rename", filename, fmt.Errorf("from %s: %w", tempFile, err))
	}

	return nil
}

// Remove deletes name. A file that is already gone is not an error.
func (d *Dir) Remove(name string) error {
	path := filepath.Join(d.path, name)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errs.Filesystem("delete", path, err)
	}
	return nil
}
