package reconcile

import (
	"context"
	"fmt"

	"coversync/internal/downloader"
	"coversync/pkg/catalog"
	"coversync/pkg/logger"
	"coversync/pkg/mirror"

	"golang.org/x/sync/errgroup"
)

// Plan is the work needed to make a mirror directory match the expected records
type Plan struct {
	// Missing holds the records to download, in record order, one per filename.
	// Expected files that scanned as empty are included since they are deleted first.
	Missing []catalog.CoverRecord
	Stale   []string
	Empty   []string
}

// Diff computes the plan for expected against a directory scan.
// When two records share a filename the first one is downloaded.
func Diff(expected []catalog.CoverRecord, scan mirror.ScanResult) Plan {
	keep := make(map[string]struct{}, len(scan.Keep))
	for _, name := range scan.Keep {
		keep[name] = struct{}{}
	}

	plan := Plan{Stale: scan.Stale, Empty: scan.Empty}
	seen := make(map[string]struct{}, len(expected))
	for _, r := range expected {
		if _, dup := seen[r.Filename]; dup {
			continue
		}
		seen[r.Filename] = struct{}{}
		if _, ok := keep[r.Filename]; !ok {
			plan.Missing = append(plan.Missing, r)
		}
	}
	return plan
}

// Options holds the per-collection concurrency caps
type Options struct {
	// SyncChecks bounds concurrent stat and delete calls
	SyncChecks int
	// Downloads bounds concurrent cover downloads
	Downloads int
	// DryRun records the plan on the collection without touching disk
	DryRun bool
}

// Engine aligns one collection's mirror directory with its expected records
type Engine struct {
	fetcher downloader.CoverFetcher
	mirror  *mirror.Manager
	opts    Options
	logger  logger.Logger
}

// New creates an Engine
func New(fetcher downloader.CoverFetcher, m *mirror.Manager, opts Options, log logger.Logger) *Engine {
	if opts.SyncChecks <= 0 {
		opts.SyncChecks = 20
	}
	if opts.Downloads <= 0 {
		opts.Downloads = 5
	}
	return &Engine{
		fetcher: fetcher,
		mirror:  m,
		opts:    opts,
		logger:  logger.OrGlobal(log),
	}
}

// Reconcile deletes stale and empty files from the collection's directory and
// downloads every missing cover, recording each change on col.
//
// The returned error is collection-fatal (directory creation or stat failure).
// Per-file delete, download and write failures are recorded in col.Failures instead.
func (e *Engine) Reconcile(ctx context.Context, col *catalog.Collection) error {
	if col.Title == "" {
		return fmt.Errorf("collection %s has no title", col.SourceURL)
	}

	dir, err := e.mirror.Dir(col.Title)
	if err != nil {
		return err
	}
	log := e.logger.WithField("collection", col.Title)

	if !e.opts.DryRun {
		if err := dir.Ensure(); err != nil {
			return err
		}
	}

	scan, err := dir.Scan(ctx, col.Expected(), e.opts.SyncChecks)
	if err != nil {
		return err
	}
	plan := Diff(col.Records, scan)

	log.DebugWithFields("Reconciliation planned", map[string]interface{}{
		"keep":    len(scan.Keep),
		"missing": len(plan.Missing),
		"stale":   len(plan.Stale),
		"empty":   len(plan.Empty),
	})

	if e.opts.DryRun {
		for _, name := range plan.Stale {
			col.RecordRemoved(name)
		}
		for _, name := range plan.Empty {
			col.RecordEmptyRemoved(name)
		}
		for _, r := range plan.Missing {
			col.RecordAdded(r.Filename)
		}
		return nil
	}

	// Empty files must be gone before their replacements are fetched,
	// otherwise the download's existence re-check would skip them.
	e.deleteAll(ctx, dir, col, plan, log)
	e.downloadAll(ctx, dir, col, plan.Missing, log)

	log.InfoWithFields("Collection reconciled", map[string]interface{}{
		"added":         len(col.Added),
		"removed":       len(col.Removed),
		"empty_removed": len(col.EmptyRemoved),
		"failures":      len(col.Failures),
	})

	return nil
}

func (e *Engine) deleteAll(ctx context.Context, dir *mirror.Dir, col *catalog.Collection, plan Plan, log logger.Logger) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.SyncChecks)

	remove := func(name string, record func(string)) {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if err := dir.Remove(name); err != nil {
				log.WithError(err).WithField("file", name).Warn("Could not delete file")
				col.RecordFailure(name, err)
				return nil
			}
			record(name)
			return nil
		})
	}

	for _, name := range plan.Stale {
		remove(name, col.RecordRemoved)
	}
	for _, name := range plan.Empty {
		remove(name, col.RecordEmptyRemoved)
	}

	// workers never return an error
	_ = g.Wait()
}

func (e *Engine) downloadAll(ctx context.Context, dir *mirror.Dir, col *catalog.Collection, missing []catalog.CoverRecord, log logger.Logger) {
	if len(missing) == 0 {
		return
	}

	jobs := make([]downloader.DownloadJob, len(missing))
	for i, r := range missing {
		jobs[i] = downloader.DownloadJob{Filename: r.Filename, URL: r.SourceURL}
	}

	pool := downloader.NewWorkerPool(ctx, e.opts.Downloads, e.fetcher, dir, log)
	pool.Run(jobs, func(r downloader.DownloadResult) {
		switch {
		case r.Success:
			col.RecordAdded(r.Job.Filename)
		case r.Error != nil:
			col.RecordFailure(r.Job.Filename, r.Error)
		}
	})
}
