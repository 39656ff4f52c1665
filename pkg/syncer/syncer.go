package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"coversync/pkg/catalog"
	"coversync/pkg/config"
	"coversync/pkg/crawler"
	"coversync/pkg/logger"
	"coversync/pkg/mirror"
	"coversync/pkg/ratelimit"
	"coversync/pkg/reconcile"
	"coversync/pkg/transport"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoPages marks a collection whose first page could not be fetched
	ErrNoPages = errors.New("no listing page could be fetched")

	// ErrDuplicateTitle marks a collection whose title was already taken by
	// another seed in the same run
	ErrDuplicateTitle = errors.New("collection title already synced in this run")
)

// titleClaims hands each mirror directory to at most one collection per run.
// Titles are compared case-insensitively so that case-insensitive filesystems
// cannot map two collections onto one directory either.
type titleClaims struct {
	mu     sync.Mutex
	owners map[string]string
}

// claim records seed as the owner of title and returns the previous owner, if any
func (c *titleClaims) claim(title, seed string) (string, bool) {
	key := strings.ToLower(title)
	c.mu.Lock()
	defer c.mu.Unlock()
	if owner, taken := c.owners[key]; taken {
		return owner, false
	}
	c.owners[key] = seed
	return "", true
}

// Syncer runs the crawl and reconcile pipeline for every seed collection
type Syncer struct {
	crawler     CollectionCrawler
	reconciler  CollectionReconciler
	collections int
	logger      logger.Logger

	// OnCollectionDone, if set, is called once per seed as soon as its
	// collection is finished. It may be called from several goroutines at once.
	OnCollectionDone func(col *catalog.Collection)
}

// New creates a Syncer that processes at most collections seeds at a time
func New(c CollectionCrawler, r CollectionReconciler, collections int, log logger.Logger) *Syncer {
	if collections <= 0 {
		collections = 10
	}
	return &Syncer{
		crawler:     c,
		reconciler:  r,
		collections: collections,
		logger:      logger.OrGlobal(log),
	}
}

// NewFromConfig wires the HTTP transport, crawler, mirror and reconciliation
// engine described by cfg into a Syncer
func NewFromConfig(cfg *config.Config, log logger.Logger) *Syncer {
	log = logger.OrGlobal(log)

	client := transport.NewClient(cfg.HTTP.Timeout, ratelimit.New(cfg.HTTP.RequestsPerMinute), log)
	if cfg.HTTP.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.HTTP.UserAgent)
	}

	c := crawler.New(client, crawler.Options{
		PageParam:      cfg.Catalog.PageParam,
		PlaceholderURL: cfg.Catalog.PlaceholderURL,
	}, log)

	engine := reconcile.New(client, mirror.NewManager(cfg.Output.BaseDirectory, log), reconcile.Options{
		SyncChecks: cfg.Concurrency.SyncChecks,
		Downloads:  cfg.Concurrency.Downloads,
		DryRun:     cfg.Output.DryRun,
	}, log)

	logger.LogComponentStart(log, "syncer", map[string]interface{}{
		"output_dir":  cfg.Output.BaseDirectory,
		"collections": cfg.Concurrency.Collections,
		"sync_checks": cfg.Concurrency.SyncChecks,
		"downloads":   cfg.Concurrency.Downloads,
		"dry_run":     cfg.Output.DryRun,
	})

	return New(c, engine, cfg.Concurrency.Collections, log)
}

// Run processes every seed and returns one collection per seed, in seed order.
// A collection that could not be synced carries the reason in Err; it never
// stops the other collections. Each title is mirrored by at most one collection
// per run; any other collection reaching the same title fails with ErrDuplicateTitle.
func (s *Syncer) Run(ctx context.Context, seeds []string) []*catalog.Collection {
	results := make([]*catalog.Collection, len(seeds))

	claims := &titleClaims{owners: make(map[string]string)}

	var g errgroup.Group
	g.SetLimit(s.collections)

	for i, seed := range seeds {
		i, seed := i, seed
		g.Go(func() error {
			col := s.syncOne(ctx, seed, claims)
			results[i] = col
			if s.OnCollectionDone != nil {
				s.OnCollectionDone(col)
			}
			return nil
		})
	}

	// collection failures are carried on the results
	_ = g.Wait()

	return results
}

func (s *Syncer) syncOne(ctx context.Context, seed string, claims *titleClaims) *catalog.Collection {
	seed = strings.TrimSpace(seed)
	log := s.logger.WithField("url", seed)

	col := s.crawler.Crawl(ctx, seed)
	if col.Err != nil {
		log.WithError(col.Err).Error("Skipping collection")
		return col
	}
	if col.Title == "" {
		col.Err = ErrNoPages
		log.Warn("Skipping empty collection")
		return col
	}

	log = log.WithField("collection", col.Title)
	if owner, ok := claims.claim(col.Title, seed); !ok {
		col.Err = fmt.Errorf("%w: %q is mirrored from %s", ErrDuplicateTitle, col.Title, owner)
		log.WithError(col.Err).Error("Skipping collection with duplicate title")
		return col
	}
	if err := s.reconciler.Reconcile(ctx, col); err != nil {
		col.Err = err
		log.WithError(err).Error("Collection reconciliation failed")
		return col
	}

	if n := len(col.Failures); n > 0 {
		log.WarnWithFields("Collection synced with failures", map[string]interface{}{
			"failures": n,
		})
	}
	return col
}
