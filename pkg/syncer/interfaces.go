package syncer

import (
	"context"

	"coversync/pkg/catalog"
)

// CollectionCrawler gathers the expected covers of one collection
type CollectionCrawler interface {
	Crawl(ctx context.Context, seedURL string) *catalog.Collection
}

// CollectionReconciler aligns one collection's mirror directory with its records
type CollectionReconciler interface {
	Reconcile(ctx context.Context, col *catalog.Collection) error
}
