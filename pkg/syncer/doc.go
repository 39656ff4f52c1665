// Package syncer runs every seed collection through the crawl and reconcile
// pipeline with a bounded number of collections in flight.
//
// Collections share nothing but the transport. A collection that fails, whether
// its heading is malformed, its first page never loads or its directory cannot
// be created, is logged and reported on its own result while the others proceed.
package syncer
