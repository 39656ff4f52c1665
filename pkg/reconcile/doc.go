// Package reconcile makes a collection's mirror directory match its expected covers.
//
// Reconcile runs in three steps, each under its own concurrency cap:
// scan the directory (sync checks), delete stale and zero-length files
// (sync checks), then download what is missing (downloads). Running it twice
// against an unchanged listing leaves nothing to do the second time.
package reconcile
