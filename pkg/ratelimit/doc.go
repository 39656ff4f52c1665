// Package ratelimit paces requests to the catalog site.
//
// A single Limiter is shared by every collection that uses the same transport,
// so implementations must be safe for concurrent use. New(0) returns a limiter
// that never waits.
package ratelimit
