// Package transport implements the fetch collaborators of the sync engine over HTTP.
//
// Every failure, including non-2xx responses, is returned as a transport error
// from coversync/pkg/errors. There is no retry layer: a failed page fetch ends a
// crawl early and a failed cover download is reported for that file only.
package transport
