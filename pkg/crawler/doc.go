// Package crawler walks a collection's numbered listing one page at a time.
//
// Pages are requested strictly in order because the only end-of-listing signal
// is the site clamping an out-of-range request to its last page: when the active
// pagination indicator disagrees with the requested page number the crawl stops
// and keeps everything gathered so far.
package crawler
