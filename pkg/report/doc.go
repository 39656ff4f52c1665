// Package report renders the per-collection change lists of a sync run.
//
// Lists are always ordered by CoverSortKey rather than by completion order, so
// two runs with the same outcome print the same report.
package report
