package crawler

import (
	"context"
	"fmt"

	"coversync/pkg/catalog"
	"coversync/pkg/logger"
)

// PageFetcher fetches listing page markup
type PageFetcher interface {
	FetchText(ctx context.Context, url string) ([]byte, error)
}

// Options configures the site contract the crawler walks
type Options struct {
	PageParam      string
	PlaceholderURL string
}

// Crawler walks one collection's numbered listing, page by page, until the
// site reports a different active page than the one requested.
type Crawler struct {
	fetcher PageFetcher
	opts    Options
	logger  logger.Logger
}

// New creates a Crawler
func New(fetcher PageFetcher, opts Options, log logger.Logger) *Crawler {
	if opts.PageParam == "" {
		opts.PageParam = "page"
	}
	return &Crawler{
		fetcher: fetcher,
		opts:    opts,
		logger:  logger.OrGlobal(log),
	}
}

// Crawl fetches every page of the collection at seedURL.
//
// A fetch failure ends the crawl with the records gathered so far and Err left nil;
// if it happens on the first page the returned collection has no title.
// A heading failure returns the collection with Err set and no records.
func (c *Crawler) Crawl(ctx context.Context, seedURL string) *catalog.Collection {
	col := catalog.NewCollection(seedURL)
	log := c.logger.WithField("url", seedURL)

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			log.WithError(err).Warn("Crawl cancelled")
			return col
		}

		pageURL, err := catalog.PageURL(seedURL, c.opts.PageParam, page)
		if err != nil {
			col.Err = err
			log.WithError(err).Error("Invalid collection url")
			return col
		}

		markup, err := c.fetcher.FetchText(ctx, pageURL)
		if err != nil {
			log.WithError(err).WarnWithFields("Page fetch failed, keeping pages fetched so far", map[string]interface{}{
				"page":    page,
				"records": len(col.Records),
			})
			return col
		}

		result, err := catalog.ParsePage(markup, page, catalog.ParseOptions{
			PlaceholderURL: c.opts.PlaceholderURL,
			WantTitle:      col.Title == "",
		})
		if err != nil {
			col.Err = fmt.Errorf("page %d: %w", page, err)
			col.Title = ""
			col.Records = nil
			log.WithError(err).ErrorWithFields("Malformed collection page", map[string]interface{}{
				"page": page,
			})
			return col
		}

		if result.Mismatch {
			log.DebugWithFields("Reached last page", map[string]interface{}{
				"requested": page,
				"reported":  result.ReportedPage,
				"records":   len(col.Records),
			})
			return col
		}

		if col.SetTitle(result.Title) {
			log.WithField("collection", col.Title).Info("Collection found")
		}
		for _, caption := range result.Unparsable {
			log.DebugWithFields("Could not parse issue name", map[string]interface{}{
				"page":    page,
				"caption": caption,
			})
		}
		col.AddRecords(result.Records...)
	}
}
