package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"coversync/pkg/catalog"
	errs "coversync/pkg/errors"
	"coversync/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seed = "https://www.comics.org/collection/7/"

// fakeFetcher serves canned pages keyed by URL and records the order of requests
type fakeFetcher struct {
	mu       sync.Mutex
	pages    map[string][]byte
	failures map[string]error
	requests []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: map[string][]byte{}, failures: map[string]error{}}
}

func (f *fakeFetcher) FetchText(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, url)
	if err, ok := f.failures[url]; ok {
		return nil, err
	}
	if page, ok := f.pages[url]; ok {
		return page, nil
	}
	return nil, errs.Transport("fetch page", url, errors.New("404"))
}

func (f *fakeFetcher) set(page int, markup string) {
	f.pages[pageURL(page)] = []byte(markup)
}

func pageURL(page int) string {
	return fmt.Sprintf("%s?page=%d", seed, page)
}

func listing(heading string, active int, thumbs ...string) string {
	var b strings.Builder
	if heading != "" {
		fmt.Fprintf(&b, "<h1>%s</h1>", heading)
	}
	fmt.Fprintf(&b, `<ul class="pagination"><li><a>1</a></li><li class="active"><span>%d</span></li></ul><div>`, active)
	for i, caption := range thumbs {
		fmt.Fprintf(&b, `<div class="thumbnail"><img src="https://files1.comics.org/img/w100/%d-%d.jpg?v=1"><div class="caption">%s</div></div>`, active, i, caption)
	}
	b.WriteString("</div>")
	return b.String()
}

func newCrawler(f PageFetcher, log logger.Logger) *Crawler {
	return New(f, Options{PlaceholderURL: "https://placeholder/nocover.png"}, log)
}

func TestCrawlStopsOnMismatch(t *testing.T) {
	f := newFakeFetcher()
	f.set(1, listing("Collection Details: Bat Stuff", 1,
		"Batman (DC, 1940 series) #1",
		"",
		"Batman (DC, 1940 series) #2",
	))
	f.set(2, listing("Collection Details: Bat Stuff", 2, "Batman (DC, 1940 series) #3"))
	f.set(3, listing("Collection Details: Bat Stuff", 2, "Batman (DC, 1940 series) #3"))

	col := newCrawler(f, logger.NewNopLogger()).Crawl(context.Background(), seed)

	require.NoError(t, col.Err)
	assert.Equal(t, "Bat Stuff", col.Title)
	assert.Equal(t, []catalog.CoverRecord{
		{Filename: "Batman(1940)#1.jpg", SourceURL: "https://files1.comics.org/img/w400/1-0.jpg"},
		{Filename: "Batman(1940)#2.jpg", SourceURL: "https://files1.comics.org/img/w400/1-2.jpg"},
		{Filename: "Batman(1940)#3.jpg", SourceURL: "https://files1.comics.org/img/w400/2-0.jpg"},
	}, col.Records)
	assert.Equal(t, []string{pageURL(1), pageURL(2), pageURL(3)}, f.requests)
}

func TestCrawlTitleOnlyFromFirstPage(t *testing.T) {
	f := newFakeFetcher()
	f.set(1, listing("Collection Details: First", 1, "Batman (1940 series) #1"))
	f.set(2, listing("Nothing like a collection heading", 2, "Batman (1940 series) #2"))
	f.set(3, listing("", 2))

	col := newCrawler(f, logger.NewNopLogger()).Crawl(context.Background(), seed)

	require.NoError(t, col.Err)
	assert.Equal(t, "First", col.Title)
	assert.Len(t, col.Records, 2)
}

func TestCrawlFetchFailureTruncates(t *testing.T) {
	f := newFakeFetcher()
	f.set(1, listing("Collection Details: Partial", 1, "Batman (1940 series) #1"))
	f.failures[pageURL(2)] = errs.Transport("fetch page", pageURL(2), errors.New("connection reset"))

	tl := logger.NewTestLogger()
	col := newCrawler(f, tl).Crawl(context.Background(), seed)

	require.NoError(t, col.Err)
	assert.Equal(t, "Partial", col.Title)
	assert.Len(t, col.Records, 1)
	assert.True(t, tl.HasMessage("Page fetch failed"))
}

func TestCrawlFirstPageFetchFailureLeavesNoTitle(t *testing.T) {
	f := newFakeFetcher()

	col := newCrawler(f, logger.NewNopLogger()).Crawl(context.Background(), seed)

	assert.NoError(t, col.Err)
	assert.Empty(t, col.Title)
	assert.Empty(t, col.Records)
	assert.Len(t, f.requests, 1)
}

func TestCrawlHeadingFailureDiscardsCollection(t *testing.T) {
	tests := []struct {
		name    string
		heading string
		want    error
	}{
		{"missing heading", "", errs.ErrMissingHeading},
		{"malformed heading", "Just Some Page", errs.ErrMalformedHeading},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeFetcher()
			f.set(1, listing(tt.heading, 1, "Batman (1940 series) #1"))

			tl := logger.NewTestLogger()
			col := newCrawler(f, tl).Crawl(context.Background(), seed)

			assert.ErrorIs(t, col.Err, tt.want)
			assert.Empty(t, col.Title)
			assert.Empty(t, col.Records)
			assert.True(t, tl.HasError())
		})
	}
}

func TestCrawlLogsUnparsableCaptions(t *testing.T) {
	f := newFakeFetcher()
	f.set(1, listing("Collection Details: X", 1, "Batman #1", "Batman (1940 series) #2"))

	tl := logger.NewTestLogger()
	col := newCrawler(f, tl).Crawl(context.Background(), seed)

	assert.Len(t, col.Records, 1)
	assert.True(t, tl.HasMessage("Could not parse issue name"))
}

func TestCrawlCancelled(t *testing.T) {
	f := newFakeFetcher()
	f.set(1, listing("Collection Details: X", 1, "Batman (1940 series) #1"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	col := newCrawler(f, logger.NewNopLogger()).Crawl(ctx, seed)
	assert.Empty(t, col.Title)
	assert.Empty(t, f.requests)
}

func TestCrawlInvalidSeed(t *testing.T) {
	col := newCrawler(newFakeFetcher(), logger.NewNopLogger()).Crawl(context.Background(), "://bad")
	assert.Error(t, col.Err)
}
