package catalog

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	errs "coversync/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

// Markup contract of the catalog site
const (
	activePageSelector = "ul.pagination li.active"
	headingSelector    = "h1"
	thumbnailSelector  = "div .thumbnail"
	captionSelector    = "div .caption"
)

var headingTitle = regexp.MustCompile(`(?s)Collection Details:\s*(.+?)(?:\s*/|$)`)

// ParseOptions carries the site-specific constants the parser needs
type ParseOptions struct {
	// PlaceholderURL replaces covers marked "nocover"
	PlaceholderURL string
	// WantTitle asks the parser to extract the collection title from the heading
	WantTitle bool
}

// ParsePage extracts cover records from one listing page.
// A page whose active pagination indicator differs from requestedPage comes back
// with Mismatch set and no records. Heading failures are only possible when
// opts.WantTitle is set.
func ParsePage(markup []byte, requestedPage int, opts ParseOptions) (PageResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return PageResult{}, fmt.Errorf("failed to parse page markup: %w", err)
	}

	result := PageResult{ReportedPage: activePage(doc)}
	if result.ReportedPage != requestedPage {
		result.Mismatch = true
		return result, nil
	}

	if opts.WantTitle {
		title, err := collectionTitle(doc)
		if err != nil {
			return PageResult{}, err
		}
		result.Title = title
	}

	doc.Find(thumbnailSelector).Each(func(_ int, s *goquery.Selection) {
		rec, caption, ok := coverRecord(s, opts.PlaceholderURL)
		switch {
		case ok:
			result.Records = append(result.Records, rec)
		case caption != "":
			result.Unparsable = append(result.Unparsable, caption)
		}
	})

	return result, nil
}

// activePage returns the number shown on the active pagination item, 1 when the
// listing has no pagination, and -1 when the indicator is not a number.
func activePage(doc *goquery.Document) int {
	active := doc.Find(activePageSelector)
	if active.Length() == 0 {
		return 1
	}
	n, ok := leadingInt(strings.TrimSpace(active.First().Text()))
	if !ok {
		return -1
	}
	return n
}

// leadingInt parses the optional sign and digits at the start of s
func leadingInt(s string) (int, bool) {
	i, neg := 0, false
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		neg = s[i] == '-'
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	n, err := strconv.Atoi(s[start:i])
	if err != nil {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

func collectionTitle(doc *goquery.Document) (string, error) {
	heading := doc.Find(headingSelector)
	if heading.Length() == 0 {
		return "", errs.ErrMissingHeading
	}
	text := strings.TrimSpace(heading.First().Text())

	m := headingTitle.FindStringSubmatch(text)
	if m == nil {
		return "", errs.ErrMalformedHeading.WithTarget(text)
	}
	title := strings.TrimSpace(m[1])
	title = strings.NewReplacer("?", "", ":", "").Replace(title)
	if !safeTitle(title) {
		return "", errs.ErrMalformedHeading.WithTarget(text)
	}
	return title, nil
}

// safeTitle reports whether title can name a directory directly under the
// mirror base: one non-empty path element that is neither "." nor "..".
func safeTitle(title string) bool {
	switch title {
	case "", ".", "..":
		return false
	}
	return !strings.ContainsAny(title, `/\`)
}

// coverRecord builds the record for one thumbnail. Thumbnails without an image,
// without an uploaded cover or without a caption are skipped with ok == false.
// When the caption is present but cannot be normalized it is returned with ok == false.
func coverRecord(thumb *goquery.Selection, placeholderURL string) (rec CoverRecord, caption string, ok bool) {
	src, has := thumb.Find("img").First().Attr("src")
	if !has || src == "" {
		return CoverRecord{}, "", false
	}
	url, has := CoverURL(src, placeholderURL)
	if !has {
		return CoverRecord{}, "", false
	}

	caption = strings.TrimSpace(thumb.Find(captionSelector).Text())
	if caption == "" {
		return CoverRecord{}, "", false
	}
	filename, err := FilenameForCaption(caption)
	if err != nil {
		return CoverRecord{}, caption, false
	}

	return CoverRecord{Filename: filename, SourceURL: url}, caption, true
}

// CoverURL maps a thumbnail src to the full-size cover URL.
// It reports false for thumbnails that have no uploaded cover at all.
func CoverURL(src, placeholderURL string) (string, bool) {
	switch {
	case strings.Contains(src, "noupload"):
		return "", false
	case strings.Contains(src, "nocover"):
		return placeholderURL, true
	}
	if i := strings.IndexByte(src, '?'); i >= 0 {
		src = src[:i]
	}
	return strings.Replace(src, "/w100", "/w400", 1), true
}
