package catalog

import (
	"fmt"
	"strings"
	"testing"

	errs "coversync/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const placeholder = "https://files1.comics.org/static/img/nocover_large.png"

type thumb struct {
	src     string
	caption string
}

// listingPage renders a page in the catalog's markup
func listingPage(heading string, active int, thumbs ...thumb) []byte {
	var b strings.Builder
	b.WriteString("<html><body>")
	if heading != "" {
		fmt.Fprintf(&b, "<h1>%s</h1>", heading)
	}
	if active > 0 {
		b.WriteString(`<ul class="pagination">`)
		for i := 1; i <= active+1; i++ {
			if i == active {
				fmt.Fprintf(&b, `<li class="active"><span>%d</span></li>`, i)
			} else {
				fmt.Fprintf(&b, `<li><a href="?page=%d">%d</a></li>`, i, i)
			}
		}
		b.WriteString("</ul>")
	}
	b.WriteString(`<div class="row">`)
	for _, th := range thumbs {
		b.WriteString(`<div class="thumbnail">`)
		if th.src != "" {
			fmt.Fprintf(&b, `<a href="/issue/1/"><img src="%s"></a>`, th.src)
		}
		fmt.Fprintf(&b, `<div class="caption"><a href="/issue/1/">%s</a></div>`, th.caption)
		b.WriteString("</div>")
	}
	b.WriteString("</div></body></html>")
	return []byte(b.String())
}

func TestParsePageExtractsRecords(t *testing.T) {
	page := listingPage("Collection Details: My Batman Run / owned by bruce", 1,
		thumb{"https://files1.comics.org//img/gcd/covers_by_id/1/w100/100.jpg?1234", "Batman (DC, 1940 series) #1"},
		thumb{"https://files1.comics.org/static/img/nocover_small.png?x=1&y=2", "Batman (DC, 1940 series) #2"},
		thumb{"https://files1.comics.org/static/img/noupload.png", "Batman (DC, 1940 series) #3"},
		thumb{"https://files1.comics.org//img/gcd/covers_by_id/4/w100/400.jpg", ""},
		thumb{"https://files1.comics.org//img/gcd/covers_by_id/5/w100/500.jpg", "Batman #5"},
		thumb{"", "Batman (DC, 1940 series) #6"},
	)

	result, err := ParsePage(page, 1, ParseOptions{PlaceholderURL: placeholder, WantTitle: true})
	require.NoError(t, err)

	assert.False(t, result.Mismatch)
	assert.Equal(t, 1, result.ReportedPage)
	assert.Equal(t, "My Batman Run", result.Title)
	assert.Equal(t, []CoverRecord{
		{Filename: "Batman(1940)#1.jpg", SourceURL: "https://files1.comics.org//img/gcd/covers_by_id/1/w400/100.jpg"},
		{Filename: "Batman(1940)#2.jpg", SourceURL: placeholder},
	}, result.Records)
	assert.Equal(t, []string{"Batman #5"}, result.Unparsable)
}

func TestParsePageMismatch(t *testing.T) {
	page := listingPage("Collection Details: Anything", 2, thumb{"https://x/w100/1.jpg", "Batman (1940 series) #1"})

	result, err := ParsePage(page, 3, ParseOptions{PlaceholderURL: placeholder, WantTitle: true})
	require.NoError(t, err)
	assert.True(t, result.Mismatch)
	assert.Equal(t, 2, result.ReportedPage)
	assert.Empty(t, result.Records)
}

func TestParsePageWithoutPaginationIsPageOne(t *testing.T) {
	page := listingPage("Collection Details: Single", 0, thumb{"https://x/w100/1.jpg", "Batman (1940 series) #1"})

	first, err := ParsePage(page, 1, ParseOptions{PlaceholderURL: placeholder, WantTitle: true})
	require.NoError(t, err)
	assert.False(t, first.Mismatch)
	assert.Len(t, first.Records, 1)

	second, err := ParsePage(page, 2, ParseOptions{PlaceholderURL: placeholder})
	require.NoError(t, err)
	assert.True(t, second.Mismatch)
}

func TestParsePageHeadingErrors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := ParsePage(listingPage("", 1), 1, ParseOptions{WantTitle: true})
		assert.ErrorIs(t, err, errs.ErrMissingHeading)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParsePage(listingPage("My Collection", 1), 1, ParseOptions{WantTitle: true})
		assert.ErrorIs(t, err, errs.ErrMalformedHeading)
	})

	t.Run("not a single path element", func(t *testing.T) {
		for _, heading := range []string{
			"Collection Details: ..",
			"Collection Details: . / public",
			"Collection Details: .?.",
			`Collection Details: ..\..\home`,
			"Collection Details: ?:",
		} {
			_, err := ParsePage(listingPage(heading, 1), 1, ParseOptions{WantTitle: true})
			assert.ErrorIs(t, err, errs.ErrMalformedHeading, "heading %q", heading)
			assert.True(t, errs.IsCollectionFatal(err), "heading %q", heading)
		}
	})

	t.Run("not needed after first page", func(t *testing.T) {
		result, err := ParsePage(listingPage("", 2, thumb{"https://x/w100/1.jpg", "Batman (1940 series) #1"}), 2, ParseOptions{})
		require.NoError(t, err)
		assert.Len(t, result.Records, 1)
	})

	t.Run("mismatch wins over heading", func(t *testing.T) {
		result, err := ParsePage(listingPage("", 1), 2, ParseOptions{WantTitle: true})
		require.NoError(t, err)
		assert.True(t, result.Mismatch)
	})
}

func TestParsePageTitleCleanup(t *testing.T) {
	tests := []struct {
		heading string
		want    string
	}{
		{"Collection Details: What If?: Classic", "What If Classic"},
		{"Collection Details:   Spaced Out   ", "Spaced Out"},
		{"Collection Details: Runs / Public", "Runs"},
		{"Collection Details: ...and Robin", "...and Robin"},
		{"Collection Details:\n  Multi\n  Line", "Multi\n  Line"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			result, err := ParsePage(listingPage(tt.heading, 1), 1, ParseOptions{WantTitle: true})
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Title)
		})
	}
}

func TestActivePageNotNumeric(t *testing.T) {
	page := []byte(`<ul class="pagination"><li class="active">next</li></ul>`)
	result, err := ParsePage(page, 1, ParseOptions{})
	require.NoError(t, err)
	assert.True(t, result.Mismatch)
	assert.Equal(t, -1, result.ReportedPage)
}

func TestActivePageOverflow(t *testing.T) {
	page := []byte(`<ul class="pagination"><li class="active">99999999999999999999999</li></ul>`)
	result, err := ParsePage(page, 1, ParseOptions{})
	require.NoError(t, err)
	assert.True(t, result.Mismatch)
	assert.Equal(t, -1, result.ReportedPage)
}

func TestCoverURL(t *testing.T) {
	tests := []struct {
		src  string
		want string
		ok   bool
	}{
		{"https://c/img/w100/1.jpg?123", "https://c/img/w400/1.jpg", true},
		{"https://c/img/w100/1.jpg", "https://c/img/w400/1.jpg", true},
		{"https://c/img/w200/1.jpg?a", "https://c/img/w200/1.jpg", true},
		{"https://c/static/nocover_small.png", placeholder, true},
		{"https://c/static/nocover.png?w100=1&size=huge", placeholder, true},
		{"https://c/static/noupload.png", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, ok := CoverURL(tt.src, placeholder)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPageURL(t *testing.T) {
	got, err := PageURL("https://www.comics.org/collection/42/", "page", 3)
	require.NoError(t, err)
	assert.Equal(t, "https://www.comics.org/collection/42/?page=3", got)

	got, err = PageURL("https://www.comics.org/collection/42/?sort=date&page=9", "page", 1)
	require.NoError(t, err)
	assert.Equal(t, "https://www.comics.org/collection/42/?page=1&sort=date", got)

	_, err = PageURL("://bad", "page", 1)
	assert.Error(t, err)
}
