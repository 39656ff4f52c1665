package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// issueOffset keeps negative issue numbers ordered when zero-padded
const issueOffset = 100000

// CoverSortKey derives the ordering key of a cover filename such as
// "Batman(1940)#27.jpg": series, then start year, then the issue number
// zero-padded so that #9 sorts before #10. Missing markers are treated as
// index 0 and a name without "#" has no issue, so malformed names still
// order deterministically.
func CoverSortKey(filename string) string {
	open := markerIndex(strings.Index(filename, "("))
	closing := markerIndex(strings.Index(filename, ")"))
	hash := strings.Index(filename, "#")
	dot := strings.LastIndex(filename, ".")
	if dot < 0 {
		dot = len(filename)
	}

	series := filename[:open]
	year := substring(filename, open+1, closing)
	issue := ""
	if hash >= 0 {
		issue = substring(filename, hash+1, dot)
	}

	return series + "\x00" + year + "\x00" + paddedIssue(issue)
}

// SortCovers sorts filenames in place by CoverSortKey, falling back to the name itself
func SortCovers(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		ki, kj := CoverSortKey(names[i]), CoverSortKey(names[j])
		if ki != kj {
			return ki < kj
		}
		return names[i] < names[j]
	})
}

func markerIndex(i int) int {
	if i < 0 {
		return 0
	}
	return i
}

func substring(s string, from, to int) string {
	if from > len(s) {
		from = len(s)
	}
	if to < from {
		return ""
	}
	return s[from:to]
}

// paddedIssue pads the leading number of an issue token to a fixed width.
// Any text after the number, as in "1-2", is kept so distinct issues never share a key.
func paddedIssue(issue string) string {
	end := 0
	if end < len(issue) && issue[end] == '-' {
		end++
	}
	digits := end
	for end < len(issue) && issue[end] >= '0' && issue[end] <= '9' {
		end++
	}
	if end == digits {
		return issue
	}
	n, err := strconv.Atoi(issue[:end])
	if err != nil || n <= -issueOffset || n >= 900000 {
		return issue
	}
	return fmt.Sprintf("%06d", issueOffset+n) + issue[end:]
}
