package catalog

import (
	"regexp"
	"strings"
	"unicode"

	errs "coversync/pkg/errors"
)

var (
	// "Detective Comics (DC, 1937 series) #27"
	issueCaption = regexp.MustCompile(`^(.*\S)\s+\((?:.*\s)?([0-9]+) series\)\s+#([-0-9]+)`)
	// "Detective Comics Annual (DC, 1988 series)"
	seriesCaption = regexp.MustCompile(`^(.*\S)\s+\((?:.*\s)?([0-9]+) series\)`)
)

// forbiddenChars are dropped from filename stems
const forbiddenChars = `?:/'";&*$^{}[]|\<>`

// NormalizeCaption turns a thumbnail caption into a filename stem such as "Batman(1940)#-1".
// It returns ErrUnparsableCaption when the caption names no series year.
func NormalizeCaption(caption string) (string, error) {
	var stem string
	if m := issueCaption.FindStringSubmatch(caption); m != nil {
		stem = m[1] + "(" + m[2] + ")#" + m[3]
	} else if m := seriesCaption.FindStringSubmatch(caption); m != nil {
		stem = m[1] + "(" + m[2] + ")"
	} else {
		return "", errs.ErrUnparsableCaption.WithTarget(caption)
	}
	return CleanStem(stem), nil
}

// CleanStem strips whitespace, forbidden characters and every "The".
// The removal runs to a fixed point so CleanStem(CleanStem(s)) == CleanStem(s).
func CleanStem(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || strings.ContainsRune(forbiddenChars, r) {
			return -1
		}
		return r
	}, s)
	for strings.Contains(s, "The") {
		s = strings.ReplaceAll(s, "The", "")
	}
	return s
}

// FilenameForCaption returns the full cover filename for a caption
func FilenameForCaption(caption string) (string, error) {
	stem, err := NormalizeCaption(caption)
	if err != nil {
		return "", err
	}
	return stem + CoverExtension, nil
}
