package report

import (
	"fmt"
	"io"

	"coversync/pkg/catalog"
)

// Section labels, in print order
const (
	LabelAdded        = "added"
	LabelRemoved      = "removed"
	LabelEmptyRemoved = "removed zero-length"
)

type section struct {
	label string
	names []string
}

func sections(col *catalog.Collection) []section {
	return []section{
		{LabelAdded, sortedCopy(col.Added)},
		{LabelRemoved, sortedCopy(col.Removed)},
		{LabelEmptyRemoved, sortedCopy(col.EmptyRemoved)},
	}
}

func sortedCopy(names []string) []string {
	out := append([]string(nil), names...)
	SortCovers(out)
	return out
}

// PrintText writes the change lists of every collection that changed:
//
//	Bat Stuff added:
//	Batman(1940)#9.jpg
//	Batman(1940)#10.jpg
//
// Each non-empty list gets its own label line and every collection that printed
// anything is followed by a blank line. Collections keep the order given.
func PrintText(w io.Writer, cols []*catalog.Collection) error {
	for _, col := range cols {
		if col == nil || !col.HasChanges() {
			continue
		}
		for _, s := range sections(col) {
			if len(s.names) == 0 {
				continue
			}
			if _, err := fmt.Fprintf(w, "%s %s:\n", col.Title, s.label); err != nil {
				return err
			}
			for _, name := range s.names {
				if _, err := fmt.Fprintln(w, name); err != nil {
					return err
				}
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
