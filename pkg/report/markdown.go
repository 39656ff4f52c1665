package report

import (
	"io"
	"strconv"

	"coversync/pkg/catalog"

	"github.com/nao1215/markdown"
)

// WriteMarkdown renders the same change lists as PrintText as a Markdown
// document, with a summary table of every collection and a section per
// collection that changed or failed.
func WriteMarkdown(w io.Writer, cols []*catalog.Collection) error {
	md := markdown.NewMarkdown(w)

	md.H1("Cover Mirror Sync")
	md.PlainText("")

	writeSummary(md, cols)

	for _, col := range cols {
		if col == nil {
			continue
		}
		writeCollection(md, col)
	}

	return md.Build()
}

func writeSummary(md *markdown.Markdown, cols []*catalog.Collection) {
	rows := make([][]string, 0, len(cols))
	for _, col := range cols {
		if col == nil {
			continue
		}
		rows = append(rows, []string{
			collectionName(col),
			strconv.Itoa(len(col.Added)),
			strconv.Itoa(len(col.Removed)),
			strconv.Itoa(len(col.EmptyRemoved)),
			strconv.Itoa(len(col.Failures)),
			status(col),
		})
	}

	md.H2("Summary")
	md.PlainText("")
	if len(rows) == 0 {
		md.PlainText("No collections were synced.")
		md.PlainText("")
		return
	}
	md.Table(markdown.TableSet{
		Header: []string{"Collection", "Added", "Removed", "Removed zero-length", "Failures", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writeCollection(md *markdown.Markdown, col *catalog.Collection) {
	if !col.HasChanges() && col.Err == nil && len(col.Failures) == 0 {
		return
	}

	md.H2(collectionName(col))
	md.PlainText("")

	if col.Err != nil {
		md.Warningf("Collection skipped: %v", col.Err)
		md.PlainText("")
		return
	}

	for _, s := range sections(col) {
		if len(s.names) == 0 {
			continue
		}
		md.H3(s.label)
		md.PlainText("")
		md.BulletList(s.names...)
		md.PlainText("")
	}

	if len(col.Failures) > 0 {
		rows := make([][]string, 0, len(col.Failures))
		for _, f := range col.Failures {
			rows = append(rows, []string{f.Filename, f.Err.Error()})
		}
		md.H3("failures")
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"File", "Error"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

func collectionName(col *catalog.Collection) string {
	if col.Title != "" {
		return col.Title
	}
	return col.SourceURL
}

func status(col *catalog.Collection) string {
	switch {
	case col.Err != nil:
		return "skipped"
	case len(col.Failures) > 0:
		return "partial"
	case col.HasChanges():
		return "updated"
	default:
		return "unchanged"
	}
}
