package normalize

import (
	"strings"

	"github.com/markdave123-py/Docura/internal/core"
)

// TableFromRows builds an ExtractedTable from raw rows, filling in the
// markdown rendering and the row/column counts.
func TableFromRows(rows [][]string) core.ExtractedTable {
	t := core.ExtractedTable{Rows: rows, RowCount: len(rows)}
	if len(rows) > 0 {
		t.ColumnCount = len(rows[0])
	}
	t.Markdown = renderMarkdown(rows)
	return t
}

func renderMarkdown(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	var b strings.Builder
	for i, row := range rows {
		b.WriteString("| ")
		b.WriteString(strings.Join(row, " | "))
		b.WriteString(" |\n")
		if i == 0 {
			b.WriteString("|")
			b.WriteString(strings.Repeat(" --- |", len(row)))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
