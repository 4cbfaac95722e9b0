package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableFromRows(t *testing.T) {
	rows := [][]string{
		{"Name", "Role"},
		{"Ada", "Engineer"},
		{"Grace", "Admiral"},
	}

	got := TableFromRows(rows)
	assert.Equal(t, 3, got.RowCount)
	assert.Equal(t, 2, got.ColumnCount)
	assert.Equal(t,
		"| Name | Role |\n| --- | --- |\n| Ada | Engineer |\n| Grace | Admiral |",
		got.Markdown)
}

func TestTableFromRowsEmpty(t *testing.T) {
	got := TableFromRows(nil)
	assert.Equal(t, 0, got.RowCount)
	assert.Equal(t, 0, got.ColumnCount)
	assert.Equal(t, "", got.Markdown)
}

func TestTableFromRowsSingleRow(t *testing.T) {
	got := TableFromRows([][]string{{"only", "header"}})
	assert.Equal(t, 1, got.RowCount)
	assert.Equal(t, "| only | header |\n| --- | --- |", got.Markdown)
}
