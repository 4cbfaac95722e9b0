package chunker

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"

	"github.com/markdave123-py/Docura/internal/core"
)

func tableWithHeader(header ...string) core.ExtractedTable {
	return core.ExtractedTable{
		Rows:        [][]string{header, {"a", "b"}},
		RowCount:    2,
		ColumnCount: len(header),
	}
}

func TestHeuristicDescriberClassification(t *testing.T) {
	tests := []struct {
		name   string
		table  core.ExtractedTable
		expect string
	}{
		{"financial header", tableWithHeader("Item", "Price"), "Table containing financial or pricing data"},
		{"date header", tableWithHeader("Quarter", "Result"), "Table containing time-series or dated information"},
		{"personnel header", tableWithHeader("Employee", "Department"), "Table containing personnel or organizational information"},
		{"inventory header", tableWithHeader("SKU", "Stock"), "Table containing inventory or product listing"},
		{"procedural header", tableWithHeader("Step", "Instruction"), "Table containing procedural steps or instructions"},
		{"generic header", tableWithHeader("Foo", "Bar"), "Table with structured data"},
	}

	d := HeuristicDescriber{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Describe(context.Background(), tt.table)
			assert.Contains(t, got, tt.expect)
			assert.Contains(t, got, "(2 rows, 2 columns)")
		})
	}
}

func TestHeuristicDescriberFirstMatchWins(t *testing.T) {
	// Both financial and date terms present; financial is checked first.
	table := tableWithHeader("Date", "Price")
	got := HeuristicDescriber{}.Describe(context.Background(), table)
	assert.Contains(t, got, "financial or pricing data")
}

func TestHeuristicDescriberSecondRowCatchesHeaderless(t *testing.T) {
	table := core.ExtractedTable{
		Rows:        [][]string{{"x", "y"}, {"invoice 42", "$100"}, {"ignored quantity", "z"}},
		RowCount:    3,
		ColumnCount: 2,
	}
	got := HeuristicDescriber{}.Describe(context.Background(), table)
	// Row three is beyond the classification window.
	assert.Contains(t, got, "financial or pricing data")
}

type stubLLM struct {
	out string
	err error
}

func (s stubLLM) Generate(context.Context, string, string) (string, error) {
	return s.out, s.err
}

func testLogger() log.Logger {
	return log.Logger{Level: log.ErrorLevel, Writer: log.IOWriter{Writer: io.Discard}}
}

func TestLLMDescriberAppendsCounts(t *testing.T) {
	d := NewLLMDescriber(stubLLM{out: " A summary of sales figures. "}, testLogger())
	got := d.Describe(context.Background(), tableWithHeader("Foo", "Bar"))
	assert.Equal(t, "A summary of sales figures. (2 rows, 2 columns)", got)
}

func TestLLMDescriberFallsBackOnError(t *testing.T) {
	d := NewLLMDescriber(stubLLM{err: errors.New("quota exceeded")}, testLogger())
	got := d.Describe(context.Background(), tableWithHeader("Price", "Total"))
	assert.Contains(t, got, "financial or pricing data")
	assert.Contains(t, got, "(2 rows, 2 columns)")
}

func TestLLMDescriberFallsBackOnEmptyOutput(t *testing.T) {
	d := NewLLMDescriber(stubLLM{out: "   "}, testLogger())
	got := d.Describe(context.Background(), tableWithHeader("Foo", "Bar"))
	assert.Contains(t, got, "Table with structured data")
}

func TestLLMDescriberNilProviderUsesHeuristic(t *testing.T) {
	d := NewLLMDescriber(nil, testLogger())
	got := d.Describe(context.Background(), tableWithHeader("Step", "Action"))
	assert.Contains(t, got, "procedural steps")
}
