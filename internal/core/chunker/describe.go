package chunker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/markdave123-py/Docura/internal/core"
)

// Describer produces a short natural-language description of a table,
// attached to its chunk so vector search can find tabular answers.
type Describer interface {
	Describe(ctx context.Context, table core.ExtractedTable) string
}

// HeuristicDescriber classifies a table from its header and cell tokens.
// Fully deterministic; this is the fallback of last resort and must never
// fail.
type HeuristicDescriber struct{}

var _ Describer = HeuristicDescriber{}

// Rule terms, checked in order; first match wins.
var (
	financialTerms = []string{"price", "cost", "amount", "total", "revenue", "budget", "invoice", "payment", "fee", "$"}
	dateTerms      = []string{"date", "year", "month", "quarter", "week", "day", "period"}
	personnelTerms = []string{"name", "employee", "role", "title", "department", "manager", "contact", "email"}
	inventoryTerms = []string{"sku", "item", "product", "quantity", "stock", "inventory", "unit"}
	stepTerms      = []string{"step", "action", "procedure", "instruction", "task"}
)

func (HeuristicDescriber) Describe(_ context.Context, table core.ExtractedTable) string {
	kind := classify(table)
	return fmt.Sprintf("%s (%d rows, %d columns)", kind, table.RowCount, table.ColumnCount)
}

func classify(table core.ExtractedTable) string {
	tokens := headerTokens(table)

	switch {
	case containsAny(tokens, financialTerms):
		return "Table containing financial or pricing data"
	case containsAny(tokens, dateTerms):
		return "Table containing time-series or dated information"
	case containsAny(tokens, personnelTerms):
		return "Table containing personnel or organizational information"
	case containsAny(tokens, inventoryTerms):
		return "Table containing inventory or product listing"
	case containsAny(tokens, stepTerms):
		return "Table containing procedural steps or instructions"
	default:
		return "Table with structured data"
	}
}

// headerTokens lowercases the header row plus the first data row; the
// second row catches headerless tables.
func headerTokens(table core.ExtractedTable) string {
	var b strings.Builder
	for i, row := range table.Rows {
		if i > 1 {
			break
		}
		for _, cell := range row {
			b.WriteString(strings.ToLower(cell))
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// LLMDescriber asks the LLM for a richer description and falls back to the
// heuristic on any failure. The fallback is mandatory: description
// generation is never allowed to surface as a pipeline failure.
type LLMDescriber struct {
	llm      core.LLMProvider
	fallback HeuristicDescriber
	logger   log.Logger
}

var _ Describer = (*LLMDescriber)(nil)

func NewLLMDescriber(llm core.LLMProvider, logger log.Logger) *LLMDescriber {
	return &LLMDescriber{llm: llm, logger: logger}
}

func (d *LLMDescriber) Describe(ctx context.Context, table core.ExtractedTable) string {
	if d.llm == nil {
		return d.fallback.Describe(ctx, table)
	}

	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	out, err := d.llm.Generate(cctx,
		"You summarize tables for search indexing. Reply with one sentence.",
		fmt.Sprintf("Describe what this table contains:\n\n%s", table.Markdown))
	if err != nil || strings.TrimSpace(out) == "" {
		if err != nil {
			d.logger.Warn().Err(err).Msg("table description via LLM failed, using heuristic")
		}
		return d.fallback.Describe(ctx, table)
	}

	// Row/column counts are always appended, whichever path produced the
	// description.
	return fmt.Sprintf("%s (%d rows, %d columns)",
		strings.TrimSpace(out), table.RowCount, table.ColumnCount)
}
