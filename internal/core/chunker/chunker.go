package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/markdave123-py/Docura/internal/core"
)

// Chunking defaults. Parent windows hold ~1000 tokens; the children actually
// embedded hold ~256 with ~50 tokens of overlap bleeding between neighbors.
const (
	DefaultParentMaxTokens = 1000
	DefaultChildMaxTokens  = 256
	DefaultOverlapTokens   = 50
	DefaultCharsPerToken   = 4
)

// Config tunes the chunking budgets.
type Config struct {
	ParentMaxTokens int
	ChildMaxTokens  int
	OverlapTokens   int
	CharsPerToken   int
}

func DefaultConfig() Config {
	return Config{
		ParentMaxTokens: DefaultParentMaxTokens,
		ChildMaxTokens:  DefaultChildMaxTokens,
		OverlapTokens:   DefaultOverlapTokens,
		CharsPerToken:   DefaultCharsPerToken,
	}
}

func (c Config) withDefaults() Config {
	if c.ParentMaxTokens <= 0 {
		c.ParentMaxTokens = DefaultParentMaxTokens
	}
	if c.ChildMaxTokens <= 0 {
		c.ChildMaxTokens = DefaultChildMaxTokens
	}
	if c.OverlapTokens < 0 {
		c.OverlapTokens = DefaultOverlapTokens
	}
	if c.CharsPerToken <= 0 {
		c.CharsPerToken = DefaultCharsPerToken
	}
	return c
}

// Chunker splits normalized pages into token-budgeted chunks. It never
// fails for structurally valid pages; description generation degrades to the
// heuristic, never aborts.
type Chunker struct {
	cfg       Config
	describer Describer
}

func New(cfg Config, describer Describer) *Chunker {
	if describer == nil {
		describer = HeuristicDescriber{}
	}
	return &Chunker{cfg: cfg.withDefaults(), describer: describer}
}

// ChunkPages walks pages in order and emits chunks with a single global
// chunk index threaded through: page order, text chunks before table chunks
// within a page, contiguous from 0. The counter is explicit state, not a
// package global, so the chunker stays pure and testable.
func (c *Chunker) ChunkPages(ctx context.Context, pages []core.PageContent) []core.DocumentChunk {
	var (
		out  []core.DocumentChunk
		next int // global chunk index
	)

	for _, page := range pages {
		var pageChunks []core.DocumentChunk

		pageChunks, next = c.chunkText(page, next)

		for ti, table := range page.Tables {
			var tc core.DocumentChunk
			tc, next = c.tableChunk(ctx, page.PageNumber, ti, table, next)
			pageChunks = append(pageChunks, tc)
		}

		total := countChunks(pageChunks)
		for i := range pageChunks {
			setTotal(&pageChunks[i], total)
		}
		out = append(out, pageChunks...)
	}

	if out == nil {
		return []core.DocumentChunk{}
	}
	return out
}

// chunkText turns a page's text blocks into chunks. Small pages become one
// chunk; oversized text is split into parent windows whose children carry
// the embeddings.
func (c *Chunker) chunkText(page core.PageContent, next int) ([]core.DocumentChunk, int) {
	text := joinBlocks(page.TextBlocks)
	if text == "" {
		return nil, next
	}

	childBudget := c.cfg.ChildMaxTokens * c.cfg.CharsPerToken
	parentBudget := c.cfg.ParentMaxTokens * c.cfg.CharsPerToken

	if EstimateTokens(text, c.cfg.CharsPerToken) <= c.cfg.ChildMaxTokens {
		chunk := c.newChunk(text, core.ChunkText, page.PageNumber, next)
		return []core.DocumentChunk{chunk}, next + 1
	}

	var out []core.DocumentChunk
	for _, window := range splitAtBoundaries(text, parentBudget) {
		parent := c.newChunk(window, core.ChunkText, page.PageNumber, next)
		next++

		for _, piece := range c.overlappingPieces(window, childBudget) {
			child := c.newChunk(piece, core.ChunkText, page.PageNumber, next)
			next++
			parent.Children = append(parent.Children, child)
		}
		out = append(out, parent)
	}
	return out, next
}

// overlappingPieces splits a parent window into child slices, carrying the
// tail of each child into the head of the next for retrieval context.
func (c *Chunker) overlappingPieces(text string, childBudget int) []string {
	pieces := splitAtBoundaries(text, childBudget)
	if len(pieces) <= 1 {
		return pieces
	}

	overlap := c.cfg.OverlapTokens * c.cfg.CharsPerToken
	out := make([]string, 0, len(pieces))
	for i, p := range pieces {
		if i > 0 && overlap > 0 {
			prev := pieces[i-1]
			tail := prev
			if len(prev) > overlap {
				tail = prev[len(prev)-overlap:]
			}
			p = tail + p
		}
		out = append(out, p)
	}
	return out
}

func (c *Chunker) tableChunk(ctx context.Context, pageNumber, tableIndex int, table core.ExtractedTable, next int) (core.DocumentChunk, int) {
	desc := c.describer.Describe(ctx, table)

	content := fmt.Sprintf("Table from Page %d", pageNumber)
	if table.Markdown != "" {
		content += "\n\n" + table.Markdown
	}

	chunk := core.DocumentChunk{
		ID:      chunkID(next),
		Content: content,
		Type:    core.ChunkTable,
		Metadata: core.ChunkMetadata{
			PageNumber:       pageNumber,
			ChunkIndex:       next,
			IsTable:          true,
			TableIndex:       tableIndex,
			TableDescription: desc,
		},
	}
	return chunk, next + 1
}

func (c *Chunker) newChunk(content string, typ core.ChunkType, pageNumber, index int) core.DocumentChunk {
	return core.DocumentChunk{
		ID:      chunkID(index),
		Content: content,
		Type:    typ,
		Metadata: core.ChunkMetadata{
			PageNumber: pageNumber,
			ChunkIndex: index,
		},
	}
}

func chunkID(index int) string {
	return fmt.Sprintf("chunk-%04d", index)
}

// joinBlocks concatenates non-empty text blocks with paragraph breaks.
// Whitespace-only blocks never become standalone chunks.
func joinBlocks(blocks []string) string {
	var kept []string
	for _, b := range blocks {
		if t := strings.TrimSpace(b); t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, "\n\n")
}

// splitAtBoundaries cuts text into pieces no longer than budget characters,
// preferring paragraph breaks, then sentence ends, before hard cuts.
func splitAtBoundaries(text string, budget int) []string {
	if budget <= 0 || len(text) <= budget {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	var out []string
	rest := text
	for len(rest) > budget {
		cut := boundaryBefore(rest, budget)
		piece := strings.TrimSpace(rest[:cut])
		if piece != "" {
			out = append(out, piece)
		}
		rest = strings.TrimLeft(rest[cut:], " \n\t")
	}
	if piece := strings.TrimSpace(rest); piece != "" {
		out = append(out, piece)
	}
	return out
}

// boundaryBefore finds the best cut point at or before limit: last paragraph
// break, else last sentence end (., ! or ? followed by whitespace), else a
// hard cut at the limit.
func boundaryBefore(text string, limit int) int {
	window := text[:limit]

	if i := strings.LastIndex(window, "\n\n"); i > 0 {
		return i + 2
	}

	for i := limit - 1; i > 0; i-- {
		ch := window[i-1]
		if (ch == '.' || ch == '!' || ch == '?') && isSpace(window[i]) {
			return i + 1
		}
	}
	return limit
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}

func countChunks(chunks []core.DocumentChunk) int {
	n := 0
	for i := range chunks {
		n += 1 + len(chunks[i].Children)
	}
	return n
}

func setTotal(chunk *core.DocumentChunk, total int) {
	chunk.Metadata.TotalChunksInPage = total
	for i := range chunk.Children {
		chunk.Children[i].Metadata.TotalChunksInPage = total
	}
}
