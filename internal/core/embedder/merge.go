package embedder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/markdave123-py/Docura/internal/core"
)

// ErrEmbeddingMismatch signals a contract violation between prepared texts
// and returned vectors. This is a logic/data bug, not a transient failure;
// it is never silently truncated or zero-padded.
var ErrEmbeddingMismatch = errors.New("Embedding mismatch: fewer embeddings than children")

// PrepareForEmbedding extracts the embeddable text in stable input order:
// children of parent chunks, plus childless chunks themselves. Parent-only
// nodes hold no direct embedding.
func PrepareForEmbedding(chunks []core.DocumentChunk) []string {
	out := make([]string, 0, len(chunks))
	for i := range chunks {
		if len(chunks[i].Children) == 0 {
			out = append(out, sanitize(chunks[i].Content))
			continue
		}
		for j := range chunks[i].Children {
			out = append(out, sanitize(chunks[i].Children[j].Content))
		}
	}
	return out
}

// sanitize strips null bytes and guarantees a non-empty payload; embedding
// APIs reject empty strings.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	if strings.TrimSpace(s) == "" {
		return " "
	}
	return s
}

// MergeWithEmbeddings reassembles chunks with their vectors, consuming
// embeddings strictly in prepare order. Parents receive empty vectors.
// A count mismatch is a hard failure.
func MergeWithEmbeddings(chunks []core.DocumentChunk, embeddings [][]float32) ([]core.VectorizedChunk, error) {
	want := countEmbeddable(chunks)
	if len(embeddings) < want {
		return nil, ErrEmbeddingMismatch
	}
	if len(embeddings) > want {
		return nil, fmt.Errorf("embedding mismatch: %d embeddings for %d embeddable chunks", len(embeddings), want)
	}

	out := make([]core.VectorizedChunk, 0, len(chunks))
	pos := 0
	for i := range chunks {
		vc := vectorize(&chunks[i])
		if len(chunks[i].Children) == 0 {
			vc.Vector = embeddings[pos]
			pos++
		} else {
			vc.Vector = []float32{}
			for j := range chunks[i].Children {
				child := vectorize(&chunks[i].Children[j])
				child.Vector = embeddings[pos]
				pos++
				vc.Children = append(vc.Children, child)
			}
		}
		out = append(out, vc)
	}
	return out, nil
}

func vectorize(c *core.DocumentChunk) core.VectorizedChunk {
	return core.VectorizedChunk{
		ID:       c.ID,
		Content:  c.Content,
		Type:     c.Type,
		Metadata: c.Metadata,
	}
}

func countEmbeddable(chunks []core.DocumentChunk) int {
	n := 0
	for i := range chunks {
		if len(chunks[i].Children) == 0 {
			n++
		} else {
			n += len(chunks[i].Children)
		}
	}
	return n
}
