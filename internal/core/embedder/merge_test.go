package embedder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Docura/internal/core"
)

func textChunk(id, content string, index int) core.DocumentChunk {
	return core.DocumentChunk{
		ID:      id,
		Content: content,
		Type:    core.ChunkText,
		Metadata: core.ChunkMetadata{
			PageNumber: 1,
			ChunkIndex: index,
		},
	}
}

func TestPrepareForEmbedding(t *testing.T) {
	parent := textChunk("chunk-0000", "parent window", 0)
	parent.Children = []core.DocumentChunk{
		textChunk("chunk-0001", "first child", 1),
		textChunk("chunk-0002", "second child", 2),
	}
	leaf := textChunk("chunk-0003", "standalone", 3)

	texts := PrepareForEmbedding([]core.DocumentChunk{parent, leaf})
	assert.Equal(t, []string{"first child", "second child", "standalone"}, texts)
}

func TestPrepareForEmbeddingSanitizes(t *testing.T) {
	chunks := []core.DocumentChunk{
		textChunk("chunk-0000", "with\x00null", 0),
		textChunk("chunk-0001", "   ", 1),
	}
	texts := PrepareForEmbedding(chunks)
	assert.Equal(t, []string{"withnull", " "}, texts)
}

func TestMergeWithEmbeddingsRoundTrip(t *testing.T) {
	parent := textChunk("chunk-0000", "parent window", 0)
	parent.Children = []core.DocumentChunk{
		textChunk("chunk-0001", "first child", 1),
		textChunk("chunk-0002", "second child", 2),
	}
	leaf := textChunk("chunk-0003", "standalone", 3)
	chunks := []core.DocumentChunk{parent, leaf}

	embeddings := [][]float32{{0.1}, {0.2}, {0.3}}
	got, err := MergeWithEmbeddings(chunks, embeddings)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Parents carry an empty, non-nil vector.
	assert.NotNil(t, got[0].Vector)
	assert.Empty(t, got[0].Vector)
	require.Len(t, got[0].Children, 2)
	assert.Equal(t, []float32{0.1}, got[0].Children[0].Vector)
	assert.Equal(t, []float32{0.2}, got[0].Children[1].Vector)
	assert.Equal(t, []float32{0.3}, got[1].Vector)

	// Content and metadata survive unchanged.
	assert.Equal(t, "first child", got[0].Children[0].Content)
	assert.Equal(t, 1, got[0].Children[0].Metadata.ChunkIndex)
	assert.Equal(t, "standalone", got[1].Content)
	assert.Equal(t, core.ChunkText, got[1].Type)
}

func TestMergeWithEmbeddingsTooFew(t *testing.T) {
	parent := textChunk("chunk-0000", "parent", 0)
	parent.Children = []core.DocumentChunk{
		textChunk("chunk-0001", "first", 1),
		textChunk("chunk-0002", "second", 2),
	}

	_, err := MergeWithEmbeddings([]core.DocumentChunk{parent}, [][]float32{{0.1}})
	require.ErrorIs(t, err, ErrEmbeddingMismatch)
	assert.EqualError(t, err, "Embedding mismatch: fewer embeddings than children")
}

func TestMergeWithEmbeddingsTooMany(t *testing.T) {
	leaf := textChunk("chunk-0000", "only", 0)
	_, err := MergeWithEmbeddings([]core.DocumentChunk{leaf}, [][]float32{{0.1}, {0.2}})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmbeddingMismatch)
}

func TestMergeWithEmbeddingsEmpty(t *testing.T) {
	got, err := MergeWithEmbeddings(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
