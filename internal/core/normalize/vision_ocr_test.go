package normalize

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Docura/internal/core"
)

type fakeVisionModel struct {
	reply    string
	err      error
	gotMime  string
	gotBytes []byte
}

func (f *fakeVisionModel) GenerateWithData(_ context.Context, _, _ string, mimeType string, data []byte) (string, error) {
	f.gotMime = mimeType
	f.gotBytes = data
	return f.reply, f.err
}

func TestVisionOCRNormalize(t *testing.T) {
	model := &fakeVisionModel{
		reply: `{"pages":[{"page_number":1,"text_blocks":["handwritten note"],"tables":[{"rows":[["a","b"]]}]}]}`,
	}
	n := NewVisionOCRNormalizer(model)

	got, err := n.Normalize(context.Background(), core.SourceDocument{
		Data:     []byte("scan"),
		MimeType: "image/png",
	})
	require.NoError(t, err)

	assert.Equal(t, "image/png", model.gotMime)
	assert.Equal(t, []byte("scan"), model.gotBytes)
	assert.Equal(t, core.ProviderVisionOCR, got.Provider)
	assert.Equal(t, float64(88), got.ConfidenceScore)
	require.Len(t, got.Pages, 1)
	assert.Equal(t, []string{"handwritten note"}, got.Pages[0].TextBlocks)
	require.Len(t, got.Pages[0].Tables, 1)
	assert.Equal(t, 1, got.Pages[0].Tables[0].RowCount)
}

func TestVisionOCRNormalizeFencedReply(t *testing.T) {
	model := &fakeVisionModel{
		reply: "```json\n{\"pages\":[{\"page_number\":1,\"text_blocks\":[\"fenced\"]}]}\n```",
	}
	n := NewVisionOCRNormalizer(model)

	got, err := n.Normalize(context.Background(), core.SourceDocument{Data: []byte("scan")})
	require.NoError(t, err)
	require.Len(t, got.Pages, 1)
	assert.Equal(t, []string{"fenced"}, got.Pages[0].TextBlocks)
}

func TestVisionOCRNormalizeDefaultsMimeAndPageNumbers(t *testing.T) {
	model := &fakeVisionModel{
		reply: `{"pages":[{"text_blocks":["a"]},{"text_blocks":["b"]}]}`,
	}
	n := NewVisionOCRNormalizer(model)

	got, err := n.Normalize(context.Background(), core.SourceDocument{Data: []byte("scan")})
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", model.gotMime)
	require.Len(t, got.Pages, 2)
	assert.Equal(t, 1, got.Pages[0].PageNumber)
	assert.Equal(t, 2, got.Pages[1].PageNumber)
}

func TestVisionOCRNormalizeModelError(t *testing.T) {
	n := NewVisionOCRNormalizer(&fakeVisionModel{err: errors.New("model overloaded")})
	_, err := n.Normalize(context.Background(), core.SourceDocument{Data: []byte("scan")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestVisionOCRNormalizeMalformedReply(t *testing.T) {
	n := NewVisionOCRNormalizer(&fakeVisionModel{reply: "not json at all"})
	_, err := n.Normalize(context.Background(), core.SourceDocument{Data: []byte("scan")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed response")
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(`{"a":1}`))
}
