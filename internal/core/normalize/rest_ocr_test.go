package normalize

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Docura/internal/core"
)

func TestRestOCRNormalize(t *testing.T) {
	var gotAuth string
	var gotReq ocrRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := map[string]any{
			"confidence": 91.5,
			"pages": []map[string]any{
				{
					// Out of order on purpose; the normalizer re-sorts.
					"page_number": 2,
					"blocks":      []map[string]string{{"text": "second page"}},
				},
				{
					"page_number": 1,
					"blocks":      []map[string]string{{"text": "first page"}},
					"tables": []map[string]any{
						{"rows": [][]string{{"h1", "h2"}, {"a", "b"}}},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	n := NewRestOCRNormalizer(srv.URL, "secret-key")
	got, err := n.Normalize(context.Background(), core.SourceDocument{
		Data:     []byte("raw-bytes"),
		MimeType: "application/pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("raw-bytes")), gotReq.Document)
	assert.Equal(t, "application/pdf", gotReq.MimeType)

	assert.Equal(t, core.ProviderStandardOCR, got.Provider)
	assert.Equal(t, 91.5, got.ConfidenceScore)
	require.Len(t, got.Pages, 2)
	assert.Equal(t, 1, got.Pages[0].PageNumber)
	assert.Equal(t, []string{"first page"}, got.Pages[0].TextBlocks)
	require.Len(t, got.Pages[0].Tables, 1)
	assert.Equal(t, 2, got.Pages[0].Tables[0].RowCount)
	assert.Contains(t, got.Pages[0].Tables[0].Markdown, "| h1 | h2 |")
	assert.Equal(t, 2, got.Pages[1].PageNumber)
}

func TestRestOCRNormalizeDefaultConfidence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"pages": []any{}})
	}))
	defer srv.Close()

	n := NewRestOCRNormalizer(srv.URL, "")
	got, err := n.Normalize(context.Background(), core.SourceDocument{Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, float64(80), got.ConfidenceScore)
}

func TestRestOCRNormalizeProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte("unsupported mime type"))
	}))
	defer srv.Close()

	n := NewRestOCRNormalizer(srv.URL, "")
	_, err := n.Normalize(context.Background(), core.SourceDocument{Data: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "unsupported mime type")
}

func TestRestOCRNormalizeUnconfigured(t *testing.T) {
	n := NewRestOCRNormalizer("", "")
	_, err := n.Normalize(context.Background(), core.SourceDocument{Data: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint not configured")
}
