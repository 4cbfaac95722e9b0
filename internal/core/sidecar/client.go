package sidecar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/markdave123-py/Docura/internal/core"
)

// Client talks to the optional local-ML sidecar, which offers a cheaper
// embedding path and named-entity extraction for graph enrichment.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
}

// Configured reports whether a sidecar URL was provided at all.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// Healthy probes GET /health with a short deadline.
func (c *Client) Healthy(ctx context.Context) bool {
	if !c.Configured() {
		return false
	}
	hctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(hctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Dimension  int         `json:"dimension"`
	Count      int         `json:"count"`
}

// EmbedTexts implements core.EmbeddingProvider against POST /embed.
// The dim argument is ignored; the sidecar's model fixes the dimension.
func (c *Client) EmbedTexts(ctx context.Context, texts []string, _ int) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var out embedResponse
	if err := c.post(ctx, "/embed", embedRequest{Texts: texts}, &out); err != nil {
		return nil, fmt.Errorf("sidecar embed: %w", err)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("sidecar embed: got %d embeddings for %d texts", len(out.Embeddings), len(texts))
	}
	return out.Embeddings, nil
}

var _ core.EmbeddingProvider = (*Client)(nil)

// Entity is one named entity found in a chunk.
type Entity struct {
	Text  string  `json:"text"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ChunkEntities pairs a chunk's text with its extracted entities.
type ChunkEntities struct {
	Text     string   `json:"text"`
	Entities []Entity `json:"entities"`
}

type extractRequest struct {
	Chunks []string `json:"chunks"`
}

type extractResponse struct {
	Results       []ChunkEntities `json:"results"`
	TotalEntities int             `json:"total_entities"`
}

// ExtractEntities calls POST /extract-entities. Results are index-aligned
// with the input chunks.
func (c *Client) ExtractEntities(ctx context.Context, chunks []string) ([]ChunkEntities, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	var out extractResponse
	if err := c.post(ctx, "/extract-entities", extractRequest{Chunks: chunks}, &out); err != nil {
		return nil, fmt.Errorf("sidecar entities: %w", err)
	}
	return out.Results, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sidecar returned %d: %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}
