package normalize

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/markdave123-py/Docura/internal/core"
)

// RestOCRNormalizer is the default-tier OCR backend: a plain JSON-over-HTTP
// OCR service that accepts document bytes and returns per-page text blocks
// and tables.
type RestOCRNormalizer struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

var _ core.DocumentNormalizer = (*RestOCRNormalizer)(nil)

func NewRestOCRNormalizer(endpoint, apiKey string) *RestOCRNormalizer {
	return &RestOCRNormalizer{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 3 * time.Minute},
	}
}

func (n *RestOCRNormalizer) Provider() core.Provider {
	return core.ProviderStandardOCR
}

type ocrRequest struct {
	Document string `json:"document"` // base64 bytes
	MimeType string `json:"mime_type"`
}

type ocrResponse struct {
	Pages []struct {
		PageNumber int `json:"page_number"`
		Blocks     []struct {
			Text string `json:"text"`
		} `json:"blocks"`
		Tables []struct {
			Rows [][]string `json:"rows"`
		} `json:"tables"`
	} `json:"pages"`
	Confidence float64 `json:"confidence"`
}

func (n *RestOCRNormalizer) Normalize(ctx context.Context, doc core.SourceDocument) (*core.NormalizedDocument, error) {
	if n.endpoint == "" {
		return nil, fmt.Errorf("ocr: endpoint not configured")
	}
	start := time.Now()

	payload, err := json.Marshal(ocrRequest{
		Document: base64.StdEncoding.EncodeToString(doc.Data),
		MimeType: doc.MimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("ocr: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ocr: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.apiKey)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ocr: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		// Keep the provider's message verbatim for the job error field.
		return nil, fmt.Errorf("ocr: provider returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed ocrResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("ocr: malformed response: %w", err)
	}

	pages := make([]core.PageContent, 0, len(parsed.Pages))
	for _, p := range parsed.Pages {
		page := core.PageContent{PageNumber: p.PageNumber}
		for _, b := range p.Blocks {
			page.TextBlocks = append(page.TextBlocks, b.Text)
		}
		for _, t := range p.Tables {
			page.Tables = append(page.Tables, TableFromRows(t.Rows))
		}
		pages = append(pages, page)
	}
	// Providers emit pages in order, but never reorder on trust alone.
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].PageNumber < pages[j].PageNumber })

	confidence := parsed.Confidence
	if confidence == 0 {
		confidence = 80
	}

	return &core.NormalizedDocument{
		Pages:            pages,
		Provider:         core.ProviderStandardOCR,
		TotalPages:       len(pages),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		ConfidenceScore:  confidence,
	}, nil
}
