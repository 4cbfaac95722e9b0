package normalize

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/markdave123-py/Docura/internal/core"
)

// VisionModel is the slice of the LLM client the vision OCR backend needs.
type VisionModel interface {
	GenerateWithData(ctx context.Context, systemPrompt, userPrompt, mimeType string, data []byte) (string, error)
}

// VisionOCRNormalizer is the premium OCR tier: a vision-capable model reads
// the document directly. Used for handwritten, blurry or otherwise complex
// scans the default tier mangles.
type VisionOCRNormalizer struct {
	model VisionModel
}

var _ core.DocumentNormalizer = (*VisionOCRNormalizer)(nil)

func NewVisionOCRNormalizer(model VisionModel) *VisionOCRNormalizer {
	return &VisionOCRNormalizer{model: model}
}

func (n *VisionOCRNormalizer) Provider() core.Provider {
	return core.ProviderVisionOCR
}

const visionSystemPrompt = `You transcribe documents. Return strict JSON only, no prose, shaped as:
{"pages":[{"page_number":1,"text_blocks":["..."],"tables":[{"rows":[["h1","h2"],["a","b"]]}]}]}
Every page of the document must appear, in order. Tables are rectangular.`

type visionPage struct {
	PageNumber int    `json:"page_number"`
	TextBlocks []string `json:"text_blocks"`
	Tables     []struct {
		Rows [][]string `json:"rows"`
	} `json:"tables"`
}

type visionReply struct {
	Pages []visionPage `json:"pages"`
}

func (n *VisionOCRNormalizer) Normalize(ctx context.Context, doc core.SourceDocument) (*core.NormalizedDocument, error) {
	start := time.Now()

	mimeType := doc.MimeType
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	raw, err := n.model.GenerateWithData(ctx, visionSystemPrompt,
		"Transcribe every page of this document.", mimeType, doc.Data)
	if err != nil {
		return nil, fmt.Errorf("vision ocr: %w", err)
	}

	var parsed visionReply
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("vision ocr: malformed response: %w", err)
	}

	pages := make([]core.PageContent, 0, len(parsed.Pages))
	for i, p := range parsed.Pages {
		num := p.PageNumber
		if num <= 0 {
			num = i + 1
		}
		page := core.PageContent{PageNumber: num, TextBlocks: p.TextBlocks}
		for _, t := range p.Tables {
			page.Tables = append(page.Tables, TableFromRows(t.Rows))
		}
		pages = append(pages, page)
	}
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].PageNumber < pages[j].PageNumber })

	return &core.NormalizedDocument{
		Pages:            pages,
		Provider:         core.ProviderVisionOCR,
		TotalPages:       len(pages),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		ConfidenceScore:  88,
	}, nil
}

// stripFences removes a ```json ... ``` wrapper if the model added one.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
