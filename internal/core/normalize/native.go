package normalize

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/Docura/internal/core"
)

// nativeConfidence is deliberately capped below 100: docconv gives us the
// embedded text layer but no page boundaries, so the whole document
// collapses into a single PageContent with pageNumber=1. Downstream
// consumers depend on this documented shape.
const nativeConfidence = 95

// NativeNormalizer extracts the embedded text layer without OCR.
type NativeNormalizer struct{}

var _ core.DocumentNormalizer = (*NativeNormalizer)(nil)

func NewNativeNormalizer() *NativeNormalizer {
	return &NativeNormalizer{}
}

func (n *NativeNormalizer) Provider() core.Provider {
	return core.ProviderNative
}

func (n *NativeNormalizer) Normalize(ctx context.Context, doc core.SourceDocument) (*core.NormalizedDocument, error) {
	start := time.Now()

	mimeType := doc.MimeType
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	res, err := docconv.Convert(bytes.NewReader(doc.Data), mimeType, false)
	if err != nil {
		return nil, fmt.Errorf("native extract: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blocks := splitBlocks(res.Body)
	pages := []core.PageContent{}
	if len(blocks) > 0 {
		pages = append(pages, core.PageContent{
			PageNumber: 1,
			TextBlocks: blocks,
		})
	}

	return &core.NormalizedDocument{
		Pages:            pages,
		Provider:         core.ProviderNative,
		TotalPages:       len(pages),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		ConfidenceScore:  nativeConfidence,
	}, nil
}

// splitBlocks breaks extracted text into paragraph blocks, dropping
// whitespace-only fragments.
func splitBlocks(text string) []string {
	var out []string
	for _, block := range strings.Split(text, "\n\n") {
		if block = strings.TrimSpace(block); block != "" {
			out = append(out, block)
		}
	}
	return out
}
