package router

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/phuslu/log"

	"github.com/markdave123-py/Docura/internal/core"
)

// Options tunes a single routing call.
type Options struct {
	ForceOCR bool
	MimeType string
}

// Labels the vision classifier may return for degraded scans. Any of these
// routes the document to the premium OCR tier.
var complexLabels = map[string]bool{
	"handwritten": true,
	"complex":     true,
	"blurry":      true,
	"messy":       true,
}

// Router inspects a document and picks an extraction strategy. The vision
// classifier is optional; without it routing falls back to the structural
// probe alone.
type Router struct {
	vision core.LLMProvider
	logger log.Logger
}

func New(vision core.LLMProvider, logger log.Logger) *Router {
	return &Router{vision: vision, logger: logger}
}

// Route classifies the document bytes and returns an immutable decision.
// It never mutates state; the pipeline retries it freely.
func (r *Router) Route(ctx context.Context, data []byte, opts Options) (core.RoutingDecision, error) {
	if len(data) == 0 {
		return core.RoutingDecision{}, fmt.Errorf("route: empty document")
	}

	isPDF := bytes.HasPrefix(data, []byte("%PDF-"))

	var (
		pageCount  = 1
		nativeText bool
		confidence = 0.6
	)

	if isPDF {
		pdfCtx, err := api.ReadContext(bytes.NewReader(data), model.NewDefaultConfiguration())
		if err != nil {
			// Damaged PDFs still go through OCR; the probe just loses
			// page-count accuracy.
			r.logger.Warn().Err(err).Msg("pdf probe failed, treating as scan")
		} else {
			pageCount = pdfCtx.PageCount
			nativeText, confidence = probeNativeText(data, pageCount)
		}
	}

	label := r.classifyVisual(ctx, data, opts.MimeType)

	decision := core.RoutingDecision{
		IsNativePDF: isPDF && nativeText,
		PageCount:   pageCount,
		Confidence:  confidence,
		VisionLabel: label,
	}

	switch {
	case decision.IsNativePDF && !opts.ForceOCR:
		decision.Provider = core.ProviderNative
		decision.Reason = fmt.Sprintf("native text layer detected across %d pages, skipping OCR", pageCount)
	case complexLabels[label]:
		decision.Provider = core.ProviderVisionOCR
		decision.Reason = fmt.Sprintf("visual classifier labeled document %q, using premium OCR tier", label)
	default:
		decision.Provider = core.ProviderStandardOCR
		if decision.IsNativePDF {
			decision.Reason = "native text present but OCR forced by caller"
		} else {
			decision.Reason = "no native text layer, using default OCR tier"
		}
	}

	r.logger.Info().
		Str("provider", string(decision.Provider)).
		Int("pages", decision.PageCount).
		Float64("confidence", decision.Confidence).
		Str("reason", decision.Reason).
		Msg("routing decision")

	return decision, nil
}

// probeNativeText decides whether the PDF carries an embedded text layer.
// Font resources with text-showing operators indicate native text; a pile of
// image XObjects with no fonts indicates a scan.
func probeNativeText(data []byte, pageCount int) (bool, float64) {
	fonts := bytes.Count(data, []byte("/Font"))
	images := bytes.Count(data, []byte("/Subtype/Image")) + bytes.Count(data, []byte("/Subtype /Image"))

	if fonts == 0 {
		return false, 0.9
	}
	// Scanned PDFs often carry one full-page image per page plus a stub font.
	if images >= pageCount && fonts <= 1 {
		return false, 0.7
	}
	return true, 0.95
}

// classifyVisual asks the vision model for a one-word quality label.
// Best-effort: any failure yields an empty label, never an error.
func (r *Router) classifyVisual(ctx context.Context, data []byte, mimeType string) string {
	if r.vision == nil {
		return ""
	}
	vision, ok := r.vision.(interface {
		GenerateWithData(ctx context.Context, systemPrompt, userPrompt, mimeType string, data []byte) (string, error)
	})
	if !ok {
		return ""
	}
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	cctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	out, err := vision.GenerateWithData(cctx,
		"You label scanned documents. Reply with exactly one word.",
		"Label this document's visual quality: handwritten, complex, blurry, messy, or clean.",
		mimeType, sample(data, 512*1024))
	if err != nil {
		r.logger.Warn().Err(err).Msg("visual classification failed, routing without label")
		return ""
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// sample bounds how much of the document is shipped to the classifier.
func sample(data []byte, max int) []byte {
	if len(data) <= max {
		return data
	}
	return data[:max]
}
