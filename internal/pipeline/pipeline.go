package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/phuslu/log"

	"github.com/markdave123-py/Docura/internal/core"
	"github.com/markdave123-py/Docura/internal/core/chunker"
	"github.com/markdave123-py/Docura/internal/core/embedder"
	"github.com/markdave123-py/Docura/internal/core/normalize"
	"github.com/markdave123-py/Docura/internal/core/router"
	"github.com/markdave123-py/Docura/internal/core/sidecar"
)

// IngestEvent is the queue payload that starts one pipeline run.
type IngestEvent struct {
	JobID       string `json:"job_id" validate:"required"`
	DocumentURL string `json:"document_url" validate:"required,url"`
	DocumentID  int    `json:"document_id" validate:"required,gt=0"`
	CompanyID   string `json:"company_id" validate:"required"`
	Options     struct {
		ForceOCR bool   `json:"force_ocr"`
		MimeType string `json:"mime_type"`
	} `json:"options"`
}

// Pipeline sequences route → normalize → chunk → embed → store for one
// document. Every stage runs through the step runner so each is
// independently retryable; stage outputs are passed explicitly, never
// captured mutable state.
type Pipeline struct {
	db          core.DbClient
	obj         core.ObjectClient
	router      *router.Router
	normalizers *normalize.Registry
	chunker     *chunker.Chunker
	chunkCfg    chunker.Config
	embedder    *embedder.Embedder
	sidecarEmb  *embedder.Embedder
	sidecar     *sidecar.Client
	runner      StepRunner
	validate    *validator.Validate
	logger      log.Logger
}

type Deps struct {
	DB          core.DbClient
	Obj         core.ObjectClient
	Router      *router.Router
	Normalizers *normalize.Registry
	Chunker     *chunker.Chunker
	ChunkCfg    chunker.Config
	Embedder    *embedder.Embedder
	SidecarEmb  *embedder.Embedder
	Sidecar     *sidecar.Client
	Runner      StepRunner
	Logger      log.Logger
}

func New(d Deps) *Pipeline {
	return &Pipeline{
		db:          d.DB,
		obj:         d.Obj,
		router:      d.Router,
		normalizers: d.Normalizers,
		chunker:     d.Chunker,
		chunkCfg:    d.ChunkCfg,
		embedder:    d.Embedder,
		sidecarEmb:  d.SidecarEmb,
		sidecar:     d.Sidecar,
		runner:      d.Runner,
		validate:    validator.New(),
		logger:      d.Logger,
	}
}

// routed carries the route step's output into normalize.
type routed struct {
	Data     []byte
	Decision core.RoutingDecision
}

// Process runs the whole pipeline for one event. Any unrecovered stage
// error marks the job failed with the triggering message and stops; no
// cross-stage compensation is attempted (idempotent overwrite on retry is
// the safety net).
func (p *Pipeline) Process(ctx context.Context, event IngestEvent) error {
	if err := p.validate.Struct(event); err != nil {
		p.logger.Error().Err(err).Str("job_id", event.JobID).Msg("rejecting malformed ingest event")
		if event.JobID != "" {
			_ = p.db.MarkJobFailed(ctx, event.JobID, fmt.Sprintf("invalid event: %v", err))
		}
		return fmt.Errorf("invalid event: %w", err)
	}

	logger := p.logger
	start := time.Now()

	logger.Info().Str("job_id", event.JobID).Int("document_id", event.DocumentID).Msg("pipeline start")

	if err := p.db.MarkJobProcessing(ctx, event.JobID); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	_ = p.db.UpdateDocumentStatus(ctx, event.DocumentID, "processing")

	fail := func(stage string, err error) error {
		wrapped := fmt.Errorf("%s: %w", stage, err)
		logger.Error().Err(wrapped).Str("job_id", event.JobID).Msg("pipeline failed")
		_ = p.db.MarkJobFailed(ctx, event.JobID, wrapped.Error())
		_ = p.db.UpdateDocumentStatus(ctx, event.DocumentID, "failed")
		return wrapped
	}

	rt, err := Step(ctx, p.runner, "route", func(c context.Context) (routed, error) {
		data, err := fetchDocument(c, p.obj, event.DocumentURL)
		if err != nil {
			return routed{}, err
		}
		decision, err := p.router.Route(c, data, router.Options{
			ForceOCR: event.Options.ForceOCR,
			MimeType: event.Options.MimeType,
		})
		if err != nil {
			return routed{}, err
		}
		return routed{Data: data, Decision: decision}, nil
	})
	if err != nil {
		return fail("route", err)
	}

	norm, err := Step(ctx, p.runner, "normalize", func(c context.Context) (*core.NormalizedDocument, error) {
		backend, err := p.normalizers.Get(rt.Decision.Provider)
		if err != nil {
			return nil, err
		}
		return backend.Normalize(c, core.SourceDocument{
			URL:      event.DocumentURL,
			Data:     rt.Data,
			MimeType: event.Options.MimeType,
		})
	})
	if err != nil {
		return fail("normalize", err)
	}

	chunks, err := Step(ctx, p.runner, "chunk", func(c context.Context) ([]core.DocumentChunk, error) {
		return p.chunker.ChunkPages(c, norm.Pages), nil
	})
	if err != nil {
		return fail("chunk", err)
	}

	vectorized, err := Step(ctx, p.runner, "embed", func(c context.Context) ([]core.VectorizedChunk, error) {
		return p.pickEmbedder(c).EmbedChunks(c, chunks)
	})
	if err != nil {
		return fail("embed", err)
	}

	stats, err := Step(ctx, p.runner, "store", func(c context.Context) (core.ProcessingStats, error) {
		return p.store(c, event, vectorized, norm, rt.Decision, start)
	})
	if err != nil {
		return fail("store", err)
	}

	logger.Info().
		Str("job_id", event.JobID).
		Int("pages", stats.PageCount).
		Int("chunks", stats.ChunkCount).
		Int64("ms", stats.ProcessingMs).
		Msg("pipeline completed")
	return nil
}

// pickEmbedder prefers the sidecar's local models when the sidecar is up;
// otherwise the hosted provider.
func (p *Pipeline) pickEmbedder(ctx context.Context) *embedder.Embedder {
	if p.sidecarEmb != nil && p.sidecar.Healthy(ctx) {
		p.logger.Debug().Msg("embedding via sidecar")
		return p.sidecarEmb
	}
	return p.embedder
}
