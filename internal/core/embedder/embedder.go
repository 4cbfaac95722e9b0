package embedder

import (
	"context"
	"fmt"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/time/rate"

	"github.com/markdave123-py/Docura/internal/core"
)

// Config tunes batching and retry behavior.
type Config struct {
	BatchSize  int
	MaxRetries int
	BatchDelay time.Duration // pause between batches, respects provider rate limits
	Dim        int
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BatchDelay <= 0 {
		c.BatchDelay = 200 * time.Millisecond
	}
	return c
}

// Embedder turns chunks into vectorized chunks via batched provider calls.
// Batches run sequentially with a deliberate inter-batch delay; predictable
// pacing beats throughput here.
type Embedder struct {
	provider core.EmbeddingProvider
	cfg      Config
	limiter  *rate.Limiter
	logger   log.Logger
}

func New(provider core.EmbeddingProvider, cfg Config, logger log.Logger) *Embedder {
	cfg = cfg.withDefaults()
	return &Embedder{
		provider: provider,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Every(cfg.BatchDelay), 1),
		logger:   logger,
	}
}

// EmbedChunks prepares, batches, embeds and merges. Order is preserved
// end to end: embedding i belongs to prepared text i. A batch that fails
// after all retries fails the whole operation; no partial silent success.
func (e *Embedder) EmbedChunks(ctx context.Context, chunks []core.DocumentChunk) ([]core.VectorizedChunk, error) {
	texts := PrepareForEmbedding(chunks)
	if len(texts) == 0 {
		return MergeWithEmbeddings(chunks, nil)
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.cfg.BatchSize {
		end := start + e.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("embed: %w", err)
		}

		batch, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		vectors = append(vectors, batch...)
	}

	return MergeWithEmbeddings(chunks, vectors)
}

// embedBatch retries one batch with exponential backoff.
func (e *Embedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	backoff := time.Second

	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			e.logger.Warn().Err(lastErr).Int("attempt", attempt).Msg("embedding batch retry")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}

		vecs, err := e.provider.EmbedTexts(ctx, texts, e.cfg.Dim)
		if err == nil {
			if len(vecs) != len(texts) {
				return nil, fmt.Errorf("provider returned %d vectors for %d texts", len(vecs), len(texts))
			}
			return vecs, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
