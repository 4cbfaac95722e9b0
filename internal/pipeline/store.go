package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/Docura/internal/core"
	"github.com/markdave123-py/Docura/internal/core/chunker"
	"github.com/markdave123-py/Docura/internal/models"
)

// store persists chunk rows, the hierarchical section rows and the
// provenance updates, then flips the job to completed. All writes are keyed
// by stable IDs so a retried store step overwrites its own partial work.
func (p *Pipeline) store(
	ctx context.Context,
	event IngestEvent,
	vectorized []core.VectorizedChunk,
	norm *core.NormalizedDocument,
	decision core.RoutingDecision,
	started time.Time,
) (core.ProcessingStats, error) {

	rows, sections := p.buildRows(event.DocumentID, vectorized)

	// The flat chunk table and the section tree are independent; write them
	// concurrently.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := p.db.UpsertDocumentChunks(gctx, rows); err != nil {
			return fmt.Errorf("upsert chunks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := p.db.UpsertDocumentSections(gctx, sections); err != nil {
			return fmt.Errorf("upsert sections: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.ProcessingStats{}, err
	}

	// Graph enrichment rides along when the sidecar is reachable; its
	// failure never fails the store step.
	p.extractEntities(ctx, event.DocumentID, rows)

	stats := core.ProcessingStats{
		Provider:     norm.Provider,
		Confidence:   norm.ConfidenceScore,
		PageCount:    decision.PageCount,
		ChunkCount:   len(rows),
		ProcessingMs: time.Since(started).Milliseconds(),
	}

	if err := p.db.MarkDocumentProcessed(ctx, event.DocumentID, stats); err != nil {
		return core.ProcessingStats{}, fmt.Errorf("mark document processed: %w", err)
	}
	if err := p.db.MarkJobCompleted(ctx, event.JobID, stats); err != nil {
		return core.ProcessingStats{}, fmt.Errorf("mark job completed: %w", err)
	}
	return stats, nil
}

// buildRows flattens the vectorized tree into the legacy flat chunk table
// (embedded leaves only) and the hierarchical section rows (parents
// included, embedding-less).
func (p *Pipeline) buildRows(documentID int, vectorized []core.VectorizedChunk) ([]models.DocumentChunk, []models.DocumentSection) {
	var (
		rows     []models.DocumentChunk
		sections []models.DocumentSection
	)

	appendLeaf := func(vc *core.VectorizedChunk) {
		rows = append(rows, models.DocumentChunk{
			ID:               rowID(documentID, vc.Metadata.ChunkIndex),
			DocumentID:       documentID,
			PageNumber:       vc.Metadata.PageNumber,
			ChunkIndex:       vc.Metadata.ChunkIndex,
			Content:          vc.Content,
			IsTable:          vc.Metadata.IsTable,
			TableDescription: vc.Metadata.TableDescription,
			Embedding:        vc.Vector,
			TokenCount:       chunker.EstimateTokens(vc.Content, p.chunkCfg.CharsPerToken),
		})
	}

	for i := range vectorized {
		vc := &vectorized[i]
		parentSectionID := sectionID(documentID, vc.Metadata.ChunkIndex)
		sections = append(sections, models.DocumentSection{
			ID:         parentSectionID,
			DocumentID: documentID,
			PageNumber: vc.Metadata.PageNumber,
			ChunkIndex: vc.Metadata.ChunkIndex,
			Content:    vc.Content,
			Embedding:  vc.Vector,
		})

		if len(vc.Children) == 0 {
			appendLeaf(vc)
			continue
		}
		for j := range vc.Children {
			child := &vc.Children[j]
			parentID := parentSectionID
			sections = append(sections, models.DocumentSection{
				ID:         sectionID(documentID, child.Metadata.ChunkIndex),
				DocumentID: documentID,
				ParentID:   &parentID,
				PageNumber: child.Metadata.PageNumber,
				ChunkIndex: child.Metadata.ChunkIndex,
				Content:    child.Content,
				Embedding:  child.Vector,
			})
			appendLeaf(child)
		}
	}
	return rows, sections
}

// extractEntities pushes leaf texts through the sidecar's NER endpoint and
// persists whatever comes back. Strictly best-effort.
func (p *Pipeline) extractEntities(ctx context.Context, documentID int, rows []models.DocumentChunk) {
	if !p.sidecar.Configured() || !p.sidecar.Healthy(ctx) {
		return
	}

	texts := make([]string, len(rows))
	for i := range rows {
		texts[i] = rows[i].Content
	}

	results, err := p.sidecar.ExtractEntities(ctx, texts)
	if err != nil {
		p.logger.Warn().Err(err).Int("document_id", documentID).Msg("entity extraction failed, skipping graph enrichment")
		return
	}

	var entities []models.ChunkEntity
	for i, res := range results {
		if i >= len(rows) {
			break
		}
		for _, e := range res.Entities {
			entities = append(entities, models.ChunkEntity{
				ID:         entityID(documentID, rows[i].ID, e.Text, e.Label),
				DocumentID: documentID,
				ChunkID:    rows[i].ID,
				Text:       e.Text,
				Label:      e.Label,
				Score:      e.Score,
			})
		}
	}
	if err := p.db.InsertChunkEntities(ctx, entities); err != nil {
		p.logger.Warn().Err(err).Int("document_id", documentID).Msg("persisting entities failed")
	}
}

// Deterministic IDs keyed by (document, chunk index) keep retried writes
// idempotent.

func rowID(documentID, chunkIndex int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("docura:chunk:%d:%d", documentID, chunkIndex))).String()
}

func sectionID(documentID, chunkIndex int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("docura:section:%d:%d", documentID, chunkIndex))).String()
}

func entityID(documentID int, chunkID, text, label string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("docura:entity:%d:%s:%s:%s", documentID, chunkID, text, label))).String()
}
