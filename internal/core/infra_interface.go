package core

import (
	"context"
	"io"

	"github.com/markdave123-py/Docura/internal/models"
)

// ProcessingStats is the provenance recorded on document and job rows
// when a pipeline run finishes.
type ProcessingStats struct {
	Provider     Provider
	Confidence   float64
	PageCount    int
	ChunkCount   int
	ProcessingMs int64
}

// DbClient defines all persistence operations the pipeline and API need.
// It abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type DbClient interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocumentByID(ctx context.Context, id int) (*models.Document, error)
	ListDocumentsByCompany(ctx context.Context, companyID string) ([]models.Document, error)
	UpdateDocumentStatus(ctx context.Context, id int, status string) error
	MarkDocumentProcessed(ctx context.Context, id int, stats ProcessingStats) error

	CreateIngestJob(ctx context.Context, job *models.IngestJob) error
	GetIngestJob(ctx context.Context, id string) (*models.IngestJob, error)
	MarkJobProcessing(ctx context.Context, id string) error
	MarkJobCompleted(ctx context.Context, id string, stats ProcessingStats) error
	MarkJobFailed(ctx context.Context, id string, errMsg string) error

	// UpsertDocumentChunks is keyed on (document_id, chunk_index) so a
	// retried store step overwrites instead of duplicating rows.
	UpsertDocumentChunks(ctx context.Context, chunks []models.DocumentChunk) error
	UpsertDocumentSections(ctx context.Context, sections []models.DocumentSection) error
	GetChunksByDocument(ctx context.Context, documentID int) ([]models.DocumentChunk, error)
	SearchDocumentChunks(ctx context.Context, documentID int, queryVec []float32, limit int) ([]models.DocumentChunk, error)

	InsertChunkEntities(ctx context.Context, entities []models.ChunkEntity) error

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)

	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}
