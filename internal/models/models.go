package models

import (
	"time"
)

// Job statuses. Terminal states are completed and failed.
const (
	JobQueued     = "queued"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// Document statuses.
const (
	DocUploaded   = "uploaded"
	DocProcessing = "processing"
	DocReady      = "ready"
	DocFailed     = "failed"
)

// Document represents an uploaded document and its OCR provenance.
type Document struct {
	ID            int       `db:"id" json:"id"`
	CompanyID     string    `db:"company_id" json:"company_id"`
	FileName      string    `db:"file_name" json:"file_name"`
	StorageURL    string    `db:"storage_url" json:"storage_url"` // S3 URL or original link
	MimeType      string    `db:"mime_type" json:"mime_type"`
	Status        string    `db:"status" json:"status"` // uploaded | processing | ready | failed
	OcrProcessed  bool      `db:"ocr_processed" json:"ocr_processed"`
	OcrProvider   string    `db:"ocr_provider" json:"ocr_provider"`
	OcrConfidence float64   `db:"ocr_confidence" json:"ocr_confidence"`
	PageCount     int       `db:"page_count" json:"page_count"`
	ChunkCount    int       `db:"chunk_count" json:"chunk_count"`
	ProcessingMs  int64     `db:"processing_ms" json:"processing_ms"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// IngestJob tracks one pipeline run for a document.
type IngestJob struct {
	ID              string     `db:"id" json:"id"`
	DocumentID      int        `db:"document_id" json:"document_id"`
	CompanyID       string     `db:"company_id" json:"company_id"`
	Status          string     `db:"status" json:"status"` // queued | processing | completed | failed
	Provider        string     `db:"provider" json:"provider"`
	PageCount       int        `db:"page_count" json:"page_count"`
	ConfidenceScore float64    `db:"confidence_score" json:"confidence_score"`
	ErrorMessage    string     `db:"error_message" json:"error_message,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	StartedAt       *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// DocumentChunk is one persisted chunk row (legacy flat table).
type DocumentChunk struct {
	ID               string    `db:"id" json:"id"`
	DocumentID       int       `db:"document_id" json:"document_id"`
	PageNumber       int       `db:"page_number" json:"page_number"`
	ChunkIndex       int       `db:"chunk_index" json:"chunk_index"`
	Content          string    `db:"content" json:"content"`
	IsTable          bool      `db:"is_table" json:"is_table"`
	TableDescription string    `db:"table_description" json:"table_description,omitempty"`
	Embedding        []float32 `db:"embedding" json:"embedding"` // pgvector column
	TokenCount       int       `db:"token_count" json:"token_count"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// DocumentSection is one node of the hierarchical parent/child structure.
// Parent sections carry no embedding; leaf sections do.
type DocumentSection struct {
	ID         string    `db:"id" json:"id"`
	DocumentID int       `db:"document_id" json:"document_id"`
	ParentID   *string   `db:"parent_id" json:"parent_id,omitempty"`
	PageNumber int       `db:"page_number" json:"page_number"`
	ChunkIndex int       `db:"chunk_index" json:"chunk_index"`
	Content    string    `db:"content" json:"content"`
	Embedding  []float32 `db:"embedding" json:"embedding"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ChunkEntity is one named entity extracted from a chunk by the sidecar,
// used for graph enrichment. Best-effort data; rows may be absent.
type ChunkEntity struct {
	ID         string    `db:"id" json:"id"`
	DocumentID int       `db:"document_id" json:"document_id"`
	ChunkID    string    `db:"chunk_id" json:"chunk_id"`
	Text       string    `db:"text" json:"text"`
	Label      string    `db:"label" json:"label"`
	Score      float64   `db:"score" json:"score"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
