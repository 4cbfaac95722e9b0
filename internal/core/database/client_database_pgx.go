package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/Docura/internal/config"
	"github.com/markdave123-py/Docura/internal/core"
	"github.com/markdave123-py/Docura/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

var _ core.DbClient = (*DatabaseClient)(nil)

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	dsn := cfg.DatabaseURL
	if cfg.SslCertPath != "" {
		if _, err := os.Stat(cfg.SslCertPath); err != nil {
			return nil, fmt.Errorf("ssl cert not accessible at %q: %w", cfg.SslCertPath, err)
		}
		// Append SSL params to the provided DATABASE_URL safely.
		u, err := url.Parse(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		q := u.Query()
		q.Set("sslmode", "verify-ca")
		q.Set("sslrootcert", cfg.SslCertPath)
		u.RawQuery = q.Encode()
		dsn = u.String()
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Documents

func (c *DatabaseClient) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	const q = `
		INSERT INTO documents
			(company_id, file_name, storage_url, mime_type, status, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, now(), now())
		RETURNING id
	`
	return c.db.QueryRowContext(ctx, q,
		doc.CompanyID, doc.FileName, doc.StorageURL, doc.MimeType, doc.Status,
	).Scan(&doc.ID)
}

func (c *DatabaseClient) GetDocumentByID(ctx context.Context, id int) (*models.Document, error) {
	const q = `
		SELECT id, company_id, file_name, storage_url, mime_type, status,
		       ocr_processed, ocr_provider, ocr_confidence, page_count, chunk_count,
		       processing_ms, created_at, updated_at
		FROM documents
		WHERE id = $1
	`
	var d models.Document
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.CompanyID, &d.FileName, &d.StorageURL, &d.MimeType, &d.Status,
		&d.OcrProcessed, &d.OcrProvider, &d.OcrConfidence, &d.PageCount, &d.ChunkCount,
		&d.ProcessingMs, &d.CreatedAt, &d.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *DatabaseClient) ListDocumentsByCompany(ctx context.Context, companyID string) ([]models.Document, error) {
	const q = `
		SELECT id, company_id, file_name, storage_url, mime_type, status,
		       ocr_processed, ocr_provider, ocr_confidence, page_count, chunk_count,
		       processing_ms, created_at, updated_at
		FROM documents
		WHERE company_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(
			&d.ID, &d.CompanyID, &d.FileName, &d.StorageURL, &d.MimeType, &d.Status,
			&d.OcrProcessed, &d.OcrProvider, &d.OcrConfidence, &d.PageCount, &d.ChunkCount,
			&d.ProcessingMs, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdateDocumentStatus(ctx context.Context, id int, status string) error {
	const q = `
		UPDATE documents
		SET status = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("document not found: %d", id)
	}
	return nil
}

func (c *DatabaseClient) MarkDocumentProcessed(ctx context.Context, id int, stats core.ProcessingStats) error {
	const q = `
		UPDATE documents
		SET status = $2, ocr_processed = true, ocr_provider = $3, ocr_confidence = $4,
		    page_count = $5, chunk_count = $6, processing_ms = $7, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, models.DocReady,
		string(stats.Provider), stats.Confidence, stats.PageCount, stats.ChunkCount, stats.ProcessingMs)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("document not found: %d", id)
	}
	return nil
}

// Ingest jobs

func (c *DatabaseClient) CreateIngestJob(ctx context.Context, job *models.IngestJob) error {
	if job == nil {
		return errors.New("nil job")
	}
	const q = `
		INSERT INTO ingest_jobs (id, document_id, company_id, status, created_at)
		VALUES ($1, $2, $3, $4, now())
	`
	_, err := c.db.ExecContext(ctx, q, job.ID, job.DocumentID, job.CompanyID, job.Status)
	return err
}

func (c *DatabaseClient) GetIngestJob(ctx context.Context, id string) (*models.IngestJob, error) {
	const q = `
		SELECT id, document_id, company_id, status, provider, page_count,
		       confidence_score, error_message, created_at, started_at, completed_at
		FROM ingest_jobs
		WHERE id = $1
	`
	var j models.IngestJob
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&j.ID, &j.DocumentID, &j.CompanyID, &j.Status, &j.Provider, &j.PageCount,
		&j.ConfidenceScore, &j.ErrorMessage, &j.CreatedAt, &j.StartedAt, &j.CompletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (c *DatabaseClient) MarkJobProcessing(ctx context.Context, id string) error {
	const q = `
		UPDATE ingest_jobs
		SET status = $2, started_at = COALESCE(started_at, now())
		WHERE id = $1
	`
	_, err := c.db.ExecContext(ctx, q, id, models.JobProcessing)
	return err
}

func (c *DatabaseClient) MarkJobCompleted(ctx context.Context, id string, stats core.ProcessingStats) error {
	const q = `
		UPDATE ingest_jobs
		SET status = $2, provider = $3, page_count = $4, confidence_score = $5,
		    error_message = '', completed_at = now()
		WHERE id = $1
	`
	_, err := c.db.ExecContext(ctx, q, id, models.JobCompleted,
		string(stats.Provider), stats.PageCount, stats.Confidence)
	return err
}

func (c *DatabaseClient) MarkJobFailed(ctx context.Context, id string, errMsg string) error {
	const q = `
		UPDATE ingest_jobs
		SET status = $2, error_message = $3, completed_at = now()
		WHERE id = $1
	`
	_, err := c.db.ExecContext(ctx, q, id, models.JobFailed, errMsg)
	return err
}

// Chunks

// UpsertDocumentChunks writes chunk rows in a single transaction, keyed on
// (document_id, chunk_index) so a retried store step overwrites cleanly.
func (c *DatabaseClient) UpsertDocumentChunks(ctx context.Context, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO document_chunks
			(id, document_id, page_number, chunk_index, content, is_table, table_description, embedding, token_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (document_id, chunk_index) DO UPDATE SET
			id = EXCLUDED.id,
			page_number = EXCLUDED.page_number,
			content = EXCLUDED.content,
			is_table = EXCLUDED.is_table,
			table_description = EXCLUDED.table_description,
			embedding = EXCLUDED.embedding,
			token_count = EXCLUDED.token_count
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		vec := pgvector.NewVector(ch.Embedding)

		if _, err := stmt.ExecContext(ctx,
			ch.ID, ch.DocumentID, ch.PageNumber, ch.ChunkIndex, ch.Content,
			ch.IsTable, ch.TableDescription, vec, ch.TokenCount,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// UpsertDocumentSections writes the hierarchical structure rows. Parents go
// first so child rows can reference them within the same transaction.
func (c *DatabaseClient) UpsertDocumentSections(ctx context.Context, sections []models.DocumentSection) error {
	if len(sections) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO document_sections
			(id, document_id, parent_id, page_number, chunk_index, content, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (id) DO UPDATE SET
			parent_id = EXCLUDED.parent_id,
			page_number = EXCLUDED.page_number,
			chunk_index = EXCLUDED.chunk_index,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range sections {
		s := &sections[i]
		// Parent sections carry no embedding; write NULL, not a
		// zero-dimension vector.
		var vec any
		if len(s.Embedding) > 0 {
			vec = pgvector.NewVector(s.Embedding)
		}
		if _, err := stmt.ExecContext(ctx,
			s.ID, s.DocumentID, s.ParentID, s.PageNumber, s.ChunkIndex, s.Content, vec,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (c *DatabaseClient) GetChunksByDocument(ctx context.Context, documentID int) ([]models.DocumentChunk, error) {
	const q = `
		SELECT id, document_id, page_number, chunk_index, content, is_table, table_description, embedding, token_count, created_at
		FROM document_chunks
		WHERE document_id = $1
		ORDER BY chunk_index ASC
	`
	rows, err := c.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DocumentChunk
	for rows.Next() {
		var (
			ch  models.DocumentChunk
			emb pgvector.Vector
		)
		if err := rows.Scan(
			&ch.ID, &ch.DocumentID, &ch.PageNumber, &ch.ChunkIndex, &ch.Content,
			&ch.IsTable, &ch.TableDescription, &emb, &ch.TokenCount, &ch.CreatedAt,
		); err != nil {
			return nil, err
		}
		ch.Embedding = emb.Slice()
		out = append(out, ch)
	}
	return out, rows.Err()
}

// SearchDocumentChunks finds top-k similar chunks within a document for a query embedding.
func (c *DatabaseClient) SearchDocumentChunks(ctx context.Context, documentID int, queryVec []float32, limit int) ([]models.DocumentChunk, error) {
	const q = `
		SELECT id, document_id, page_number, chunk_index, content, is_table, table_description, embedding, token_count
		FROM document_chunks
		WHERE document_id = $1
		ORDER BY embedding <-> $2
		LIMIT $3
	`
	vec := pgvector.NewVector(queryVec)
	rows, err := c.db.QueryContext(ctx, q, documentID, vec, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DocumentChunk
	for rows.Next() {
		var (
			ch  models.DocumentChunk
			emb pgvector.Vector
		)
		if err := rows.Scan(&ch.ID, &ch.DocumentID, &ch.PageNumber, &ch.ChunkIndex,
			&ch.Content, &ch.IsTable, &ch.TableDescription, &emb, &ch.TokenCount); err != nil {
			return nil, err
		}
		ch.Embedding = emb.Slice()
		out = append(out, ch)
	}
	return out, rows.Err()
}

// Entities

func (c *DatabaseClient) InsertChunkEntities(ctx context.Context, entities []models.ChunkEntity) error {
	if len(entities) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO chunk_entities (id, document_id, chunk_id, text, label, score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (id) DO NOTHING
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range entities {
		e := &entities[i]
		if _, err := stmt.ExecContext(ctx, e.ID, e.DocumentID, e.ChunkID, e.Text, e.Label, e.Score); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
