package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/markdave123-py/Docura/internal/config"
	"github.com/markdave123-py/Docura/internal/core"
	"github.com/markdave123-py/Docura/internal/models"
	"github.com/markdave123-py/Docura/internal/pipeline"
)

type IngestHandler struct {
	dbclient     core.DbClient
	objectclient core.ObjectClient
	worker       *pipeline.Worker
	cfg          *config.Config
}

func NewIngestHandler(dbclient core.DbClient, objectclient core.ObjectClient, worker *pipeline.Worker, cfg *config.Config) *IngestHandler {
	return &IngestHandler{dbclient: dbclient, objectclient: objectclient, worker: worker, cfg: cfg}
}

// UploadDocument handles file upload, DB insert, and queueing the ingestion
// pipeline for background processing.
func (h *IngestHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {

	r.ParseMultipartForm(52 << 20)

	companyID := r.FormValue("company_id")
	if companyID == "" {
		http.Error(w, "company_id required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "read file failed", http.StatusBadRequest)
		return
	}

	// Sanitize filename to prevent path traversal or invalid characters.
	cleanFilename := filepath.Base(header.Filename)
	s3Key := fmt.Sprintf("%s/%s/%s", companyID, uuid.NewString(), cleanFilename)

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	uploadctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	url, err := h.objectclient.UploadFile(uploadctx, h.cfg.BucketName, s3Key, data, contentType)
	if err != nil {
		http.Error(w, fmt.Sprintf("upload failed: %v", err), http.StatusInternalServerError)
		return
	}

	doc := &models.Document{
		CompanyID:  companyID,
		FileName:   cleanFilename,
		StorageURL: url,
		MimeType:   contentType,
		Status:     models.DocUploaded,
	}
	if err := h.dbclient.CreateDocument(uploadctx, doc); err != nil {
		http.Error(w, fmt.Sprintf("failed to store document metadata: %v", err), http.StatusInternalServerError)
		return
	}

	job := &models.IngestJob{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		CompanyID:  companyID,
		Status:     models.JobQueued,
	}
	if err := h.dbclient.CreateIngestJob(uploadctx, job); err != nil {
		http.Error(w, fmt.Sprintf("failed to create ingest job: %v", err), http.StatusInternalServerError)
		return
	}

	event := pipeline.IngestEvent{
		JobID:       job.ID,
		DocumentURL: url,
		DocumentID:  doc.ID,
		CompanyID:   companyID,
	}
	event.Options.ForceOCR = r.FormValue("force_ocr") == "true"
	event.Options.MimeType = contentType
	h.worker.Enqueue(event)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"document": doc,
		"job":      job,
	})
}

// GetJob surfaces job status polling; failed jobs expose the recorded error
// message.
func (h *IngestHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")

	job, err := h.dbclient.GetIngestJob(r.Context(), jobID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if job == nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job)
}

func (h *IngestHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		http.Error(w, "company_id required", http.StatusBadRequest)
		return
	}

	documents, err := h.dbclient.ListDocumentsByCompany(r.Context(), companyID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(documents)
}

// GetDocumentChunks returns the persisted chunk rows for a document in
// chunk-index order.
func (h *IngestHandler) GetDocumentChunks(w http.ResponseWriter, r *http.Request) {
	docID, err := strconv.Atoi(chi.URLParam(r, "document_id"))
	if err != nil || docID <= 0 {
		http.Error(w, "invalid document id", http.StatusBadRequest)
		return
	}

	chunks, err := h.dbclient.GetChunksByDocument(r.Context(), docID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chunks)
}
