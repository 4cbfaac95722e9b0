package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/markdave123-py/Docura/internal/core"
)

type SearchHandler struct {
	dbclient core.DbClient
	embedder core.EmbeddingProvider
	embedDim int
}

func NewSearchHandler(dbclient core.DbClient, embedder core.EmbeddingProvider, embedDim int) *SearchHandler {
	return &SearchHandler{dbclient: dbclient, embedder: embedder, embedDim: embedDim}
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// SearchDocument embeds the query and returns the top-k nearest chunks
// within one document.
func (h *SearchHandler) SearchDocument(w http.ResponseWriter, r *http.Request) {
	docID, err := strconv.Atoi(chi.URLParam(r, "document_id"))
	if err != nil || docID <= 0 {
		http.Error(w, "invalid document id", http.StatusBadRequest)
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		http.Error(w, "query required", http.StatusBadRequest)
		return
	}
	if req.Limit <= 0 || req.Limit > 50 {
		req.Limit = 8
	}

	vecs, err := h.embedder.EmbedTexts(r.Context(), []string{req.Query}, h.embedDim)
	if err != nil || len(vecs) != 1 {
		http.Error(w, "query embedding failed", http.StatusBadGateway)
		return
	}

	chunks, err := h.dbclient.SearchDocumentChunks(r.Context(), docID, vecs[0], req.Limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chunks)
}
