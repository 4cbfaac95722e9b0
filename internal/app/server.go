package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/Docura/internal/api/handlers"
	"github.com/markdave123-py/Docura/internal/config"
	"github.com/markdave123-py/Docura/internal/core"
	"github.com/markdave123-py/Docura/internal/pipeline"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, db core.DbClient, obj core.ObjectClient, worker *pipeline.Worker, emb core.EmbeddingProvider) *Server {
	ingestHandler := handlers.NewIngestHandler(db, obj, worker, cfg)
	searchHandler := handlers.NewSearchHandler(db, emb, cfg.EmbedDim)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(api chi.Router) {
		api.Post("/documents/upload", ingestHandler.UploadDocument)
		api.Get("/documents", ingestHandler.GetDocuments)
		api.Get("/documents/{document_id}/chunks", ingestHandler.GetDocumentChunks)
		api.Post("/documents/{document_id}/search", searchHandler.SearchDocument)
		api.Get("/jobs/{job_id}", ingestHandler.GetJob)
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	log.Printf("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
