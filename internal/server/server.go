// Package server provides the HTTP API for uploads, status polling and
// thread generation.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/studyrot/studyrot/internal/metrics"
	"github.com/studyrot/studyrot/internal/models"
	"github.com/studyrot/studyrot/internal/threads"
)

// Store is the persistence consumed by the HTTP handlers. Implemented by
// db.Client; tests substitute a fake.
type Store interface {
	QueryCreateKnowledgeBase(ctx context.Context, input models.KnowledgeBaseInput) (*models.KnowledgeBase, error)
	QueryGetKnowledgeBase(ctx context.Context, id string) (*models.KnowledgeBase, error)
	QueryListKnowledgeBases(ctx context.Context) ([]models.KnowledgeBase, error)
	QueryUpdateKnowledgeBase(ctx context.Context, id string, input models.KnowledgeBaseInput) (*models.KnowledgeBase, error)
	QueryDeleteKnowledgeBase(ctx context.Context, id string) error

	QueryCreateFile(ctx context.Context, kbID, name string) (*models.KnowledgeFile, error)
	QueryGetFile(ctx context.Context, id string) (*models.KnowledgeFile, error)
	QueryListFiles(ctx context.Context, kbID string) ([]models.KnowledgeFile, error)
	QueryListCompletedFiles(ctx context.Context, kbID string) ([]models.ExtractedFile, error)
}

// Ingestor triggers detached extraction for a staged file.
type Ingestor interface {
	Trigger(fileID, path, name string) bool
}

// ThreadGenerator produces study threads from a knowledge base.
type ThreadGenerator interface {
	Generate(ctx context.Context, kbID string) ([]threads.Post, error)
}

// Server wires the HTTP routes to their collaborators.
type Server struct {
	store     Store
	ingest    Ingestor
	generator ThreadGenerator
	collector *metrics.Collector
	logger    *slog.Logger

	uploadDir      string
	maxUploadBytes int64

	router chi.Router
}

// Options configures a Server.
type Options struct {
	UploadDir      string
	MaxUploadBytes int64
}

// New creates the HTTP server. generator and collector may be nil; the
// corresponding endpoints then report 503 or empty stats.
func New(store Store, ingest Ingestor, generator ThreadGenerator, collector *metrics.Collector, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:          store,
		ingest:         ingest,
		generator:      generator,
		collector:      collector,
		logger:         logger,
		uploadDir:      opts.UploadDir,
		maxUploadBytes: opts.MaxUploadBytes,
	}

	r := chi.NewRouter()
	r.Use(Recovery(logger))
	r.Use(RequestLogging(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.handleStats)

		r.Route("/knowledge-bases", func(r chi.Router) {
			r.Post("/", s.handleCreateKnowledgeBase)
			r.Get("/", s.handleListKnowledgeBases)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetKnowledgeBase)
				r.Patch("/", s.handleUpdateKnowledgeBase)
				r.Delete("/", s.handleDeleteKnowledgeBase)

				r.Post("/files", s.handleUpload)
				r.Get("/texts", s.handleGetExtractedTexts)
				r.Post("/threads", s.handleGenerateThread)
			})
		})

		r.Get("/files/{id}", s.handleGetFileStatus)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
