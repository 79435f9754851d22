// ABOUTME: HTTP server wiring for the Linky API
// ABOUTME: chi router with crawl streaming, retrieval, chat, and maintenance routes
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/harper/linky/internal/chat"
	"github.com/harper/linky/internal/config"
	"github.com/harper/linky/internal/models"
	"github.com/harper/linky/internal/pinecone"
	"github.com/harper/linky/internal/progress"
	"github.com/harper/linky/internal/seeder"
)

// Ingestor runs one ingestion job, emitting progress frames.
type Ingestor interface {
	Seed(ctx context.Context, url string, opts models.IngestOptions, namespace string, onProgress seeder.ProgressFunc) (*models.SeedResult, error)
}

// Retriever returns scored matches for a message; an empty message
// enumerates the namespace.
type Retriever interface {
	Matches(ctx context.Context, message, namespace string, minScore float64) ([]models.ScoredMatch, error)
}

// Responder answers a conversation with retrieved context.
type Responder interface {
	Respond(ctx context.Context, messages []models.ChatMessage, namespace string) (*chat.Response, error)
}

// Store is the maintenance subset of the vector store gateway.
type Store interface {
	DeleteNamespace(ctx context.Context, namespace string) error
	DescribeStats(ctx context.Context) (*pinecone.Stats, error)
}

// Titler derives a display title for a URL.
type Titler interface {
	Title(ctx context.Context, url string) string
}

// Server is the HTTP server for the Linky API.
type Server struct {
	ingestor  Ingestor
	retriever Retriever
	responder Responder
	store     Store
	titler    Titler
	tracker   *progress.Tracker
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	ingestor Ingestor,
	retriever Retriever,
	responder Responder,
	store Store,
	titler Titler,
	tracker *progress.Tracker,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		ingestor:  ingestor,
		retriever: retriever,
		responder: responder,
		store:     store,
		titler:    titler,
		tracker:   tracker,
		config:    cfg,
		logger:    logger,
	}
}

// Router builds the chi router for the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/api/crawl", s.handleCrawl)
	r.Get("/api/crawl/progress", s.handleCrawlProgress)
	r.Post("/api/chat", s.handleChat)
	r.Post("/api/documents", s.handleDocuments)
	r.Post("/api/clear", s.handleClear)
	r.Post("/api/title", s.handleTitle)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encoding response failed", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]any{"success": false, "error": message})
}
