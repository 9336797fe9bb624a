package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dgallion1/docstruct/internal/assemble"
	"github.com/dgallion1/docstruct/internal/config"
	"github.com/dgallion1/docstruct/internal/pipeline"
)

// Server is the HTTP API server for docstruct. Every request is a complete,
// independent run.
type Server struct {
	router    chi.Router
	structure *pipeline.StructureEngine
	relevance *pipeline.RelevanceEngine
	jobs      *pipeline.JobStore
	log       *slog.Logger
	cfg       config.Config

	outlines    *lru.Cache[string, assemble.Outline]
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
}

// NewServer creates and configures the HTTP server.
func NewServer(structure *pipeline.StructureEngine, relevance *pipeline.RelevanceEngine, jobs *pipeline.JobStore, log *slog.Logger, cfg config.Config) (*Server, error) {
	cache, err := lru.New[string, assemble.Outline](cfg.OutlineCacheSize)
	if err != nil {
		return nil, fmt.Errorf("outline cache: %w", err)
	}
	s := &Server{
		structure: structure,
		relevance: relevance,
		jobs:      jobs,
		log:       log,
		cfg:       cfg,
		outlines:  cache,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints when an API key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/outline", s.handleOutline)
		r.Post("/api/outline/batch", s.handleOutlineBatch)
		r.Post("/api/rank", s.handleRank)

		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/runs/{runID}", s.handleRunStatus)
		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
