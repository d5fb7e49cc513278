// Package api is the HTTP surface of the rendering service.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/accessibleapps/html-to-text/internal/config"
	"github.com/accessibleapps/html-to-text/internal/pipeline"
	"github.com/accessibleapps/html-to-text/internal/stats"
)

// Server is the HTTP API server.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	renderStats  *stats.RenderStats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, rs *stats.RenderStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		renderStats:  rs,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
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

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/render", s.handleRender)
		r.Post("/api/books", s.handleCreateBook)
		r.Get("/api/books/{jobID}", s.handleBookStatus)
		r.Get("/api/books/{jobID}/result", s.handleBookResult)
		r.Get("/api/stats/render", s.handleRenderStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
