package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/leduardoaraujo/jsonexplorer/internal/config"
	"github.com/leduardoaraujo/jsonexplorer/internal/pipeline"
	"github.com/leduardoaraujo/jsonexplorer/internal/preview"
	"github.com/leduardoaraujo/jsonexplorer/internal/stats"
)

// Server is the HTTP API server for jsonexplorer.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	stats        *stats.Recorder
	preview      *preview.Renderer
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. orch may be nil, in
// which case the ingest and document routes are not mounted.
func NewServer(orch *pipeline.Orchestrator, rec *stats.Recorder, log *slog.Logger, cfg config.Config) *Server {
	if rec == nil {
		rec = stats.NewRecorder(cfg.StatsWindow)
	}
	s := &Server{
		orchestrator: orch,
		stats:        rec,
		preview:      preview.New(),
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

	r.Route("/convert", func(r chi.Router) {
		r.Post("/to-markdown", s.handleToMarkdown)
		r.Post("/to-json", s.handleToJSON)
		r.Post("/preview", s.handlePreview)
		r.Post("/upload", s.handleUpload)
	})

	// Authenticated endpoints.
	if s.cfg.APIKey != "" {
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

			r.Get("/api/stats/convert", s.handleConvertStats)

			if s.orchestrator == nil {
				return
			}
			r.Post("/api/ingest", s.handleIngest)
			r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
			r.Post("/api/ingest/batch", s.handleBatchIngest)

			r.Get("/api/documents", s.handleListDocuments)
			r.Delete("/api/documents/{docID}", s.handleDeleteDocument)
		})
	}

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.orchestrator == nil {
		w.Write([]byte(`{"status":"ok","ingest":false}`))
		return
	}
	w.Write([]byte(`{"status":"ok","ingest":true}`))
}
