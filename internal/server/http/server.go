// Package httpserver provides the HTTP REST API server for the Event Hub service.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/arcticMV/frf-event-hub-sub000/internal/database"
	"github.com/arcticMV/frf-event-hub-sub000/internal/dedup"
	"github.com/arcticMV/frf-event-hub-sub000/internal/domain"
	"github.com/arcticMV/frf-event-hub-sub000/internal/observability"
	"github.com/arcticMV/frf-event-hub-sub000/internal/repository"
)

// DedupConfig holds the duplicate-check settings the API form path uses.
type DedupConfig struct {
	// Options are the scoring parameters. The form path runs with the
	// permissive minimum score so authors see borderline matches.
	Options dedup.Options
	// Partitions is the list of store partitions searched. Defaults to the
	// three pipeline stages when empty.
	Partitions []domain.Partition
	// FetchLimit is the per-partition candidate record cap. Defaults to 100
	// when zero.
	FetchLimit int
	// Enabled turns duplicate checking on. When disabled the check endpoint
	// returns no matches and event creation skips the advisory check.
	Enabled bool
}

// Server is the HTTP REST API server.
type Server struct {
	router      chi.Router
	httpServer  *http.Server
	events      repository.EventRepository
	assessments repository.AssessmentRepository
	db          *database.DB
	dedupCfg    DedupConfig
	validate    *validator.Validate
	metrics     *observability.Metrics
	logger      zerolog.Logger
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// NewServer creates a new HTTP server with all dependencies. metrics may be nil.
func NewServer(
	cfg Config,
	events repository.EventRepository,
	assessments repository.AssessmentRepository,
	db *database.DB,
	dedupCfg DedupConfig,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Server {
	if dedupCfg.FetchLimit <= 0 {
		dedupCfg.FetchLimit = 100
	}
	if len(dedupCfg.Partitions) == 0 {
		dedupCfg.Partitions = domain.DefaultPartitions
	}
	if dedupCfg.Options == (dedup.Options{}) {
		dedupCfg.Options = dedup.DefaultOptions()
	}

	s := &Server{
		events:      events,
		assessments: assessments,
		db:          db,
		dedupCfg:    dedupCfg,
		validate:    validator.New(),
		metrics:     metrics,
		logger:      logger.With().Str("component", "http-server").Logger(),
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(jsonContentTypeMiddleware)

	// Health endpoints
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Route("/api/v1/events", func(r chi.Router) {
		r.Post("/", s.createEvent)
		r.Get("/", s.listEvents)
		r.Post("/check-duplicates", s.checkDuplicates)

		r.Route("/{eventID}", func(r chi.Router) {
			r.Get("/", s.getEvent)
			r.Post("/approve", s.approveEvent)
			r.Get("/assessment", s.getAssessment)
		})
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := s.db.Health(r.Context())
	if health.Status == "healthy" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": health.Status})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"status":   "unhealthy",
		"database": health.Status,
		"error":    health.Error,
	})
}

// readinessHandler returns readiness status.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	health := s.db.Health(r.Context())
	if health.Status != "healthy" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "not_ready",
			"database": health.Status,
			"error":    health.Error,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"database": "healthy",
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort log; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
