// internal/api/server.go
// Package api exposes the ingest surface: the endpoint the upstream feed
// posts normalized events to, the docker registry webhook receivers, and
// the operational admin API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/FairForge/catapult/internal/config"
	"github.com/FairForge/catapult/internal/metrics"
	"github.com/FairForge/catapult/internal/trigger"
)

// EventSink accepts events for processing. The feed queue implements it.
type EventSink interface {
	Submit(event trigger.Event) error
}

// Archiver preserves accepted events. Optional; nil disables archiving.
type Archiver interface {
	Archive(ctx context.Context, event trigger.Event)
}

// Server is the ingest HTTP server.
type Server struct {
	config     *config.Config
	logger     *zap.Logger
	metrics    *metrics.Collector
	sink       EventSink
	archiver   Archiver
	router     *mux.Router
	httpServer *http.Server
	limiter    *RateLimiter
	startTime  time.Time
}

// NewServer wires the ingest routes and middleware.
func NewServer(cfg *config.Config, sink EventSink, archiver Archiver, collector *metrics.Collector, logger *zap.Logger) *Server {
	s := &Server{
		config:    cfg,
		logger:    logger,
		metrics:   collector,
		sink:      sink,
		archiver:  archiver,
		router:    mux.NewRouter(),
		limiter:   NewRateLimiter(cfg.Server.RatePerSecond, cfg.Server.RateBurst),
		startTime: time.Now(),
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/readyz", s.handleReady).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	s.router.HandleFunc("/v1/events", s.handlePostEvent).Methods("POST")
	s.router.HandleFunc("/v1/webhooks/registry/{account}", s.handleRegistryWebhook).Methods("POST")

	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.rateLimitMiddleware)
	s.router.Use(s.authMiddleware)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("ingest server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: serve: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"uptime": time.Since(s.startTime).Seconds(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ready": true})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
