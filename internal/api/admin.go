// internal/api/admin.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/FairForge/catapult/internal/journal"
	"github.com/FairForge/catapult/internal/trigger"
)

// SnapshotReader exposes the pipeline cache to the admin API.
type SnapshotReader interface {
	Pipelines(ctx context.Context) ([]trigger.Pipeline, error)
	Info() (pipelines int, age time.Duration, ok bool)
}

// QueueReader exposes the feed queue depth.
type QueueReader interface {
	Depth() int
}

// AdminServer is the read-only ops surface on the admin port.
type AdminServer struct {
	store      journal.Store
	cache      SnapshotReader
	queue      QueueReader
	logger     *zap.Logger
	httpServer *http.Server
}

// NewAdminServer wires the admin routes.
func NewAdminServer(port int, store journal.Store, cache SnapshotReader, queue QueueReader, logger *zap.Logger) *AdminServer {
	a := &AdminServer{
		store:  store,
		cache:  cache,
		queue:  queue,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Route("/admin/v1", func(r chi.Router) {
		r.Get("/dispatches", a.handleListDispatches)
		r.Get("/pipelines", a.handleListPipelines)
		r.Get("/stats", a.handleStats)
	})

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return a
}

// Handler exposes the routed handler for tests.
func (a *AdminServer) Handler() http.Handler {
	return a.httpServer.Handler
}

// Start serves until the listener fails or Shutdown is called.
func (a *AdminServer) Start() error {
	a.logger.Info("admin server listening", zap.String("addr", a.httpServer.Addr))
	if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: admin serve: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (a *AdminServer) Shutdown(ctx context.Context) error {
	return a.httpServer.Shutdown(ctx)
}

func (a *AdminServer) handleListDispatches(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	var q journal.Query
	if v := params.Get("event"); v != "" {
		q.EventID = &v
	}
	if v := params.Get("pipeline"); v != "" {
		q.PipelineID = &v
	}
	if v := params.Get("application"); v != "" {
		q.Application = &v
	}
	if v := params.Get("status"); v != "" {
		status := journal.Status(v)
		if status != journal.StatusDispatched && status != journal.StatusFailed {
			writeError(w, http.StatusBadRequest, "unknown status "+v)
			return
		}
		q.Status = &status
	}
	if v := params.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit "+v)
			return
		}
		q.Limit = limit
	}

	entries, err := a.store.List(r.Context(), q)
	if err != nil {
		a.logger.Error("dispatch listing failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list dispatches")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dispatches": entries})
}

func (a *AdminServer) handleListPipelines(w http.ResponseWriter, r *http.Request) {
	pipelines, err := a.cache.Pipelines(r.Context())
	if err != nil {
		a.logger.Error("pipeline listing failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "pipeline snapshot unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pipelines": pipelines})
}

func (a *AdminServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.store.Stats(r.Context())
	if err != nil {
		a.logger.Error("journal stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "journal stats")
		return
	}

	body := map[string]any{
		"queue_depth": a.queue.Depth(),
		"dispatches":  stats,
	}
	if count, age, ok := a.cache.Info(); ok {
		body["snapshot"] = map[string]any{
			"pipelines":   count,
			"age_seconds": age.Seconds(),
		}
	}

	writeJSON(w, http.StatusOK, body)
}
