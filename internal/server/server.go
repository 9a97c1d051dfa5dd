// Package server exposes the admin HTTP surface: health, metrics, and
// the reindex trigger.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stelae/stelae/internal/index"
	"github.com/stelae/stelae/internal/telemetry"
)

// DocCounter reports how many documents an index currently holds.
type DocCounter interface {
	DocCount() (uint64, error)
}

// Server is the admin HTTP server. It carries no search surface; the
// indices it reports on are consumed by a separate query service.
type Server struct {
	http     *http.Server
	sync     *index.Synchronizer
	objects  DocCounter
	metadata DocCounter
	metrics  *telemetry.Metrics
}

// New builds the admin server. objects, metadata, and metrics may be
// nil; the corresponding status fields and the /metrics endpoint
// degrade gracefully.
func New(addr string, sync *index.Synchronizer, objects, metadata DocCounter, metrics *telemetry.Metrics) *Server {
	s := &Server{
		sync:     sync,
		objects:  objects,
		metadata: metadata,
		metrics:  metrics,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/admin/status", s.handleStatus)
	r.Post("/admin/reindex", s.handleReindex)
	if metrics != nil {
		r.Get("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}).ServeHTTP)
	}

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the server's router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks until the server stops. http.ErrServerClosed
// is swallowed so a clean shutdown returns nil.
func (s *Server) ListenAndServe() error {
	slog.Info("admin server listening", slog.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus reports the rebuild flag and index document counts.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := map[string]any{
		"rebuilding": s.sync.Rebuilding(),
	}
	if s.objects != nil {
		if n, err := s.objects.DocCount(); err == nil {
			status["object_documents"] = n
		}
	}
	if s.metadata != nil {
		if n, err := s.metadata.DocCount(); err == nil {
			status["metadata_documents"] = n
		}
	}
	writeJSON(w, http.StatusOK, status)
}

// handleReindex starts a full rebuild in the background. A rebuild
// already in flight yields 409; the caller polls /admin/status for
// completion.
func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	// The rebuild must outlive the request.
	if !s.sync.TriggerRebuildAsync(context.WithoutCancel(r.Context())) {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "a full rebuild is already running",
		})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "rebuild started"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("failed to write response", slog.String("error", err.Error()))
	}
}
