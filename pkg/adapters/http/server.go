// Package http serves a running workflow over a small JSON API.
package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/calyptra/flume/pkg/graph"
	"github.com/calyptra/flume/pkg/schema"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Engine defines the interface the handler needs from the graph core.
// *graph.Workflow satisfies it.
type Engine interface {
	Run() (graph.Values, error)
	SetInputValues(values graph.Values) error
	Snapshot() (*schema.Snapshot, error)
}

// Server exposes an engine over HTTP.
type Server struct {
	Engine Engine
	Logger *slog.Logger
}

// Option configures the handler.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	metrics http.Handler
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithMetricsHandler mounts the given handler at /metrics, typically
// promhttp.Handler().
func WithMetricsHandler(h http.Handler) Option {
	return func(c *config) { c.metrics = h }
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	cfg := &config{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}
	server := &Server{Engine: engine, Logger: cfg.logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", server.GetHealth)
	r.Get("/graph", server.GetGraph)
	r.Post("/run", server.Run)
	if cfg.metrics != nil {
		r.Handle("/metrics", cfg.metrics)
	}
	return r
}

// runRequest is the POST /run body: channel values to apply before the
// run, keyed by exposed input label.
type runRequest struct {
	Inputs map[string]any `json:"inputs"`
}

// runResponse carries the output record of a completed run.
type runResponse struct {
	Outputs map[string]any `json:"outputs"`
}

// Run handles the POST /run request: apply inputs, execute the graph in
// dependency order, return the outputs.
func (s *Server) Run(w http.ResponseWriter, r *http.Request) {
	var body runRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			s.Logger.Warn("run: invalid request body", "err", err)
			return
		}
	}

	if len(body.Inputs) > 0 {
		if err := s.Engine.SetInputValues(graph.Values(body.Inputs)); err != nil {
			http.Error(w, fmt.Sprintf("Input error: %v", err), http.StatusBadRequest)
			s.Logger.Warn("run: rejected inputs", "err", err)
			return
		}
	}

	outputs, err := s.Engine.Run()
	if err != nil {
		http.Error(w, fmt.Sprintf("Run error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("run failed", "err", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(runResponse{Outputs: outputs}); err != nil {
		s.Logger.Error("run response encode failed", "err", err)
	}
}

// GetGraph handles the GET /graph request with the current snapshot.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Engine.Snapshot()
	if err != nil {
		http.Error(w, fmt.Sprintf("Snapshot error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("snapshot failed", "err", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.Logger.Error("graph response encode failed", "err", err)
	}
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
