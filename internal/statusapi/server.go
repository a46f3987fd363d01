// Package statusapi exposes an optional local HTTP surface for liveness,
// current VRRP session state, and Prometheus-text metrics. It is started
// only when the configuration names a listen address.
package statusapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ios-xr/xrd-ha-agent/internal/vrrpstate"
)

// StateProvider reports the current value of every bound session.
type StateProvider interface {
	All() map[vrrpstate.Session]vrrpstate.State
}

// MetricsProvider renders metrics in Prometheus text exposition format.
type MetricsProvider interface {
	MetricsText() string
}

// Server is a lightweight HTTP API exposing /healthz, /status, and
// /metrics.
type Server struct {
	addr    string
	logger  *slog.Logger
	state   StateProvider
	metrics MetricsProvider
	httpSrv *http.Server
}

// New constructs a Server. metrics may be nil, in which case /metrics
// responds 404.
func New(addr string, state StateProvider, metrics MetricsProvider, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{addr: addr, state: state, metrics: metrics, logger: logger}
}

// Start starts the HTTP server in a background goroutine. Call Stop to shut
// it down.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	s.httpSrv = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("starting status API server", "addr", s.addr)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("status API server error", "error", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	s.logger.Info("stopping status API server")
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sessions := make([]map[string]any, 0)
	for sess, state := range s.state.All() {
		sessions = append(sessions, map[string]any{
			"xr_interface": sess.Interface,
			"vrid":         sess.VRID,
			"state":        state.String(),
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	if _, err := w.Write([]byte(s.metrics.MetricsText())); err != nil {
		s.logger.Error("failed to write metrics response", "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}
