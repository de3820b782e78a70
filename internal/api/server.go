// Package api provides the REST and WebSocket server for arbiter. The
// human-response boundary (answer submission) lands here and is forwarded
// into the decision registry; Resolve is the only core entry point called.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/arbiterhq/arbiter/internal/db"
	"github.com/arbiterhq/arbiter/internal/decision"
	"github.com/arbiterhq/arbiter/internal/events"
	"github.com/arbiterhq/arbiter/internal/session"
)

// Server serves the decision API.
type Server struct {
	registry  *decision.Registry
	publisher events.Publisher
	database  *db.DB
	sessions  *session.Manager
	logger    *slog.Logger
	mux       *http.ServeMux
	ws        *WSHandler
}

// NewServer creates the API server. database may be nil when persistence
// is disabled; sessions may be nil when the process surface is unused.
func NewServer(registry *decision.Registry, publisher events.Publisher, database *db.DB, sessions *session.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		registry:  registry,
		publisher: publisher,
		database:  database,
		sessions:  sessions,
		logger:    logger,
		mux:       http.NewServeMux(),
	}
	s.ws = NewWSHandler(publisher, logger)
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/decisions", s.handleListDecisions)
	s.mux.HandleFunc("POST /api/approvals/{id}", s.handleRespondApproval)
	s.mux.HandleFunc("POST /api/questions/{id}/respond", s.handleRespondQuestion)
	s.mux.HandleFunc("GET /api/decisions/audit", s.handleAudit)
	s.mux.HandleFunc("POST /api/processes/{id}", s.handleOpenProcess)
	s.mux.HandleFunc("DELETE /api/processes/{id}", s.handleCloseProcess)
	s.mux.HandleFunc("GET /api/processes/{id}/log", s.handleProcessLog)
	s.mux.Handle("GET /api/events", s.ws)
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.ws.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"pending": s.registry.PendingCount(),
	})
}

// jsonResponse writes a JSON response with the given status.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// jsonError writes a JSON error response.
func (s *Server) jsonError(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]any{"error": message})
}
