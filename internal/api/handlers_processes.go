package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/internal/session"
)

// handleOpenProcess announces an execution process and opens its session:
// a fresh conversation log attached to the registry plus the protocol
// client configured from the approvals settings.
func (s *Server) handleOpenProcess(w http.ResponseWriter, r *http.Request) {
	processID, ok := s.processID(w, r)
	if !ok {
		return
	}

	if _, err := s.sessions.Open(processID); err != nil {
		if errors.Is(err, session.ErrAlreadyOpen) {
			s.jsonError(w, http.StatusConflict, "session already open")
			return
		}
		s.logger.Error("failed to open session", "process_id", processID, "error", err)
		s.jsonError(w, http.StatusInternalServerError, "failed to open session")
		return
	}
	s.jsonResponse(w, http.StatusCreated, map[string]any{"process_id": processID.String()})
}

// handleCloseProcess closes the session for an execution process.
func (s *Server) handleCloseProcess(w http.ResponseWriter, r *http.Request) {
	processID, ok := s.processID(w, r)
	if !ok {
		return
	}

	if err := s.sessions.Close(processID); err != nil {
		s.jsonError(w, http.StatusNotFound, "session not open")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"process_id": processID.String()})
}

// handleProcessLog returns the conversation log of an open session.
func (s *Server) handleProcessLog(w http.ResponseWriter, r *http.Request) {
	processID, ok := s.processID(w, r)
	if !ok {
		return
	}

	sess, ok := s.sessions.Get(processID)
	if !ok {
		s.jsonError(w, http.StatusNotFound, "session not open")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"process_id": processID.String(),
		"entries":    sess.Log.History(),
	})
}

// processID parses the path id and checks the session surface is enabled.
func (s *Server) processID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if s.sessions == nil {
		s.jsonError(w, http.StatusServiceUnavailable, "sessions disabled")
		return uuid.UUID{}, false
	}
	processID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid process id")
		return uuid.UUID{}, false
	}
	return processID, true
}
