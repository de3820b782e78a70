package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/arbiterhq/arbiter/internal/approval"
	"github.com/arbiterhq/arbiter/internal/decision"
)

// PendingDecisionView is the wire shape of an outstanding decision.
type PendingDecisionView struct {
	ID                 string              `json:"id"`
	Kind               string              `json:"kind"`
	ToolName           string              `json:"tool_name,omitempty"`
	ToolCallID         string              `json:"tool_call_id"`
	ExecutionProcessID string              `json:"execution_process_id"`
	Questions          []approval.Question `json:"questions,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	TimeoutAt          time.Time           `json:"timeout_at"`
	Correlated         bool                `json:"correlated"`
}

// handleListDecisions returns all pending decisions.
func (s *Server) handleListDecisions(w http.ResponseWriter, r *http.Request) {
	pending := s.registry.Pending()
	views := make([]PendingDecisionView, 0, len(pending))
	for _, p := range pending {
		views = append(views, PendingDecisionView{
			ID:                 p.Request.ID,
			Kind:               string(p.Request.Kind),
			ToolName:           p.Request.ToolName,
			ToolCallID:         p.Request.ToolCallID,
			ExecutionProcessID: p.Request.ExecutionProcessID.String(),
			Questions:          p.Request.Questions,
			CreatedAt:          p.Request.CreatedAt,
			TimeoutAt:          p.Request.TimeoutAt,
			Correlated:         p.Correlated(),
		})
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"decisions": views})
}

// ApprovalSubmission is the request body for resolving a tool approval.
type ApprovalSubmission struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

// handleRespondApproval resolves a pending tool approval.
func (s *Server) handleRespondApproval(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var body ApprovalSubmission
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := approval.Approved()
	if !body.Approved {
		status = approval.Denied(body.Reason)
	}

	outcome, err := s.registry.Resolve(id, decision.ApprovalOutcome(status))
	if err != nil {
		s.resolveError(w, id, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"id":      id,
		"outcome": outcome.String(),
	})
}

// handleRespondQuestion resolves a pending question with user answers.
func (s *Server) handleRespondQuestion(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var body approval.Response
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := s.registry.Resolve(id, decision.QuestionOutcome(body))
	if err != nil {
		s.resolveError(w, id, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"id":      id,
		"outcome": outcome.String(),
	})
}

// resolveError maps registry errors to HTTP statuses. A lost resolve race
// is a conflict, not a server fault: the submission may legally arrive
// zero or more times.
func (s *Server) resolveError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, approval.ErrAlreadyCompleted):
		s.jsonError(w, http.StatusConflict, "decision already completed")
	case errors.Is(err, approval.ErrNotFound):
		s.jsonError(w, http.StatusNotFound, "decision not found")
	default:
		s.logger.Error("resolve failed", "request_id", id, "error", err)
		s.jsonError(w, http.StatusInternalServerError, "resolve failed")
	}
}

// handleAudit returns the persisted decision audit log.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if s.database == nil {
		s.jsonError(w, http.StatusServiceUnavailable, "persistence disabled")
		return
	}
	records, err := s.database.ListDecisionRecords(100)
	if err != nil {
		s.logger.Error("failed to list decision records", "error", err)
		s.jsonError(w, http.StatusInternalServerError, "failed to list decision records")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"records": records})
}
