package events

import (
	"time"

	"github.com/arbiterhq/arbiter/internal/approval"
)

// DecisionRequiredData is the payload of a decision_required event.
type DecisionRequiredData struct {
	RequestID   string    `json:"request_id"`
	Kind        string    `json:"kind"`
	ToolName    string    `json:"tool_name,omitempty"`
	ToolCallID  string    `json:"tool_call_id"`
	Questions   int       `json:"questions,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
	TimeoutAt   time.Time `json:"timeout_at"`
}

// DecisionResolvedData is the payload of a decision_resolved event.
type DecisionResolvedData struct {
	RequestID  string    `json:"request_id"`
	Kind       string    `json:"kind"`
	Outcome    string    `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// DecisionRequired builds the lifecycle event announcing a decision that
// needs a human, keyed by the owning execution process.
func DecisionRequired(req approval.Request) Event {
	return NewEvent(EventDecisionRequired, req.ExecutionProcessID.String(), DecisionRequiredData{
		RequestID:   req.ID,
		Kind:        string(req.Kind),
		ToolName:    req.ToolName,
		ToolCallID:  req.ToolCallID,
		Questions:   len(req.Questions),
		RequestedAt: req.CreatedAt,
		TimeoutAt:   req.TimeoutAt,
	})
}

// DecisionResolved builds the lifecycle event announcing a terminal outcome.
func DecisionResolved(req approval.Request, outcome, reason string) Event {
	return NewEvent(EventDecisionResolved, req.ExecutionProcessID.String(), DecisionResolvedData{
		RequestID:  req.ID,
		Kind:       string(req.Kind),
		Outcome:    outcome,
		Reason:     reason,
		ResolvedAt: time.Now(),
	})
}
