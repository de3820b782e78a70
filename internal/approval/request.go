package approval

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout is how long a decision waits for a human before timing out.
const DefaultTimeout = time.Hour

// Kind distinguishes the two decision flavors.
type Kind string

const (
	KindApproval Kind = "approval"
	KindQuestion Kind = "question"
)

// Request describes one outstanding decision to be brokered.
type Request struct {
	ID                 string          `json:"id"`
	Kind               Kind            `json:"kind"`
	ToolCallID         string          `json:"tool_call_id"`
	ExecutionProcessID uuid.UUID       `json:"execution_process_id"`
	ToolName           string          `json:"tool_name,omitempty"`
	ToolInput          json.RawMessage `json:"tool_input,omitempty"`
	Questions          []Question      `json:"questions,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	TimeoutAt          time.Time       `json:"timeout_at"`
}

// NewApprovalRequest builds a tool approval request with a fresh id and the
// default timeout window.
func NewApprovalRequest(processID uuid.UUID, toolCallID, toolName string, toolInput json.RawMessage) Request {
	now := time.Now()
	return Request{
		ID:                 uuid.NewString(),
		Kind:               KindApproval,
		ToolCallID:         toolCallID,
		ExecutionProcessID: processID,
		ToolName:           toolName,
		ToolInput:          toolInput,
		CreatedAt:          now,
		TimeoutAt:          now.Add(DefaultTimeout),
	}
}

// WithTimeout returns a copy of the request with its deadline recomputed
// from the configured window. Non-positive durations keep the default.
func (r Request) WithTimeout(d time.Duration) Request {
	if d > 0 {
		r.TimeoutAt = r.CreatedAt.Add(d)
	}
	return r
}

// NewQuestionRequest builds a user question request with a fresh id and the
// default timeout window.
func NewQuestionRequest(processID uuid.UUID, toolCallID string, questions []Question) Request {
	now := time.Now()
	return Request{
		ID:                 uuid.NewString(),
		Kind:               KindQuestion,
		ToolCallID:         toolCallID,
		ExecutionProcessID: processID,
		Questions:          questions,
		CreatedAt:          now,
		TimeoutAt:          now.Add(DefaultTimeout),
	}
}
