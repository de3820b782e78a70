// Package logs provides the normalized conversation log shared between an
// agent execution and its observers. The log is append-only; entries are
// only ever updated in place through positional replace patches.
package logs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/arbiterhq/arbiter/internal/approval"
)

// EntryType discriminates normalized log entries.
type EntryType string

const (
	EntryToolUse EntryType = "tool_use"
	EntryMessage EntryType = "message"
	// EntryRaw carries a verbatim line forwarded from the agent process.
	EntryRaw EntryType = "raw"
)

// ToolState is the state machine of a tool-use entry:
// created -> pending_approval | pending_question -> success | denied | timed_out.
type ToolState string

const (
	ToolCreated         ToolState = "created"
	ToolPendingApproval ToolState = "pending_approval"
	ToolPendingQuestion ToolState = "pending_question"
	ToolSuccess         ToolState = "success"
	ToolDenied          ToolState = "denied"
	ToolTimedOut        ToolState = "timed_out"
)

// ToolStatus is the status of a tool-use entry. The pending states carry the
// decision id and deadlines so log observers can render pending UI.
type ToolStatus struct {
	State       ToolState           `json:"state"`
	RequestID   string              `json:"request_id,omitempty"`
	RequestedAt time.Time           `json:"requested_at,omitzero"`
	TimeoutAt   time.Time           `json:"timeout_at,omitzero"`
	Questions   []approval.Question `json:"questions,omitempty"`
}

// PendingApproval builds the pending_approval status for a request.
func PendingApproval(req approval.Request) ToolStatus {
	return ToolStatus{
		State:       ToolPendingApproval,
		RequestID:   req.ID,
		RequestedAt: req.CreatedAt,
		TimeoutAt:   req.TimeoutAt,
	}
}

// PendingQuestion builds the pending_question status for a request,
// carrying the question payload.
func PendingQuestion(req approval.Request) ToolStatus {
	return ToolStatus{
		State:       ToolPendingQuestion,
		RequestID:   req.ID,
		RequestedAt: req.CreatedAt,
		TimeoutAt:   req.TimeoutAt,
		Questions:   req.Questions,
	}
}

// Entry is one normalized conversation log entry.
type Entry struct {
	Type      EntryType       `json:"entry_type"`
	Content   string          `json:"content,omitempty"`
	ToolName  string          `json:"tool_name,omitempty"`
	Status    *ToolStatus     `json:"status,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Timestamp time.Time       `json:"timestamp,omitzero"`
}

// NewToolUse creates a tool-use entry in the created state with the call id
// recorded in metadata.
func NewToolUse(toolName, toolCallID string, input json.RawMessage) Entry {
	meta, _ := json.Marshal(map[string]any{
		"tool_call_id": toolCallID,
		"tool_input":   input,
	})
	return Entry{
		Type:      EntryToolUse,
		ToolName:  toolName,
		Status:    &ToolStatus{State: ToolCreated},
		Metadata:  meta,
		Timestamp: time.Now(),
	}
}

// NewMessage creates a plain message entry.
func NewMessage(content string) Entry {
	return Entry{Type: EntryMessage, Content: content, Timestamp: time.Now()}
}

// ToolCallID extracts the call identifier from the entry metadata, or ""
// when none is present.
func (e Entry) ToolCallID() string {
	if len(e.Metadata) == 0 {
		return ""
	}
	return gjson.GetBytes(e.Metadata, "tool_call_id").String()
}

// WithStatus returns a copy of the entry with the given tool status.
// It reports false when the entry is not a tool-use entry.
func (e Entry) WithStatus(status ToolStatus) (Entry, bool) {
	if e.Type != EntryToolUse {
		return Entry{}, false
	}
	s := status
	e.Status = &s
	return e, true
}

func (e Entry) String() string {
	if e.Type == EntryToolUse {
		state := ToolState("")
		if e.Status != nil {
			state = e.Status.State
		}
		return fmt.Sprintf("tool_use(%s, %s)", e.ToolName, state)
	}
	return string(e.Type)
}
