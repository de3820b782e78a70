// Package decision implements the coordination core for human-in-the-loop
// decisions: a concurrent registry of pending approvals and questions, a
// multicast waiter per decision, and a timeout racer that guarantees every
// decision reaches exactly one terminal outcome.
package decision

import (
	"github.com/arbiterhq/arbiter/internal/approval"
	"github.com/arbiterhq/arbiter/internal/logs"
)

// Outcome is the immutable terminal value of a decision. Exactly one of the
// two payloads is meaningful, selected by Kind.
type Outcome struct {
	Kind     approval.Kind      `json:"kind"`
	Status   approval.Status    `json:"status"`
	Response *approval.Response `json:"response,omitempty"`
}

// ApprovalOutcome wraps a final approval status.
func ApprovalOutcome(status approval.Status) Outcome {
	return Outcome{Kind: approval.KindApproval, Status: status}
}

// QuestionOutcome wraps a user question response.
func QuestionOutcome(resp approval.Response) Outcome {
	return Outcome{
		Kind:     approval.KindQuestion,
		Status:   approval.Approved(),
		Response: &resp,
	}
}

// TimedOut builds the terminal outcome produced by the timeout racer.
func TimedOut(kind approval.Kind) Outcome {
	return Outcome{Kind: kind, Status: approval.TimedOut()}
}

// IsTimeout reports whether the outcome was produced by the timeout racer.
func (o Outcome) IsTimeout() bool {
	return o.Status.State == approval.StateTimedOut
}

// ToolState maps the outcome to the terminal state of the correlated
// tool-use log entry.
func (o Outcome) ToolState() logs.ToolState {
	switch o.Status.State {
	case approval.StateApproved:
		return logs.ToolSuccess
	case approval.StateDenied:
		return logs.ToolDenied
	default:
		return logs.ToolTimedOut
	}
}

func (o Outcome) String() string {
	if o.Kind == approval.KindQuestion && o.Response != nil {
		return "answered"
	}
	return string(o.Status.State)
}
