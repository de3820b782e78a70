// Package approval defines the decision data model and the capability
// interfaces callers use to request tool approvals and user questions.
package approval

// State is the lifecycle state of an approval decision.
type State string

const (
	StateApproved State = "approved"
	StateDenied   State = "denied"
	StateTimedOut State = "timed_out"
	// StatePending must never be returned to a caller as a final status.
	// Boundaries map an observed pending status to a denial.
	StatePending State = "pending"
)

// Status is the outcome of a tool approval request.
type Status struct {
	State  State  `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Approved returns an approved status.
func Approved() Status {
	return Status{State: StateApproved}
}

// Denied returns a denied status with an optional reason.
func Denied(reason string) Status {
	return Status{State: StateDenied, Reason: reason}
}

// TimedOut returns a timed-out status.
func TimedOut() Status {
	return Status{State: StateTimedOut}
}

// Pending returns a pending status. Valid only while a decision is
// outstanding, never as a final value.
func Pending() Status {
	return Status{State: StatePending}
}

// Final reports whether the status is a terminal decision.
func (s Status) Final() bool {
	return s.State == StateApproved || s.State == StateDenied || s.State == StateTimedOut
}
