package approval

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the decision id is unknown: never registered, or
	// already consumed by a timeout.
	ErrNotFound = errors.New("decision not found")

	// ErrAlreadyCompleted means another resolver won the race for this id.
	// Automated resolvers treat it as a benign no-op.
	ErrAlreadyCompleted = errors.New("decision already completed")

	// ErrServiceUnavailable means no backend is configured for the
	// requested capability.
	ErrServiceUnavailable = errors.New("approval service unavailable")

	// ErrTimedOut is the terminal outcome of a question that received no
	// answer before its deadline. Callers treat it as a decision value.
	ErrTimedOut = errors.New("question timed out")

	// ErrDuplicateID means a register call reused an id that is still
	// pending. Ids are uuids so this indicates a caller bug.
	ErrDuplicateID = errors.New("decision id already registered")
)

// RequestFailedError wraps a failure in the registration or notification
// step of a decision request.
type RequestFailedError struct {
	Detail string
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("decision request failed: %s", e.Detail)
}

// RequestFailed builds a RequestFailedError from any error or message.
func RequestFailed(err error) *RequestFailedError {
	return &RequestFailedError{Detail: err.Error()}
}
