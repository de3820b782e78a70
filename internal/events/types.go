// Package events provides event types and publishing infrastructure for
// decision lifecycle notifications.
package events

import (
	"time"
)

// EventType defines the type of event.
type EventType string

const (
	// EventDecisionRequired indicates a decision is awaiting a human.
	EventDecisionRequired EventType = "decision_required"
	// EventDecisionResolved indicates a decision reached a terminal outcome.
	EventDecisionResolved EventType = "decision_resolved"
	// EventWarning indicates a non-fatal warning.
	EventWarning EventType = "warning"
)

// Event represents a published event, keyed by the execution process the
// decision belongs to.
type Event struct {
	Type      EventType `json:"type"`
	ProcessID string    `json:"process_id"`
	Data      any       `json:"data"`
	Time      time.Time `json:"time"`
}

// NewEvent creates a new event with the current timestamp.
func NewEvent(eventType EventType, processID string, data any) Event {
	return Event{
		Type:      eventType,
		ProcessID: processID,
		Data:      data,
		Time:      time.Now(),
	}
}

