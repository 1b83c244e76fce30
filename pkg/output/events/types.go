// Package events defines the event types emitted during a decision run.
// All events are designed for JSON serialization and CI/CD integration.
//
// This package provides the foundational types that all other event types
// embed. The BaseEvent struct is designed to be embedded in specific
// event types (DecisionEvent, ProgressEvent, etc.).
package events

import "time"

// EventType represents the type of output event.
type EventType string

const (
	// EventTypeStart indicates a run has started.
	EventTypeStart EventType = "start"
	// EventTypeDecision indicates a single applicant decision.
	EventTypeDecision EventType = "decision"
	// EventTypeOverride indicates an approval that rode a compensating path.
	EventTypeOverride EventType = "override"
	// EventTypeProgress indicates a progress update during the run.
	EventTypeProgress EventType = "progress"
	// EventTypeError indicates an error occurred.
	EventTypeError EventType = "error"
	// EventTypeSummary indicates a portfolio summary.
	EventTypeSummary EventType = "summary"
	// EventTypeComplete indicates a run has completed.
	EventTypeComplete EventType = "complete"
)

// Event is the base interface for all events.
type Event interface {
	EventType() EventType
	Timestamp() time.Time
	RunID() string
}

// BaseEvent contains common fields for all events.
// It is designed to be embedded in specific event types.
type BaseEvent struct {
	Type EventType `json:"type"`
	Time time.Time `json:"timestamp"`
	Run  string    `json:"run_id"`
}

// EventType returns the type of this event.
func (e BaseEvent) EventType() EventType { return e.Type }

// Timestamp returns when this event occurred.
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// RunID returns the unique identifier for the run that produced this event.
func (e BaseEvent) RunID() string { return e.Run }
