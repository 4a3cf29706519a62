package canopy

import (
	"time"

	"github.com/google/uuid"
)

// Event represents a named occurrence dispatched to every active state
type Event interface {
	GetName() string
	GetData() any
	GetID() string
	GetTimestamp() time.Time
	GetMetadata() map[string]any
}

// BaseEvent provides a basic implementation of the Event interface
type BaseEvent struct {
	name      string
	data      any
	id        string
	timestamp time.Time
	metadata  map[string]any
}

// NewEvent creates a new basic event
func NewEvent(name string, data any) Event {
	return &BaseEvent{
		name:      name,
		data:      data,
		id:        uuid.New().String(),
		timestamp: time.Now(),
		metadata:  make(map[string]any),
	}
}

// NewEventWithMetadata creates a new event with metadata
func NewEventWithMetadata(name string, data any, metadata map[string]any) Event {
	return &BaseEvent{
		name:      name,
		data:      data,
		id:        uuid.New().String(),
		timestamp: time.Now(),
		metadata:  metadata,
	}
}

// GetName returns the event name
func (e *BaseEvent) GetName() string {
	return e.name
}

// GetData returns the event payload
func (e *BaseEvent) GetData() any {
	return e.data
}

// GetID returns the unique event identifier
func (e *BaseEvent) GetID() string {
	return e.id
}

// GetTimestamp returns the event creation time
func (e *BaseEvent) GetTimestamp() time.Time {
	return e.timestamp
}

// GetMetadata returns a copy of the event metadata
func (e *BaseEvent) GetMetadata() map[string]any {
	result := make(map[string]any, len(e.metadata))
	for k, v := range e.metadata {
		result[k] = v
	}
	return result
}

// DispatchResult represents the outcome of dispatching one event
type DispatchResult struct {
	// Delivered lists the states whose handler ran, children before parents
	Delivered []StateType
	// Skipped lists states that were active when dispatch began but were
	// exited by an earlier handler in the same pass
	Skipped []StateType
	Error   error
}

// Success returns true if the event reached the active states without error
func (r *DispatchResult) Success() bool {
	return r.Error == nil
}
