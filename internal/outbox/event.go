package outbox

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is the processing state of an event
type EventStatus string

const (
	// StatusPending events wait for a worker
	StatusPending EventStatus = "pending"
	// StatusRunning events are locked by a worker
	StatusRunning EventStatus = "running"
	// StatusCompleted events were indexed
	StatusCompleted EventStatus = "completed"
	// StatusFailed events exhausted their attempts
	StatusFailed EventStatus = "failed"
)

// Operation is the kind of entity change an event records
type Operation string

const (
	OpAdd    Operation = "add"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Event is one entity change waiting to be reflected in the indexes
type Event struct {
	ID uuid.UUID `db:"id" json:"id"`
	// EntityType is the entity type name, e.g. "*shop.Order"
	EntityType string `db:"entity_type" json:"entity_type"`
	// EntityID identifies the entity for the EntityLoader
	EntityID  string    `db:"entity_id" json:"entity_id"`
	Operation Operation `db:"operation" json:"operation"`
	// Paths are the changed property paths of an update. Empty means every property.
	Paths       []string    `db:"paths" json:"paths,omitempty"`
	Status      EventStatus `db:"status" json:"status"`
	Attempts    int         `db:"attempts" json:"attempts"`
	MaxAttempts int         `db:"max_attempts" json:"max_attempts"`
	Error       *string     `db:"error" json:"error,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	RunAt       time.Time   `db:"run_at" json:"run_at"`
	StartedAt   *time.Time  `db:"started_at" json:"started_at,omitempty"`
	CompletedAt *time.Time  `db:"completed_at" json:"completed_at,omitempty"`
	LockedBy    *string     `db:"locked_by" json:"locked_by,omitempty"`
	LockedAt    *time.Time  `db:"locked_at" json:"locked_at,omitempty"`
}

// NewEvent creates a pending event
func NewEvent(entityType, entityID string, op Operation, paths ...string) *Event {
	now := time.Now()
	return &Event{
		ID:          uuid.New(),
		EntityType:  entityType,
		EntityID:    entityID,
		Operation:   op,
		Paths:       paths,
		Status:      StatusPending,
		MaxAttempts: 3,
		CreatedAt:   now,
		RunAt:       now,
	}
}

// IsRetryable returns true if the event can be attempted again
func (e *Event) IsRetryable() bool {
	return e.Attempts < e.MaxAttempts
}
