// internal/journal/journal.go
// Package journal records the outcome of every pipeline dispatch so operators
// can answer "what did this event start" after the fact.
package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status represents the outcome of a dispatch
type Status string

const (
	StatusDispatched Status = "dispatched"
	StatusFailed     Status = "failed"
)

// Entry is one pipeline dispatch attempt.
type Entry struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	EventID     string        `json:"event_id" db:"event_id"`
	PipelineID  string        `json:"pipeline_id" db:"pipeline_id"`
	Application string        `json:"application" db:"application"`
	Pipeline    string        `json:"pipeline" db:"pipeline"`
	TriggerID   string        `json:"trigger_id,omitempty" db:"trigger_id"`
	Artifact    string        `json:"artifact,omitempty" db:"artifact"`
	Status      Status        `json:"status" db:"status"`
	Error       string        `json:"error,omitempty" db:"error_msg"`
	Duration    time.Duration `json:"duration" db:"duration_ms"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

// Query filters a dispatch listing. Nil fields match everything.
type Query struct {
	EventID     *string
	PipelineID  *string
	Application *string
	Status      *Status
	Limit       int
}

// Stats summarizes the journal for the admin API.
type Stats struct {
	Total      int64 `json:"total"`
	Dispatched int64 `json:"dispatched"`
	Failed     int64 `json:"failed"`
}

// Store persists dispatch entries. List returns newest first.
type Store interface {
	Record(ctx context.Context, entry *Entry) error
	List(ctx context.Context, q Query) ([]*Entry, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

func (q Query) matches(e *Entry) bool {
	if q.EventID != nil && e.EventID != *q.EventID {
		return false
	}
	if q.PipelineID != nil && e.PipelineID != *q.PipelineID {
		return false
	}
	if q.Application != nil && e.Application != *q.Application {
		return false
	}
	if q.Status != nil && e.Status != *q.Status {
		return false
	}
	return true
}

func (q Query) limit() int {
	if q.Limit <= 0 {
		return 100
	}
	if q.Limit > 1000 {
		return 1000
	}
	return q.Limit
}
