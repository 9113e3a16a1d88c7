// Package trigger holds the event/trigger data model and the pure matching
// logic that decides which pipelines fire for an inbound event.
package trigger

import (
	"github.com/google/uuid"
)

// EventType discriminates event payloads. Each type with matching semantics
// gets its own monitor; events of unregistered types are ignored.
type EventType string

const (
	// EventTypeDocker identifies a docker image push reported by a registry.
	EventTypeDocker EventType = "docker"
)

// Content carries the image coordinates of a docker event. Registry names
// the configured registry/account binding, not a user identity.
type Content struct {
	Registry   string `json:"registry"`
	Repository string `json:"repository"`
	Tag        string `json:"tag"`
}

// Event is one inbound notification. Immutable once received; each event is
// consumed by exactly one dispatch cycle.
type Event struct {
	ID      string    `json:"id,omitempty"`
	Type    EventType `json:"type"`
	Content Content   `json:"content"`
}

// NewDockerEvent builds a docker event with a fresh ID.
func NewDockerEvent(registry, repository, tag string) Event {
	return Event{
		ID:   uuid.New().String(),
		Type: EventTypeDocker,
		Content: Content{
			Registry:   registry,
			Repository: repository,
			Tag:        tag,
		},
	}
}
