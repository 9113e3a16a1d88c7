package trigger

// Trigger types a docker event can encounter in pipeline definitions. Only
// TriggerTypeDocker participates in docker matching; triggers of any other
// type (git, cron, webhook, ...) never match a docker event.
const TriggerTypeDocker = "docker"

// Trigger is a pipeline-owned rule describing which events start the
// pipeline. Account, Repository and Tag are pointers because absent and
// present-but-empty mean different things: an absent field leaves the
// trigger ineligible, while a blank tag acts as a wildcard.
type Trigger struct {
	ID         string  `json:"id,omitempty"`
	Type       string  `json:"type"`
	Enabled    bool    `json:"enabled"`
	Account    *string `json:"account,omitempty"`
	Repository *string `json:"repository,omitempty"`
	Tag        *string `json:"tag,omitempty"`
}

// Pipeline is a read-only snapshot of one configured delivery pipeline.
// Matching never mutates it; the cache owns the live copy.
type Pipeline struct {
	ID          string    `json:"id"`
	Application string    `json:"application"`
	Name        string    `json:"name"`
	Disabled    bool      `json:"disabled,omitempty"`
	Triggers    []Trigger `json:"triggers,omitempty"`
}

// Invocation is the payload handed to the pipeline initiator: a copy of the
// matched trigger, the artifacts the event produced, and the event ID so a
// launch can be traced back to what caused it. Ephemeral, never persisted.
type Invocation struct {
	EventID           string     `json:"event_id,omitempty"`
	Trigger           Trigger    `json:"trigger"`
	ReceivedArtifacts []Artifact `json:"received_artifacts"`
}

// String returns a pointer to s. Definition payloads use pointer fields to
// distinguish absent values from empty ones.
func String(s string) *string {
	return &s
}
