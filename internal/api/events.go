// internal/api/events.go
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/FairForge/catapult/internal/feed"
	"github.com/FairForge/catapult/internal/trigger"
)

// maxEventBody caps event payloads; registry notifications are small and
// anything larger is noise.
const maxEventBody = 1 << 20

// eventSchema validates the normalized event payload before decoding.
// Unknown event types pass validation on purpose: routing decides what is
// actually handled, ingest only checks shape.
const eventSchema = `{
  "type": "object",
  "required": ["type", "content"],
  "properties": {
    "id": {"type": "string"},
    "type": {"type": "string", "minLength": 1},
    "content": {
      "type": "object",
      "required": ["registry", "repository", "tag"],
      "properties": {
        "registry": {"type": "string", "minLength": 1},
        "repository": {"type": "string", "minLength": 1},
        "tag": {"type": "string", "minLength": 1}
      }
    }
  }
}`

var eventSchemaLoader = gojsonschema.NewStringLoader(eventSchema)

func (s *Server) handlePostEvent(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		s.metrics.RecordEventRejected("content_type")
		writeError(w, http.StatusUnsupportedMediaType, "expected application/json")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody+1))
	if err != nil {
		s.metrics.RecordEventRejected("read")
		writeError(w, http.StatusBadRequest, "read body")
		return
	}
	if len(body) > maxEventBody {
		s.metrics.RecordEventRejected("too_large")
		writeError(w, http.StatusRequestEntityTooLarge, "event payload too large")
		return
	}

	result, err := gojsonschema.Validate(eventSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		s.metrics.RecordEventRejected("malformed")
		writeError(w, http.StatusBadRequest, "malformed JSON")
		return
	}
	if !result.Valid() {
		s.metrics.RecordEventRejected("schema")
		violations := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			violations = append(violations, desc.String())
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":      "event failed validation",
			"violations": violations,
		})
		return
	}

	var event trigger.Event
	if err := json.Unmarshal(body, &event); err != nil {
		s.metrics.RecordEventRejected("malformed")
		writeError(w, http.StatusBadRequest, "malformed event")
		return
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	s.accept(w, r, event, "api")
}

// accept archives and enqueues one validated event.
func (s *Server) accept(w http.ResponseWriter, r *http.Request, event trigger.Event, source string) {
	if s.archiver != nil {
		s.archiver.Archive(r.Context(), event)
	}

	if err := s.sink.Submit(event); err != nil {
		if errors.Is(err, feed.ErrQueueFull) || errors.Is(err, feed.ErrClosed) {
			s.metrics.RecordEventRejected("queue_full")
			writeError(w, http.StatusServiceUnavailable, "event queue full")
			return
		}
		s.logger.Error("event submit failed", zap.String("event_id", event.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "submit event")
		return
	}

	s.metrics.RecordEventReceived(string(event.Type), source)
	s.logger.Info("event accepted",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("source", source),
		zap.String("repository", event.Content.Repository),
		zap.String("tag", event.Content.Tag))

	writeJSON(w, http.StatusAccepted, map[string]any{"id": event.ID})
}

func isJSONContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return false
	}
	ct = strings.TrimSpace(strings.Split(ct, ";")[0])
	return strings.EqualFold(ct, "application/json")
}
