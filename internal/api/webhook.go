// internal/api/webhook.go
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/FairForge/catapult/internal/feed"
	"github.com/FairForge/catapult/internal/trigger"
)

// registryNotification is the Docker Registry v2 notification envelope.
// Registries batch several events per delivery.
type registryNotification struct {
	Events []registryEvent `json:"events"`
}

type registryEvent struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	Timestamp string         `json:"timestamp"`
	Target    registryTarget `json:"target"`
}

type registryTarget struct {
	MediaType  string `json:"mediaType"`
	Repository string `json:"repository"`
	Tag        string `json:"tag"`
}

// handleRegistryWebhook turns a registry notification batch into events.
// The {account} path segment names the configured registry binding and
// becomes Content.Registry; only tagged push actions are interesting —
// digest-only manifest pushes carry no tag to match on and are skipped.
func (s *Server) handleRegistryWebhook(w http.ResponseWriter, r *http.Request) {
	account := mux.Vars(r)["account"]
	if !s.knownAccount(account) {
		s.metrics.RecordEventRejected("unknown_account")
		writeError(w, http.StatusNotFound, "unknown registry account")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody+1))
	if err != nil || len(body) > maxEventBody {
		s.metrics.RecordEventRejected("read")
		writeError(w, http.StatusBadRequest, "read body")
		return
	}

	var notification registryNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		s.metrics.RecordEventRejected("malformed")
		writeError(w, http.StatusBadRequest, "malformed notification")
		return
	}

	accepted := 0
	skipped := 0
	for _, re := range notification.Events {
		if re.Action != "push" || re.Target.Tag == "" {
			skipped++
			continue
		}

		event := trigger.Event{
			ID:   re.ID,
			Type: trigger.EventTypeDocker,
			Content: trigger.Content{
				Registry:   account,
				Repository: re.Target.Repository,
				Tag:        re.Target.Tag,
			},
		}
		if event.ID == "" {
			event.ID = uuid.New().String()
		}

		if s.archiver != nil {
			s.archiver.Archive(r.Context(), event)
		}
		if err := s.sink.Submit(event); err != nil {
			if errors.Is(err, feed.ErrQueueFull) || errors.Is(err, feed.ErrClosed) {
				s.metrics.RecordEventRejected("queue_full")
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{
					"error":    "event queue full",
					"accepted": accepted,
				})
				return
			}
			s.logger.Error("webhook event submit failed",
				zap.String("event_id", event.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "submit event")
			return
		}
		s.metrics.RecordEventReceived(string(trigger.EventTypeDocker), "registry")
		accepted++
	}

	s.logger.Info("registry notification processed",
		zap.String("account", account),
		zap.Int("accepted", accepted),
		zap.Int("skipped", skipped))

	writeJSON(w, http.StatusAccepted, map[string]any{
		"accepted": accepted,
		"skipped":  skipped,
	})
}

// knownAccount reports whether the account is configured. An empty account
// list accepts anything, which keeps dev setups friction-free.
func (s *Server) knownAccount(account string) bool {
	if len(s.config.Accounts) == 0 {
		return true
	}
	for _, a := range s.config.Accounts {
		if a.Name == account {
			return true
		}
	}
	return false
}
