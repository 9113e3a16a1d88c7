// internal/monitor/monitor.go
// Package monitor turns accepted events into pipeline launches. Each monitor
// owns one event type; the dispatcher routes events to the monitor registered
// for their type and drops the rest.
package monitor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/FairForge/catapult/internal/metrics"
	"github.com/FairForge/catapult/internal/trigger"
)

// PipelineCache supplies the pipeline definitions an event is matched
// against. Implementations return a self-contained snapshot; the monitor
// never mutates it.
type PipelineCache interface {
	Pipelines(ctx context.Context) ([]trigger.Pipeline, error)
}

// PipelineInitiator launches one pipeline with the invocation that caused it.
type PipelineInitiator interface {
	StartPipeline(ctx context.Context, pipeline trigger.Pipeline, inv trigger.Invocation) error
}

// Monitor processes events of a single type.
type Monitor interface {
	EventType() trigger.EventType
	ProcessEvent(ctx context.Context, event trigger.Event) error
}

// DockerMonitor matches docker registry events against pipeline triggers and
// starts every pipeline that matches, exactly once each.
type DockerMonitor struct {
	cache     PipelineCache
	initiator PipelineInitiator
	matcher   trigger.Matcher
	metrics   *metrics.Collector
	logger    *zap.Logger
}

// NewDockerMonitor creates a monitor for docker registry events.
func NewDockerMonitor(cache PipelineCache, initiator PipelineInitiator, collector *metrics.Collector, logger *zap.Logger) *DockerMonitor {
	return &DockerMonitor{
		cache:     cache,
		initiator: initiator,
		matcher:   trigger.DockerMatcher{},
		metrics:   collector,
		logger:    logger,
	}
}

// EventType returns the event type this monitor handles.
func (m *DockerMonitor) EventType() trigger.EventType {
	return trigger.EventTypeDocker
}

// ProcessEvent matches the event against the current pipeline snapshot and
// starts each matched pipeline. A failed launch does not stop the remaining
// launches; the failures are joined into the returned error.
func (m *DockerMonitor) ProcessEvent(ctx context.Context, event trigger.Event) error {
	pipelines, err := m.cache.Pipelines(ctx)
	if err != nil {
		return fmt.Errorf("monitor: fetch pipelines: %w", err)
	}

	matches := trigger.SelectMatches(m.matcher, event, pipelines)
	m.metrics.RecordMatches(len(matches))
	if len(matches) == 0 {
		m.logger.Debug("event matched no pipelines",
			zap.String("event_id", event.ID),
			zap.String("repository", event.Content.Repository),
			zap.String("tag", event.Content.Tag))
		return nil
	}

	// One artifact per event, shared by every invocation it causes.
	artifact := trigger.BuildArtifact(event)

	var errs []error
	for _, match := range matches {
		inv := trigger.Invocation{
			EventID:           event.ID,
			Trigger:           match.Trigger,
			ReceivedArtifacts: []trigger.Artifact{artifact},
		}
		if err := m.initiator.StartPipeline(ctx, match.Pipeline, inv); err != nil {
			m.logger.Error("pipeline launch failed",
				zap.String("event_id", event.ID),
				zap.String("pipeline_id", match.Pipeline.ID),
				zap.String("application", match.Pipeline.Application),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("monitor: start pipeline %q: %w", match.Pipeline.ID, err))
			continue
		}
		m.logger.Info("pipeline triggered",
			zap.String("event_id", event.ID),
			zap.String("pipeline_id", match.Pipeline.ID),
			zap.String("application", match.Pipeline.Application),
			zap.String("artifact", artifact.Reference))
	}
	return errors.Join(errs...)
}
