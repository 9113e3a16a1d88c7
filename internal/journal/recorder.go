// internal/journal/recorder.go
package journal

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/FairForge/catapult/internal/metrics"
	"github.com/FairForge/catapult/internal/monitor"
	"github.com/FairForge/catapult/internal/trigger"
)

// RecordingInitiator wraps a pipeline initiator and writes one journal entry
// per launch attempt. Journal failures are logged, never surfaced; losing a
// history row must not fail a dispatch.
type RecordingInitiator struct {
	next    monitor.PipelineInitiator
	store   Store
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewRecordingInitiator decorates next with journaling and dispatch metrics.
func NewRecordingInitiator(next monitor.PipelineInitiator, store Store, collector *metrics.Collector, logger *zap.Logger) *RecordingInitiator {
	return &RecordingInitiator{
		next:    next,
		store:   store,
		metrics: collector,
		logger:  logger,
	}
}

// StartPipeline forwards the launch and records its outcome.
func (r *RecordingInitiator) StartPipeline(ctx context.Context, pipeline trigger.Pipeline, inv trigger.Invocation) error {
	start := time.Now()
	err := r.next.StartPipeline(ctx, pipeline, inv)
	duration := time.Since(start)

	r.metrics.RecordDispatch(err, duration)

	entry := &Entry{
		EventID:     inv.EventID,
		PipelineID:  pipeline.ID,
		Application: pipeline.Application,
		Pipeline:    pipeline.Name,
		TriggerID:   inv.Trigger.ID,
		Status:      StatusDispatched,
		Duration:    duration,
	}
	if len(inv.ReceivedArtifacts) > 0 {
		entry.Artifact = inv.ReceivedArtifacts[0].Reference
	}
	if err != nil {
		entry.Status = StatusFailed
		entry.Error = err.Error()
	}

	if recErr := r.store.Record(ctx, entry); recErr != nil {
		r.logger.Warn("dispatch journal write failed",
			zap.String("event_id", inv.EventID),
			zap.String("pipeline_id", pipeline.ID),
			zap.Error(recErr))
	}
	return err
}
