// internal/metrics/collector.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catapult_events_received_total",
			Help: "Events accepted for processing, labeled by event type and source",
		},
		[]string{"type", "source"},
	)

	eventsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catapult_events_rejected_total",
			Help: "Events rejected at the ingest boundary, labeled by reason",
		},
		[]string{"reason"},
	)

	eventsIgnored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catapult_events_ignored_total",
			Help: "Events accepted but routed to no monitor, labeled by event type",
		},
		[]string{"type"},
	)

	pipelinesMatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catapult_pipelines_matched_total",
			Help: "Pipelines whose triggers matched an inbound event",
		},
	)

	dispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catapult_dispatches_total",
			Help: "Pipeline dispatch attempts, labeled by outcome",
		},
		[]string{"status"},
	)

	dispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catapult_dispatch_duration_seconds",
			Help:    "Latency of pipeline dispatch calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	feedQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catapult_feed_queue_depth",
			Help: "Events currently buffered in the feed queue",
		},
	)

	snapshotPipelines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catapult_pipeline_snapshot_pipelines",
			Help: "Pipelines held by the current cache snapshot",
		},
	)

	refreshFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catapult_pipeline_refresh_failures_total",
			Help: "Pipeline cache refresh attempts that failed",
		},
	)

	archiveWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catapult_archive_writes_total",
			Help: "Event archive writes, labeled by outcome",
		},
		[]string{"status"},
	)
)

// Collector manages metrics collection
type Collector struct {
	startTime time.Time
}

// NewCollector creates a metrics collector
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
	}
}

// RecordEventReceived records an event accepted for processing
func (c *Collector) RecordEventReceived(eventType, source string) {
	eventsReceived.WithLabelValues(eventType, source).Inc()
}

// RecordEventRejected records an event turned away at the boundary
func (c *Collector) RecordEventRejected(reason string) {
	eventsRejected.WithLabelValues(reason).Inc()
}

// RecordEventIgnored records an event no monitor handled
func (c *Collector) RecordEventIgnored(eventType string) {
	eventsIgnored.WithLabelValues(eventType).Inc()
}

// RecordMatches records how many pipelines one event matched
func (c *Collector) RecordMatches(count int) {
	if count > 0 {
		pipelinesMatched.Add(float64(count))
	}
}

// RecordDispatch records one pipeline dispatch attempt
func (c *Collector) RecordDispatch(err error, duration time.Duration) {
	dispatchesTotal.WithLabelValues(outcome(err)).Inc()
	dispatchDuration.Observe(duration.Seconds())
}

// SetQueueDepth reports the current feed queue depth
func (c *Collector) SetQueueDepth(depth int) {
	feedQueueDepth.Set(float64(depth))
}

// SetSnapshotSize reports the pipeline count of the current snapshot
func (c *Collector) SetSnapshotSize(pipelines int) {
	snapshotPipelines.Set(float64(pipelines))
}

// RecordRefreshFailure records a failed pipeline cache refresh
func (c *Collector) RecordRefreshFailure() {
	refreshFailures.Inc()
}

// RecordArchiveWrite records an archive write attempt
func (c *Collector) RecordArchiveWrite(err error) {
	archiveWrites.WithLabelValues(outcome(err)).Inc()
}

// Uptime returns the uptime duration
func (c *Collector) Uptime() time.Duration {
	return time.Since(c.startTime)
}

func outcome(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}
