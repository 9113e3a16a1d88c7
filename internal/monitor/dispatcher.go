// internal/monitor/dispatcher.go
package monitor

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/FairForge/catapult/internal/metrics"
	"github.com/FairForge/catapult/internal/trigger"
)

// Dispatcher routes events to the monitor registered for their type. Events
// with no registered monitor are counted and dropped; they are not errors.
type Dispatcher struct {
	monitors map[trigger.EventType]Monitor
	metrics  *metrics.Collector
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(collector *metrics.Collector, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		monitors: make(map[trigger.EventType]Monitor),
		metrics:  collector,
		logger:   logger,
	}
}

// Register adds a monitor for its event type.
func (d *Dispatcher) Register(m Monitor) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.monitors[m.EventType()]; exists {
		return fmt.Errorf("monitor: type %q already registered", m.EventType())
	}
	d.monitors[m.EventType()] = m
	return nil
}

// Dispatch hands the event to its monitor. Unknown event types are dropped
// without error so one engine can receive a wider feed than it handles.
func (d *Dispatcher) Dispatch(ctx context.Context, event trigger.Event) error {
	d.mu.RLock()
	m, ok := d.monitors[event.Type]
	d.mu.RUnlock()

	if !ok {
		d.metrics.RecordEventIgnored(string(event.Type))
		d.logger.Debug("no monitor for event type",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)))
		return nil
	}
	return m.ProcessEvent(ctx, event)
}
