// internal/monitor/dispatcher_test.go
package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FairForge/catapult/internal/metrics"
	"github.com/FairForge/catapult/internal/trigger"
)

type fakeMonitor struct {
	eventType trigger.EventType
	seen      []trigger.Event
	err       error
}

func (f *fakeMonitor) EventType() trigger.EventType { return f.eventType }

func (f *fakeMonitor) ProcessEvent(_ context.Context, event trigger.Event) error {
	f.seen = append(f.seen, event)
	return f.err
}

func TestDispatcher_Dispatch(t *testing.T) {
	t.Run("routes events to the monitor for their type", func(t *testing.T) {
		d := NewDispatcher(metrics.NewCollector(), zap.NewNop())
		docker := &fakeMonitor{eventType: trigger.EventTypeDocker}
		require.NoError(t, d.Register(docker))

		event := trigger.NewDockerEvent("dockerhub", "library/nginx", "latest")
		require.NoError(t, d.Dispatch(context.Background(), event))

		require.Len(t, docker.seen, 1)
		assert.Equal(t, event.ID, docker.seen[0].ID)
	})

	t.Run("drops events with no registered monitor", func(t *testing.T) {
		d := NewDispatcher(metrics.NewCollector(), zap.NewNop())
		docker := &fakeMonitor{eventType: trigger.EventTypeDocker}
		require.NoError(t, d.Register(docker))

		event := trigger.Event{ID: "evt-1", Type: "git"}
		assert.NoError(t, d.Dispatch(context.Background(), event))
		assert.Empty(t, docker.seen)
	})

	t.Run("propagates monitor errors", func(t *testing.T) {
		d := NewDispatcher(metrics.NewCollector(), zap.NewNop())
		docker := &fakeMonitor{eventType: trigger.EventTypeDocker, err: errors.New("launch failed")}
		require.NoError(t, d.Register(docker))

		event := trigger.NewDockerEvent("dockerhub", "library/nginx", "latest")
		err := d.Dispatch(context.Background(), event)
		assert.ErrorContains(t, err, "launch failed")
	})
}

func TestDispatcher_Register(t *testing.T) {
	d := NewDispatcher(metrics.NewCollector(), zap.NewNop())

	require.NoError(t, d.Register(&fakeMonitor{eventType: trigger.EventTypeDocker}))

	err := d.Register(&fakeMonitor{eventType: trigger.EventTypeDocker})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}
