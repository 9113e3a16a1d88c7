// internal/journal/recorder_test.go
package journal

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

type stubInitiator struct {
	calls int
	err   error
}

func (s *stubInitiator) StartPipeline(_ context.Context, _ trigger.Pipeline, _ trigger.Invocation) error {
	s.calls++
	return s.err
}

type failingStore struct {
	Store
}

func (f *failingStore) Record(_ context.Context, _ *Entry) error {
	return errors.New("disk full")
}

func testInvocation() (trigger.Pipeline, trigger.Invocation) {
	pipeline := trigger.Pipeline{ID: "p1", Application: "frontend", Name: "deploy frontend"}
	inv := trigger.Invocation{
		EventID: "evt-1",
		Trigger: trigger.Trigger{ID: "t1", Type: trigger.TriggerTypeDocker},
		ReceivedArtifacts: []trigger.Artifact{{
			Type:      trigger.ArtifactTypeDockerImage,
			Name:      "dockerhub/library/nginx",
			Version:   "1.25",
			Reference: "dockerhub/library/nginx:1.25",
		}},
	}
	return pipeline, inv
}

func TestRecordingInitiator_Success(t *testing.T) {
	store := NewMemoryStore(10)
	next := &stubInitiator{}
	r := NewRecordingInitiator(next, store, metrics.NewCollector(), zap.NewNop())

	pipeline, inv := testInvocation()
	require.NoError(t, r.StartPipeline(context.Background(), pipeline, inv))
	assert.Equal(t, 1, next.calls)

	entries, err := store.List(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "evt-1", e.EventID)
	assert.Equal(t, "p1", e.PipelineID)
	assert.Equal(t, "frontend", e.Application)
	assert.Equal(t, "deploy frontend", e.Pipeline)
	assert.Equal(t, "t1", e.TriggerID)
	assert.Equal(t, "dockerhub/library/nginx:1.25", e.Artifact)
	assert.Equal(t, StatusDispatched, e.Status)
	assert.Empty(t, e.Error)
}

func TestRecordingInitiator_Failure(t *testing.T) {
	store := NewMemoryStore(10)
	next := &stubInitiator{err: errors.New("orchestrator unreachable")}
	r := NewRecordingInitiator(next, store, metrics.NewCollector(), zap.NewNop())

	pipeline, inv := testInvocation()
	err := r.StartPipeline(context.Background(), pipeline, inv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orchestrator unreachable")

	entries, listErr := store.List(context.Background(), Query{})
	require.NoError(t, listErr)
	require.Len(t, entries, 1)
	assert.Equal(t, StatusFailed, entries[0].Status)
	assert.Contains(t, entries[0].Error, "orchestrator unreachable")
}

func TestRecordingInitiator_StoreFailureDoesNotFailDispatch(t *testing.T) {
	next := &stubInitiator{}
	r := NewRecordingInitiator(next, &failingStore{}, metrics.NewCollector(), zap.NewNop())

	pipeline, inv := testInvocation()
	assert.NoError(t, r.StartPipeline(context.Background(), pipeline, inv))
	assert.Equal(t, 1, next.calls)
}
