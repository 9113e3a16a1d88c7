// internal/archive/archive_test.go
package archive

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FairForge/catapult/internal/metrics"
	"github.com/FairForge/catapult/internal/trigger"
)

type memStore struct {
	objects map[string][]byte
	err     error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (s *memStore) Put(_ context.Context, key string, body io.Reader) error {
	if s.err != nil {
		return s.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func newTestArchiver(t *testing.T, store ObjectStore, compression string) *Archiver {
	t.Helper()
	a, err := NewWithStore(store, Config{Prefix: "events", Compression: compression}, metrics.NewCollector(), zap.NewNop())
	require.NoError(t, err)
	a.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	return a
}

func TestArchiver_KeyLayout(t *testing.T) {
	store := newMemStore()
	a := newTestArchiver(t, store, "none")

	event := trigger.Event{ID: "evt-1", Type: trigger.EventTypeDocker, Content: trigger.Content{
		Registry: "dockerhub", Repository: "library/nginx", Tag: "1.25",
	}}
	a.Archive(context.Background(), event)

	body, ok := store.objects["events/docker/2026/03/14/evt-1.json"]
	require.True(t, ok, "expected key sharded by type and day, got %v", keys(store))

	var got trigger.Event
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, event, got)
}

func TestArchiver_Codecs(t *testing.T) {
	event := trigger.NewDockerEvent("dockerhub", "library/nginx", "1.25")
	raw, err := json.Marshal(event)
	require.NoError(t, err)

	t.Run("gzip", func(t *testing.T) {
		store := newMemStore()
		a := newTestArchiver(t, store, "gzip")
		a.Archive(context.Background(), event)

		body := store.objects["events/docker/2026/03/14/"+event.ID+".json.gz"]
		require.NotNil(t, body, "keys: %v", keys(store))
		gr, err := gzip.NewReader(bytes.NewReader(body))
		require.NoError(t, err)
		decoded, err := io.ReadAll(gr)
		require.NoError(t, err)
		assert.Equal(t, raw, decoded)
	})

	t.Run("zstd", func(t *testing.T) {
		store := newMemStore()
		a := newTestArchiver(t, store, "zstd")
		a.Archive(context.Background(), event)

		body := store.objects["events/docker/2026/03/14/"+event.ID+".json.zst"]
		require.NotNil(t, body, "keys: %v", keys(store))
		dec, err := zstd.NewReader(nil)
		require.NoError(t, err)
		defer dec.Close()
		decoded, err := dec.DecodeAll(body, nil)
		require.NoError(t, err)
		assert.Equal(t, raw, decoded)
	})

	t.Run("snappy", func(t *testing.T) {
		store := newMemStore()
		a := newTestArchiver(t, store, "snappy")
		a.Archive(context.Background(), event)

		body := store.objects["events/docker/2026/03/14/"+event.ID+".json.snappy"]
		require.NotNil(t, body, "keys: %v", keys(store))
		decoded, err := snappy.Decode(nil, body)
		require.NoError(t, err)
		assert.Equal(t, raw, decoded)
	})
}

func TestArchiver_WriteFailureIsSwallowed(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("bucket gone")
	a := newTestArchiver(t, store, "none")

	// Must not panic or propagate; archiving is best-effort.
	a.Archive(context.Background(), trigger.NewDockerEvent("dockerhub", "library/nginx", "1.25"))
}

func TestNewCodec_Unknown(t *testing.T) {
	_, err := NewCodec("brotli")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown compression")
}

func keys(s *memStore) []string {
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	return out
}
