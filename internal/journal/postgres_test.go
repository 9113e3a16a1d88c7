// internal/journal/postgres_test.go
package journal

import (
	"context"
	"testing"
	"time"
)

func newTestPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database tests in short mode")
	}

	s, err := NewPostgresStore("host=localhost port=5432 user=catapult password=catapult dbname=catapult_test sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Ping(ctx); err != nil {
		t.Skipf("postgres not reachable: %v", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("Failed to ensure schema: %v", err)
	}
	return s
}

func TestPostgresStore_RecordAndList(t *testing.T) {
	s := newTestPostgres(t)
	ctx := context.Background()

	eventID := "evt-pg-" + time.Now().Format("150405.000000000")
	err := s.Record(ctx, &Entry{
		EventID:     eventID,
		PipelineID:  "p1",
		Application: "frontend",
		Pipeline:    "deploy frontend",
		TriggerID:   "t1",
		Artifact:    "dockerhub/library/nginx:1.25",
		Status:      StatusDispatched,
		Duration:    42 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Failed to record: %v", err)
	}

	entries, err := s.List(ctx, Query{EventID: &eventID})
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	e := entries[0]
	if e.PipelineID != "p1" || e.Application != "frontend" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.Artifact != "dockerhub/library/nginx:1.25" {
		t.Errorf("unexpected artifact: %q", e.Artifact)
	}
	if e.Duration != 42*time.Millisecond {
		t.Errorf("unexpected duration: %v", e.Duration)
	}
}

func TestPostgresStore_Stats(t *testing.T) {
	s := newTestPostgres(t)
	ctx := context.Background()

	eventID := "evt-stats-" + time.Now().Format("150405.000000000")
	for _, status := range []Status{StatusDispatched, StatusFailed} {
		if err := s.Record(ctx, &Entry{EventID: eventID, PipelineID: "p1", Status: status}); err != nil {
			t.Fatalf("Failed to record: %v", err)
		}
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.Total < 2 {
		t.Errorf("expected at least 2 entries, got %d", stats.Total)
	}
	if stats.Dispatched < 1 || stats.Failed < 1 {
		t.Errorf("expected both statuses counted: %+v", stats)
	}
}
