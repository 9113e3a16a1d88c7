// internal/pipelinecache/cache.go
// Package pipelinecache keeps a local snapshot of the configured pipelines
// and refreshes it in the background. Matching always works against one
// immutable snapshot value, so a refresh mid-event can never change the
// trigger set an event is evaluated against.
package pipelinecache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/FairForge/catapult/internal/metrics"
	"github.com/FairForge/catapult/internal/trigger"
)

// Source loads the full pipeline set from wherever definitions live.
type Source interface {
	Load(ctx context.Context) ([]trigger.Pipeline, error)
}

// Notifier is implemented by sources that can push change notifications.
// The cache reloads immediately on notify instead of waiting for the next
// refresh tick.
type Notifier interface {
	Watch(ctx context.Context, notify func()) error
}

type snapshot struct {
	pipelines []trigger.Pipeline
	loadedAt  time.Time
}

// Cache serves read-only pipeline snapshots.
type Cache struct {
	source   Source
	interval time.Duration
	metrics  *metrics.Collector
	logger   *zap.Logger

	current atomic.Pointer[snapshot]
	stop    context.CancelFunc
	done    sync.WaitGroup
}

// New creates a cache over source, refreshing every interval.
func New(source Source, interval time.Duration, collector *metrics.Collector, logger *zap.Logger) *Cache {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Cache{
		source:   source,
		interval: interval,
		metrics:  collector,
		logger:   logger,
	}
}

// Start performs the initial load and launches the refresh loop. A failed
// initial load is fatal: an engine with no pipelines would silently drop
// every event, which is worse than refusing to start.
func (c *Cache) Start(ctx context.Context) error {
	if err := c.Refresh(ctx); err != nil {
		return fmt.Errorf("pipelinecache: initial load: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	c.stop = cancel

	c.done.Add(1)
	go c.refreshLoop(loopCtx)

	if n, ok := c.source.(Notifier); ok {
		c.done.Add(1)
		go func() {
			defer c.done.Done()
			if err := n.Watch(loopCtx, func() {
				if err := c.Refresh(loopCtx); err != nil {
					c.logger.Warn("pipeline reload on change failed", zap.Error(err))
				}
			}); err != nil && loopCtx.Err() == nil {
				c.logger.Warn("pipeline source watch stopped", zap.Error(err))
			}
		}()
	}
	return nil
}

// Stop ends the refresh loop. The last snapshot stays readable.
func (c *Cache) Stop() {
	if c.stop != nil {
		c.stop()
	}
	c.done.Wait()
}

// Refresh loads from the source and swaps in the new snapshot. On failure
// the previous snapshot keeps serving.
func (c *Cache) Refresh(ctx context.Context) error {
	pipelines, err := c.source.Load(ctx)
	if err != nil {
		c.metrics.RecordRefreshFailure()
		return fmt.Errorf("pipelinecache: load: %w", err)
	}

	// Disabled pipelines are dropped here so matching only ever sees
	// candidates; trigger-level eligibility stays the matcher's job.
	active := make([]trigger.Pipeline, 0, len(pipelines))
	for _, p := range pipelines {
		if p.Disabled {
			continue
		}
		active = append(active, p)
	}

	c.current.Store(&snapshot{pipelines: active, loadedAt: time.Now().UTC()})
	c.metrics.SetSnapshotSize(len(active))
	c.logger.Debug("pipeline snapshot refreshed", zap.Int("pipelines", len(active)))
	return nil
}

// Pipelines returns a copy of the current snapshot. Callers own the slice;
// nothing they do to it can reach cache internals.
func (c *Cache) Pipelines(_ context.Context) ([]trigger.Pipeline, error) {
	snap := c.current.Load()
	if snap == nil {
		return nil, fmt.Errorf("pipelinecache: not started")
	}
	out := make([]trigger.Pipeline, len(snap.pipelines))
	copy(out, snap.pipelines)
	return out, nil
}

// Info reports snapshot size and age for the admin API.
func (c *Cache) Info() (pipelines int, age time.Duration, ok bool) {
	snap := c.current.Load()
	if snap == nil {
		return 0, 0, false
	}
	return len(snap.pipelines), time.Since(snap.loadedAt), true
}

func (c *Cache) refreshLoop(ctx context.Context) {
	defer c.done.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.logger.Warn("pipeline refresh failed, keeping last snapshot", zap.Error(err))
			}
		}
	}
}
