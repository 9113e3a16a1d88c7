// internal/feed/feed.go
// Package feed buffers accepted events and drives the dispatcher with a
// fixed worker pool. It is the consumption loop the matching core sits
// behind: ingest hands events to Submit, workers call Dispatch once per
// event, and concurrency across events comes entirely from the pool.
package feed

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/FairForge/catapult/internal/metrics"
	"github.com/FairForge/catapult/internal/trigger"
)

// ErrQueueFull is returned by Submit when the buffer is saturated. Ingest
// turns it into a 503 so the upstream feed can back off and redeliver.
var ErrQueueFull = errors.New("feed: queue full")

// ErrClosed is returned by Submit after Close has started draining.
var ErrClosed = errors.New("feed: closed")

// Dispatcher routes one event to whatever handles its type.
type Dispatcher interface {
	Dispatch(ctx context.Context, event trigger.Event) error
}

// Config sizes the feed.
type Config struct {
	QueueSize int
	Workers   int
}

// Feed is a bounded in-memory event queue with a worker pool.
type Feed struct {
	dispatcher Dispatcher
	metrics    *metrics.Collector
	logger     *zap.Logger

	queue  chan trigger.Event
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// New creates a feed and starts its workers.
func New(cfg Config, dispatcher Dispatcher, collector *metrics.Collector, logger *zap.Logger) *Feed {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}

	f := &Feed{
		dispatcher: dispatcher,
		metrics:    collector,
		logger:     logger,
		queue:      make(chan trigger.Event, cfg.QueueSize),
	}

	for i := 0; i < cfg.Workers; i++ {
		f.wg.Add(1)
		go f.work()
	}
	return f
}

// Submit enqueues one event without blocking. A full queue is the caller's
// signal to shed load, not a reason to wait.
func (f *Feed) Submit(event trigger.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	select {
	case f.queue <- event:
		f.metrics.SetQueueDepth(len(f.queue))
		return nil
	default:
		return ErrQueueFull
	}
}

// Depth reports how many events are currently buffered.
func (f *Feed) Depth() int {
	return len(f.queue)
}

// Close stops accepting events, drains the queue, and waits for the
// workers to finish their in-flight dispatches.
func (f *Feed) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	close(f.queue)
	f.mu.Unlock()

	f.wg.Wait()
}

func (f *Feed) work() {
	defer f.wg.Done()

	for event := range f.queue {
		f.metrics.SetQueueDepth(len(f.queue))
		// Dispatch errors are already journaled and logged per pipeline;
		// the worker only notes that the event finished dirty.
		if err := f.dispatcher.Dispatch(context.Background(), event); err != nil {
			f.logger.Warn("event dispatched with failures",
				zap.String("event_id", event.ID),
				zap.String("type", string(event.Type)),
				zap.Error(err))
		}
	}
}
