// Package async decouples mutation-event delivery from indexing work.
// The event bus hands events to Enqueue, which never blocks; a single
// worker goroutine drains the bounded queue into the synchronizer.
package async

import (
	"context"
	"log/slog"
	"sync"

	"github.com/stelae/stelae/internal/model"
)

// Handler is the indexing callback the worker invokes per event.
type Handler func(ctx context.Context, event model.MutationEvent) error

// WorkerConfig configures the event worker.
type WorkerConfig struct {
	// QueueSize bounds the pending event queue. Events arriving while
	// the queue is full are dropped with a warning; a dropped event is
	// healed by the next full rebuild.
	QueueSize int
}

// Worker consumes mutation events off a bounded queue.
type Worker struct {
	handler Handler
	queue   chan model.MutationEvent

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	started bool
	running bool
	dropped int64
}

// NewWorker creates a worker feeding events into handler.
func NewWorker(cfg WorkerConfig, handler Handler) *Worker {
	size := cfg.QueueSize
	if size <= 0 {
		size = 1024
	}
	return &Worker{
		handler: handler,
		queue:   make(chan model.MutationEvent, size),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Enqueue hands an event to the worker without blocking the caller.
// Returns false when the queue is full and the event was dropped.
func (w *Worker) Enqueue(event model.MutationEvent) bool {
	select {
	case w.queue <- event:
		return true
	default:
		w.mu.Lock()
		w.dropped++
		dropped := w.dropped
		w.mu.Unlock()
		slog.Warn("event queue full, dropping mutation event",
			slog.String("kind", event.Kind.String()),
			slog.Int64("node", event.NodeID),
			slog.Int64("dropped_total", dropped))
		return false
	}
}

// Dropped returns the number of events dropped so far.
func (w *Worker) Dropped() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dropped
}

// IsRunning returns true while the worker loop is active.
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Start runs the worker loop until the context is cancelled or Stop is
// called. Per-event failures are logged and never stop the loop. A
// worker runs at most once; later calls are no-ops.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.running = true
	w.mu.Unlock()

	defer close(w.doneCh)
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event := <-w.queue:
			if err := w.handler(ctx, event); err != nil {
				slog.Warn("failed to process mutation event",
					slog.String("kind", event.Kind.String()),
					slog.Int64("node", event.NodeID),
					slog.String("error", err.Error()))
			}
		}
	}
}

// Stop signals the worker to stop and waits for the loop to exit.
// Safe to call more than once.
func (w *Worker) Stop() {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()

	w.stopOnce.Do(func() { close(w.stopCh) })
	if started {
		<-w.doneCh
	}
}
