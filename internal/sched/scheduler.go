// Package sched fires periodic full rebuilds on a fixed interval.
package sched

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// TriggerFunc is invoked on every tick. It returns false when the
// rebuild was rejected or failed; the scheduler only logs, the next
// tick tries again.
type TriggerFunc func(ctx context.Context) bool

// Scheduler invokes a rebuild trigger on a fixed interval.
type Scheduler struct {
	interval time.Duration
	trigger  TriggerFunc
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a scheduler. Interval defaults to 4 hours when zero.
func New(interval time.Duration, trigger TriggerFunc) *Scheduler {
	if interval <= 0 {
		interval = 4 * time.Hour
	}
	return &Scheduler{
		interval: interval,
		trigger:  trigger,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the tick loop until the context is cancelled or Stop is
// called. The first rebuild fires after one full interval, not at
// startup; startup indexing is the caller's decision.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("rebuild scheduler started", slog.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			if ok := s.trigger(ctx); !ok {
				slog.Warn("scheduled full rebuild did not complete")
			}
		}
	}
}

// Stop terminates the tick loop. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}
