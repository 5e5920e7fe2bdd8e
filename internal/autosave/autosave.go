// Package autosave periodically flushes unsaved store mutations to disk.
//
// The scheduler owns one background goroutine. Each tick calls FlushIfDirty;
// a failed flush is logged and the store stays dirty, so the next tick
// retries. Shutdown stops the ticker and performs one last conditional flush,
// which is what the CLI's signal handler calls before exiting.
package autosave

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is the tick period used when none is configured.
const DefaultInterval = 5 * time.Second

// Flusher saves pending changes. *store.Store implements it.
type Flusher interface {
	FlushIfDirty() (bool, error)
}

// Scheduler runs FlushIfDirty on a fixed interval.
type Scheduler struct {
	flusher  Flusher
	interval time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// New creates a scheduler. A non-positive interval means DefaultInterval;
// a nil logger means slog.Default().
func New(f Flusher, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		flusher:  f,
		interval: interval,
		log:      logger,
	}
}

// Interval returns the tick period.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Start launches the background goroutine. It runs until ctx is cancelled
// or Stop is called. Calling Start on a running or stopped scheduler is a
// no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil || s.stopped {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)

	s.log.Debug("autosave started", "interval", s.interval)
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.flush("tick")
		}
	}
}

// Stop cancels the goroutine and waits for it to exit. Safe to call more
// than once and before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.log.Debug("autosave stopped")
}

// Shutdown stops the scheduler and flushes once more if anything is unsaved.
// The returned error is the final flush failure, if any.
func (s *Scheduler) Shutdown() error {
	s.Stop()
	return s.flush("shutdown")
}

func (s *Scheduler) flush(reason string) error {
	saved, err := s.flusher.FlushIfDirty()
	if err != nil {
		s.log.Error("autosave failed", "reason", reason, "error", err)
		return err
	}
	if saved {
		s.log.Debug("autosave flushed", "reason", reason)
	}
	return nil
}
