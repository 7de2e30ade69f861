package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/hubd/internal/logging"
)

// Scheduler runs periodic sync cycles: one after an initial delay, then one
// per interval. Stop prevents future cycles but does not abort a cycle that
// is already in flight.
type Scheduler struct {
	engine   *Engine
	interval time.Duration
	initial  time.Duration
	logger   *logging.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewScheduler creates a scheduler around engine. interval must be positive;
// initial may be zero for an immediate first cycle.
func NewScheduler(engine *Engine, interval, initial time.Duration, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Scheduler{
		engine:   engine,
		interval: interval,
		initial:  initial,
		logger:   logger.Named("syncer.scheduler"),
	}
}

// Start launches the scheduling loop. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx)
}

// Stop halts future cycles and waits for the loop goroutine to exit. An
// in-flight cycle finishes on its own; Stop does not wait for it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.started = false
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	initial := time.NewTimer(s.initial)
	defer initial.Stop()
	select {
	case <-ctx.Done():
		return
	case <-initial.C:
	}
	s.cycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

// cycle runs one scheduled sync in its own goroutine so that stopping the
// scheduler never blocks on a slow cycle. Overlap is prevented by the
// engine's own guard.
func (s *Scheduler) cycle(ctx context.Context) {
	go func() {
		if _, err := s.engine.SyncNow(context.WithoutCancel(ctx), false); err != nil {
			if errors.Is(err, ErrSyncInProgress) {
				s.logger.Debug(ctx, "scheduled sync skipped, previous cycle still running")
				return
			}
			s.logger.Error(ctx, "scheduled sync failed", zap.Error(err))
		}
	}()
}
