package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rafaelq/floodwatch/internal/flood"
)

// Refresher is the part of the Orchestrator the scheduler drives.
type Refresher interface {
	Refresh(ctx context.Context) (*flood.Snapshot, error)
}

// Scheduler runs refresh cycles on a fixed cadence. The cadence can be
// changed while running; the new interval applies from the next tick
// and accumulated history is untouched.
type Scheduler struct {
	refresher Refresher
	clock     clockwork.Clock
	logger    *slog.Logger

	mu       sync.Mutex
	interval time.Duration
	poke     chan struct{}
}

func NewScheduler(r Refresher, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 3 * time.Minute
	}
	return &Scheduler{
		refresher: r,
		clock:     clockwork.NewRealClock(),
		logger:    logger,
		interval:  interval,
		poke:      make(chan struct{}, 1),
	}
}

// SetClock swaps the time source so tests can drive ticks.
func (s *Scheduler) SetClock(c clockwork.Clock) {
	s.clock = c
}

// Interval reports the current polling cadence.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// SetInterval changes the polling cadence without a restart. The
// running loop reinstalls its ticker on the next pass.
func (s *Scheduler) SetInterval(d time.Duration) error {
	if d <= 0 {
		return errors.New("poll interval must be positive")
	}

	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()

	select {
	case s.poke <- struct{}{}:
	default:
	}
	return nil
}

// Run refreshes once immediately, then on every tick until the context
// is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.refresh(ctx)

	ticker := s.clock.NewTicker(s.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler: shutting down")
			return
		case <-ticker.Chan():
			s.refresh(ctx)
		case <-s.poke:
			d := s.Interval()
			ticker.Reset(d)
			s.logger.Info("scheduler: poll interval updated", "interval", d)
		}
	}
}

func (s *Scheduler) refresh(ctx context.Context) {
	_, err := s.refresher.Refresh(ctx)
	if err == nil || errors.Is(err, ErrPersist) || ctx.Err() != nil {
		// The orchestrator logs its own outcomes, and a persist failure
		// still produced a snapshot.
		return
	}
	s.logger.Error("scheduled refresh failed", "error", err)
}
