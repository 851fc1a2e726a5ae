// Package scheduler runs periodic housekeeping over the event catalogue.
package scheduler

import (
	"context"
	"time"

	"github.com/campushq/campus-events/internal/logger"
	"go.uber.org/zap"
)

type eventCompleter interface {
	CompleteElapsed(ctx context.Context, now time.Time) (int, error)
}

// Scheduler completes events whose start time has passed, so the
// catalogue only admits registrations for events that can still happen.
type Scheduler struct {
	events   eventCompleter
	interval time.Duration
	log      *logger.Logger
}

// New builds a scheduler ticking at the given interval.
func New(events eventCompleter, interval time.Duration) *Scheduler {
	return &Scheduler{
		events:   events,
		interval: interval,
		log:      logger.Get(),
	}
}

// Start blocks until the context is done, ticking at the configured
// interval. Run it in its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("scheduler started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	completed, err := s.events.CompleteElapsed(ctx, time.Now())
	if err != nil {
		s.log.Error("auto-complete sweep failed", zap.Error(err))
		return
	}
	if completed > 0 {
		s.log.Info("completed elapsed events", zap.Int("count", completed))
	}
}
