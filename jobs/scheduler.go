package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler drives a Controller on a single timer. Ticks run to
// completion before the next one is scheduled, so job-state mutation
// from the controller's own activity needs no locking.
type Scheduler struct {
	logger *zap.Logger
}

// NewScheduler creates a scheduler.
func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{logger: logger.With(zap.String("component", "scheduler"))}
}

// Run polls until the controller stops or ctx ends. The job outcome is
// on the StatusBoard; the returned error is non-nil only for context
// cancellation.
func (s *Scheduler) Run(ctx context.Context, c *Controller) error {
	timer := time.NewTimer(c.InitialDelay())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			c.Abandon()
			s.logger.Info("polling canceled")
			return ctx.Err()
		case <-timer.C:
		}

		next, more := c.Tick(ctx)
		if !more {
			return nil
		}
		timer.Reset(next)
	}
}
