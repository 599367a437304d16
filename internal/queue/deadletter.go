package queue

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const sweepTimeout = 2 * time.Minute

// DeadLetterSweeper periodically drops reminder jobs that exhausted their retries and
// have sat in the dead letter queue longer than the retention window.
type DeadLetterSweeper struct {
	purger    DeadLetterPurger
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger

	purged atomic.Int64
}

// NewDeadLetterSweeper creates a sweeper. A nil purger makes every sweep a no-op.
func NewDeadLetterSweeper(purger DeadLetterPurger, interval, retention time.Duration, logger *zap.Logger) *DeadLetterSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeadLetterSweeper{
		purger:    purger,
		interval:  interval,
		retention: retention,
		logger:    logger,
	}
}

// Start sweeps once immediately, then every interval until ctx is cancelled.
func (s *DeadLetterSweeper) Start(ctx context.Context) error {
	s.logSweep(s.Sweep(ctx))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.logSweep(s.Sweep(ctx))
		}
	}
}

// Sweep purges expired dead letters once and returns how many were removed.
func (s *DeadLetterSweeper) Sweep(ctx context.Context) (int, error) {
	if s.purger == nil {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	n, err := s.purger.PurgeOlderThan(ctx, s.retention)
	if err != nil {
		return 0, fmt.Errorf("dead letter purge: %w", err)
	}
	s.purged.Add(int64(n))
	return n, nil
}

// Purged is the total number of dead letters removed since the sweeper was created.
func (s *DeadLetterSweeper) Purged() int64 {
	return s.purged.Load()
}

func (s *DeadLetterSweeper) logSweep(n int, err error) {
	switch {
	case err != nil:
		s.logger.Error("dead_letter_sweep_failed", zap.Error(err))
	case n > 0:
		s.logger.Info("dead_letter_reminders_purged",
			zap.Int("count", n),
			zap.Int64("total", s.Purged()),
			zap.Duration("retention", s.retention),
		)
	}
}
