package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// SweepInterval is how often expired limiter records are purged.
const SweepInterval = time.Minute

// Sweeper periodically purges expired records from a set of limiters. It
// runs independently of request traffic and a failing sweep must not take
// down request processing.
type Sweeper struct {
	limiters []*Limiter
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper constructs a sweeper over the given limiters.
func NewSweeper(limiters []*Limiter, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = SweepInterval
	}
	return &Sweeper{limiters: limiters, interval: interval, logger: logger}
}

// Run sweeps on a fixed timer until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweepAll()
		}
	}
}

func (s *Sweeper) sweepAll() {
	defer func() {
		if rec := recover(); rec != nil && s.logger != nil {
			s.logger.Error("rate limit sweep panicked", slog.Any("panic", rec))
		}
	}()
	total := 0
	for _, l := range s.limiters {
		total += l.Sweep()
	}
	if total > 0 && s.logger != nil {
		s.logger.Debug("rate limit sweep", slog.Int("purged", total))
	}
}
