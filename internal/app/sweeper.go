package app

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner is the part of core.Service the sweeper drives.
type Cleaner interface {
	CleanupExpired(ctx context.Context) (int, error)
}

// Sweeper periodically removes expired and exhausted links. Read paths sweep
// on their own, so this only bounds how long dead links occupy memory.
type Sweeper struct {
	c        Cleaner
	interval time.Duration
	log      *slog.Logger
}

func NewSweeper(c Cleaner, interval time.Duration, log *slog.Logger) *Sweeper {
	return &Sweeper{c: c, interval: interval, log: log}
}

// Run blocks until ctx is done. A non-positive interval returns immediately.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.c.CleanupExpired(ctx)
			if err != nil {
				s.log.Error("cleanup sweep failed", "error", err)
				continue
			}
			if n > 0 {
				s.log.Info("cleanup sweep", "removed", n)
			}
		}
	}
}
