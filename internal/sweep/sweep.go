// Package sweep reclaims expired report sessions on a fixed cadence.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/sbstruc/reportr/internal/store"
)

// Sweeper periodically deletes incomplete sessions older than the retention
// window. Completed sessions are kept so their artifacts stay downloadable.
type Sweeper struct {
	repo     store.Repository
	logger   *slog.Logger
	interval time.Duration
	maxAge   time.Duration
}

// NewSweeper creates a Sweeper.
func NewSweeper(repo store.Repository, logger *slog.Logger, interval, maxAge time.Duration) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &Sweeper{
		repo:     repo,
		logger:   logger,
		interval: interval,
		maxAge:   maxAge,
	}
}

// Run launches the periodic sweep. Blocks until ctx.Done().
func (sw *Sweeper) Run(ctx context.Context) {
	sw.logger.Info("sweeper: started", "interval", sw.interval, "max_age", sw.maxAge)
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sw.logger.Info("sweeper: stopped")
			return
		case <-ticker.C:
			removed := sw.SweepOnce(ctx)
			if removed > 0 {
				sw.logger.Info("sweeper: cycle done", "removed", removed)
			}
		}
	}
}

// SweepOnce runs a single reclamation pass and returns the number of
// sessions removed.
func (sw *Sweeper) SweepOnce(ctx context.Context) int {
	removed, err := sw.repo.CleanupExpired(ctx, sw.maxAge)
	if err != nil {
		sw.logger.Warn("sweeper: cleanup", "error", err)
	}
	return removed
}
