package util

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredDeleter removes records that expired before the given time
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// NextDailyRun returns the next occurrence of hour:00 strictly after now
func NextDailyRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// StartDailyCleanup deletes expired records every day at hour:00 until ctx is cancelled.
// The returned channel is closed once the worker has stopped.
func StartDailyCleanup(ctx context.Context, repo ExpiredDeleter, hour int, logger *slog.Logger) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			now := time.Now()
			nextRun := NextDailyRun(now, hour)
			logger.Info("next expired token cleanup scheduled", "in", nextRun.Sub(now).Round(time.Second), "at", nextRun)

			timer := time.NewTimer(nextRun.Sub(now))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			RunCleanup(ctx, repo, logger)
		}
	}()

	return done
}

// RunCleanup performs one cleanup pass
func RunCleanup(ctx context.Context, repo ExpiredDeleter, logger *slog.Logger) {
	deleted, err := repo.DeleteExpired(ctx, time.Now())
	if err != nil {
		logger.Error("expired token cleanup failed", "error", err)
		return
	}
	logger.Info("expired token cleanup completed", "deleted", deleted)
}
