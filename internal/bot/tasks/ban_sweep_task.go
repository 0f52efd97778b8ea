package tasks

import (
	"context"
	"fmt"
	"time"
)

// newBanSweepTask creates the scheduled task that clears expired timed bans.
// Expired bans are also cleared lazily when a banned user writes; the sweep
// keeps the stored state and the /users listing accurate in between.
func newBanSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "ban_sweep")

	return func(ctx context.Context) error {
		startTime := time.Now()

		cleared, err := deps.Store.ClearExpiredBans(ctx, time.Now().UTC())
		duration := time.Since(startTime)

		if err != nil {
			log.ErrorContext(ctx, "Ban sweep failed", "error", err, "duration", duration)
			return fmt.Errorf("ban sweep failed: %w", err)
		}

		if cleared > 0 {
			log.InfoContext(ctx, "Cleared expired bans", "count", cleared, "duration", duration)
		}
		return nil
	}
}
