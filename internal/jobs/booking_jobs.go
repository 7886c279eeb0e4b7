package jobs

import (
	"context"
	"time"

	"rentalshop-backend/internal/logger"
)

// backfillBatch bounds how many deferred invoices one run numbers.
const backfillBatch = 200

// BackfillInvoices numbers completed bookings whose invoice was deferred at
// return time.
func (jr *JobRunner) BackfillInvoices() {
	jr.runWithRecovery("BackfillInvoices", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		count, err := jr.services.Bookings.BackfillInvoices(ctx, backfillBatch)
		if err != nil {
			logger.Error("Failed to backfill invoices", "error", err)
			return
		}
		logger.Info("Backfilled deferred invoices", "count", count)
	})
}

// PurgeStaleOverrides removes availability blocks older than the configured
// retention.
func (jr *JobRunner) PurgeStaleOverrides() {
	jr.runWithRecovery("PurgeStaleOverrides", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		retention := time.Duration(jr.config.Scheduler.OverrideRetentionDays) * 24 * time.Hour
		count, err := jr.services.Fleet.PurgeBlocks(ctx, retention)
		if err != nil {
			logger.Error("Failed to purge availability overrides", "error", err)
			return
		}
		logger.Info("Purged stale availability overrides", "count", count, "retention_days", jr.config.Scheduler.OverrideRetentionDays)
	})
}
