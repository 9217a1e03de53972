package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"mediadesk.io/courier/internal/pkg/logger"
)

// DefaultLedgerRetention outlives the largest reminder offset with margin.
const DefaultLedgerRetention = 180 * 24 * time.Hour

// LedgerPruner is satisfied by *store.ReminderLedger.
type LedgerPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ReminderLedgerCleanupArgs is a periodic maintenance job that removes old
// sent_reminders rows.
type ReminderLedgerCleanupArgs struct{}

// Kind returns the job kind identifier for reminder ledger cleanup.
func (ReminderLedgerCleanupArgs) Kind() string { return "reminder_ledger_cleanup" }

// InsertOpts ensures at most one cleanup job is enqueued within the same day.
func (ReminderLedgerCleanupArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: 24 * time.Hour,
			ByQueue:  true,
			ByArgs:   true,
		},
	}
}

// ReminderLedgerCleanupWorker deletes ledger rows older than the configured
// retention.
type ReminderLedgerCleanupWorker struct {
	river.WorkerDefaults[ReminderLedgerCleanupArgs]
	ledger    LedgerPruner
	retention time.Duration
}

// NewReminderLedgerCleanupWorker creates a cleanup worker. Non-positive
// retention falls back to DefaultLedgerRetention.
func NewReminderLedgerCleanupWorker(ledger LedgerPruner, retention time.Duration) *ReminderLedgerCleanupWorker {
	if retention <= 0 {
		retention = DefaultLedgerRetention
	}
	return &ReminderLedgerCleanupWorker{
		ledger:    ledger,
		retention: retention,
	}
}

// Work removes expired ledger rows.
func (w *ReminderLedgerCleanupWorker) Work(ctx context.Context, _ *river.Job[ReminderLedgerCleanupArgs]) error {
	if w == nil || w.ledger == nil {
		return fmt.Errorf("reminder ledger cleanup worker is not initialized")
	}

	cutoff := time.Now().UTC().Add(-w.retention)
	deleted, err := w.ledger.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete reminder ledger rows before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	logger.Info("reminder ledger cleanup completed",
		zap.Int64("deleted_rows", deleted),
		zap.String("cutoff", cutoff.Format(time.RFC3339)),
		zap.Duration("retention", w.retention),
	)
	return nil
}
