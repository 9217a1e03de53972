package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"mediadesk.io/courier/internal/domain"
	"mediadesk.io/courier/internal/pkg/logger"
)

// DefaultScanInterval matches the day granularity of the reminder offsets.
const DefaultScanInterval = 24 * time.Hour

// Scanner is satisfied by *retention.Scanner.
type Scanner interface {
	Run(ctx context.Context, now time.Time) domain.ScanSummary
}

// RetentionScanArgs is the periodic retention reminder scan.
type RetentionScanArgs struct{}

// Kind returns the job kind identifier for the retention scan.
func (RetentionScanArgs) Kind() string { return "retention_scan" }

// InsertOpts allows one scan per day; PeriodicJobs narrows ByPeriod to the
// configured interval.
func (RetentionScanArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: DefaultScanInterval,
			ByQueue:  true,
			ByArgs:   true,
		},
	}
}

// RetentionScanWorker runs the scan at the job's scheduled time.
type RetentionScanWorker struct {
	river.WorkerDefaults[RetentionScanArgs]
	scanner Scanner
	now     func() time.Time
}

// NewRetentionScanWorker creates a RetentionScanWorker.
func NewRetentionScanWorker(scanner Scanner) *RetentionScanWorker {
	return &RetentionScanWorker{scanner: scanner, now: time.Now}
}

// Work runs one scan. An unsuccessful summary fails the job so it shows up
// in River's discarded list.
func (w *RetentionScanWorker) Work(ctx context.Context, job *river.Job[RetentionScanArgs]) error {
	if w == nil || w.scanner == nil {
		return fmt.Errorf("retention scan worker is not initialized")
	}
	summary := w.scanner.Run(ctx, w.now())
	if !summary.Success {
		return errors.New("retention scan failed: " + summary.Error)
	}
	logger.Info("retention scan job completed",
		zap.Int64("job_id", job.ID),
		zap.Int("reminders_sent", summary.RemindersSent),
	)
	return nil
}
