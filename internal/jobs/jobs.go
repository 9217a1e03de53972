// Package jobs defines River Queue job types for async processing.
//
// Notification dispatch runs on its own queue so provider latency never
// holds up the periodic retention work on the default queue.
//
// Import Path: mediadesk.io/courier/internal/jobs
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"go.uber.org/zap"

	"mediadesk.io/courier/internal/notification"
	"mediadesk.io/courier/internal/pkg/logger"
)

// Deps are the collaborators the workers need.
type Deps struct {
	Deliverer       notification.Deliverer
	Scanner         Scanner
	Ledger          LedgerPruner
	LedgerRetention time.Duration
}

// Workers registers every worker with River.
func Workers(deps Deps) *river.Workers {
	workers := river.NewWorkers()
	river.AddWorker(workers, NewNotificationDispatchWorker(deps.Deliverer))
	river.AddWorker(workers, NewRetentionScanWorker(deps.Scanner))
	river.AddWorker(workers, NewReminderLedgerCleanupWorker(deps.Ledger, deps.LedgerRetention))
	return workers
}

// PeriodicOpts controls the periodic schedule.
type PeriodicOpts struct {
	ScanInterval  time.Duration
	ScanOnStart   bool
	LedgerCleanup bool
}

// PeriodicJobs returns the retention scan and, when enabled, the ledger
// cleanup schedule.
func PeriodicJobs(opts PeriodicOpts) []*river.PeriodicJob {
	interval := opts.ScanInterval
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	jobs := []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(interval),
			func() (river.JobArgs, *river.InsertOpts) {
				insert := RetentionScanArgs{}.InsertOpts()
				insert.UniqueOpts.ByPeriod = interval
				return RetentionScanArgs{}, &insert
			},
			&river.PeriodicJobOpts{RunOnStart: opts.ScanOnStart},
		),
	}
	if opts.LedgerCleanup {
		jobs = append(jobs, river.NewPeriodicJob(
			river.PeriodicInterval(24*time.Hour),
			func() (river.JobArgs, *river.InsertOpts) {
				return ReminderLedgerCleanupArgs{}, nil
			},
			nil,
		))
	}
	return jobs
}

// inserter is satisfied by *river.Client.
type inserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// RiverEnqueuer persists dispatch requests as River jobs so they survive
// restarts.
type RiverEnqueuer struct {
	client inserter
}

// NewRiverEnqueuer creates a RiverEnqueuer.
func NewRiverEnqueuer(client inserter) *RiverEnqueuer {
	return &RiverEnqueuer{client: client}
}

// Enqueue inserts a notification_dispatch job.
func (e *RiverEnqueuer) Enqueue(ctx context.Context, req notification.Request) error {
	res, err := e.client.Insert(ctx, NotificationDispatchArgs{Request: req}, nil)
	if err != nil {
		return fmt.Errorf("insert notification job: %w", err)
	}
	logger.Debug("Notification job enqueued",
		zap.Int64("job_id", res.Job.ID),
		zap.String("event", string(req.Event)),
		zap.String("recipient_type", string(req.RecipientType)),
	)
	return nil
}
