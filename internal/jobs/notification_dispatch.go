package jobs

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"mediadesk.io/courier/internal/infrastructure"
	"mediadesk.io/courier/internal/notification"
	"mediadesk.io/courier/internal/pkg/logger"
)

// NotificationDispatchArgs carries the full request; payloads are small.
type NotificationDispatchArgs struct {
	Request notification.Request `json:"request"`
}

// Kind returns the job kind identifier for notification delivery.
func (NotificationDispatchArgs) Kind() string { return "notification_dispatch" }

// InsertOpts puts delivery on the notifications queue with a single
// attempt: a retry could double-send on the channel that succeeded.
func (NotificationDispatchArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       infrastructure.QueueNotifications,
		MaxAttempts: 1,
	}
}

// NotificationDispatchWorker runs one request through the Dispatcher.
type NotificationDispatchWorker struct {
	river.WorkerDefaults[NotificationDispatchArgs]
	deliverer notification.Deliverer
}

// NewNotificationDispatchWorker creates a NotificationDispatchWorker.
func NewNotificationDispatchWorker(deliverer notification.Deliverer) *NotificationDispatchWorker {
	return &NotificationDispatchWorker{deliverer: deliverer}
}

// Work delivers the notification. Channel failures are already logged by
// the Dispatcher and do not fail the job.
func (w *NotificationDispatchWorker) Work(ctx context.Context, job *river.Job[NotificationDispatchArgs]) error {
	if w == nil || w.deliverer == nil {
		return fmt.Errorf("notification dispatch worker is not initialized")
	}
	req := job.Args.Request
	if !req.Event.Valid() || !req.RecipientType.Valid() {
		return river.JobCancel(fmt.Errorf("invalid notification request %q/%q", req.Event, req.RecipientType))
	}

	report := w.deliverer.Deliver(ctx, req)
	logger.Info("notification dispatch job completed",
		zap.Int64("job_id", job.ID),
		zap.String("event", string(req.Event)),
		zap.String("recipient_type", string(req.RecipientType)),
		zap.Int("sent", report.Sent()),
		zap.Bool("aborted", report.Aborted),
	)
	return nil
}
