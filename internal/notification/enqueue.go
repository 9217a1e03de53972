package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mediadesk.io/courier/internal/pkg/logger"
	"mediadesk.io/courier/internal/pkg/worker"
)

// Enqueuer hands a Request to background delivery. Enqueue returns once
// the request is accepted; delivery results never reach the caller.
type Enqueuer interface {
	Enqueue(ctx context.Context, req Request) error
}

// Deliverer is the part of Dispatcher background workers call.
type Deliverer interface {
	Deliver(ctx context.Context, req Request) Report
}

// detachedSubmitter is satisfied by *worker.Pools.
type detachedSubmitter interface {
	SubmitDetached(poolName string, task worker.Task) error
}

// PoolEnqueuer delivers in-process on the notify worker pool. Requests are
// lost on crash; use the River enqueuer when that matters.
type PoolEnqueuer struct {
	pools     detachedSubmitter
	deliverer Deliverer
}

// NewPoolEnqueuer creates a PoolEnqueuer.
func NewPoolEnqueuer(pools detachedSubmitter, deliverer Deliverer) *PoolEnqueuer {
	return &PoolEnqueuer{pools: pools, deliverer: deliverer}
}

// Enqueue submits req to the notify pool.
func (e *PoolEnqueuer) Enqueue(_ context.Context, req Request) error {
	err := e.pools.SubmitDetached(worker.PoolNotify, func(ctx context.Context) {
		report := e.deliverer.Deliver(ctx, req)
		logger.Debug("Background notification finished",
			zap.String("event", string(req.Event)),
			zap.String("recipient_type", string(req.RecipientType)),
			zap.Int("sent", report.Sent()),
			zap.Bool("aborted", report.Aborted),
		)
	})
	if err != nil {
		return fmt.Errorf("submit notification: %w", err)
	}
	return nil
}
