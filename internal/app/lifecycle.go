package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mediadesk.io/courier/internal/pkg/logger"
)

// Start starts River so queued notifications and periodic scans run.
func (a *Application) Start(ctx context.Context) error {
	if a.DB == nil || a.DB.RiverClient == nil {
		return nil
	}
	if err := a.DB.RiverClient.Start(ctx); err != nil {
		return fmt.Errorf("start river client: %w", err)
	}
	var fields []zap.Field
	if a.Config != nil {
		fields = []zap.Field{
			zap.String("async_backend", a.Config.Notifications.AsyncBackend),
			zap.Duration("scan_interval", a.Config.Retention.Interval),
			zap.Bool("scan_on_start", a.Config.Retention.RunOnStart),
		}
	}
	logger.Info("River client started, jobs will now be consumed", fields...)
	return nil
}

// Shutdown stops River, drains the worker pools and closes the database.
// River gets the configured shutdown timeout to finish running jobs before
// they are cancelled.
func (a *Application) Shutdown() {
	timeout := 30 * time.Second
	if a.Config != nil && a.Config.Server.ShutdownTimeout > 0 {
		timeout = a.Config.Server.ShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.DB != nil && a.DB.RiverClient != nil {
		err := a.DB.RiverClient.Stop(ctx)
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("River did not stop in time, cancelling running jobs", zap.Duration("timeout", timeout))
			cancelCtx, cancelCancel := context.WithTimeout(context.Background(), 5*time.Second)
			err = a.DB.RiverClient.StopAndCancel(cancelCtx)
			cancelCancel()
		}
		if err != nil {
			logger.Error("failed to stop river client", zap.Error(err))
		} else {
			logger.Info("River client stopped")
		}
	}

	for _, mod := range a.Modules {
		if mod == nil {
			continue
		}
		if err := mod.Shutdown(ctx); err != nil {
			logger.Warn("module shutdown returned error",
				zap.String("module", mod.Name()),
				zap.Error(err),
			)
		}
	}

	// In-flight pool deliveries finish before the database goes away.
	if a.Pools != nil {
		a.Pools.Shutdown()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
