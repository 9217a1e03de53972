// Package main runs one retention scan and exits. It is meant for external
// schedulers that cannot call POST /api/v1/jobs/retention-scan.
//
// The JSON summary goes to stdout; the exit code is 1 when the scan failed.
//
// Import Path: mediadesk.io/courier/cmd/retention-scan
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mediadesk.io/courier/internal/app"
	"mediadesk.io/courier/internal/config"
	"mediadesk.io/courier/internal/domain"
	"mediadesk.io/courier/internal/pkg/logger"
)

// scanner is satisfied by *retention.Scanner.
type scanner interface {
	Run(ctx context.Context, now time.Time) domain.ScanSummary
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "retention-scan: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer application.Shutdown()

	return scanOnce(ctx, application.Scanner, time.Now(), os.Stdout)
}

// scanOnce runs the scan, writes the summary and reports failure as an error.
func scanOnce(ctx context.Context, s scanner, now time.Time, out io.Writer) error {
	summary := s.Run(ctx, now)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if !summary.Success {
		return fmt.Errorf("scan failed: %s", summary.Error)
	}
	logger.Info("Retention scan finished", zap.Int("reminders_sent", summary.RemindersSent))
	return nil
}
