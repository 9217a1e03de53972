package modules

import (
	"context"

	"mediadesk.io/courier/internal/api/handlers"
	"mediadesk.io/courier/internal/jobs"
	"mediadesk.io/courier/internal/retention"
	"mediadesk.io/courier/internal/store"
)

// RetentionModule owns the retention scanner and its reminder ledger.
type RetentionModule struct {
	infra   *Infrastructure
	Scanner *retention.Scanner
	Ledger  *store.ReminderLedger
}

// NewRetentionModule builds the scanner on top of the notification
// module's renderer and email transport.
func NewRetentionModule(infra *Infrastructure, n *NotificationModule) (*RetentionModule, error) {
	cfg := infra.Config
	deps := retention.ScannerDeps{
		Orders:       store.NewOrderStore(infra.DB.Pool),
		Profiles:     n.Profiles,
		Renderer:     n.Renderer,
		Email:        n.Email,
		Settings:     n.Settings,
		Location:     infra.Location,
		DownloadsURL: cfg.Retention.DownloadsURL,
		FromName:     cfg.Email.FromName,
		FromAddress:  cfg.Email.FromAddress,
	}

	m := &RetentionModule{infra: infra}
	if cfg.Retention.Dedup {
		m.Ledger = store.NewReminderLedger(infra.DB.Pool)
		deps.Ledger = m.Ledger
	}

	scanner, err := retention.NewScanner(deps)
	if err != nil {
		return nil, err
	}
	m.Scanner = scanner
	return m, nil
}

// PeriodicOpts returns the schedule for the in-process scan.
func (m *RetentionModule) PeriodicOpts() jobs.PeriodicOpts {
	cfg := m.infra.Config.Retention
	return jobs.PeriodicOpts{
		ScanInterval:  cfg.Interval,
		ScanOnStart:   cfg.RunOnStart,
		LedgerCleanup: m.Ledger != nil,
	}
}

func (m *RetentionModule) Name() string { return "retention" }

func (m *RetentionModule) ContributeJobs(d *jobs.Deps) {
	d.Scanner = m.Scanner
	if m.Ledger != nil {
		d.Ledger = m.Ledger
		d.LedgerRetention = m.infra.Config.Retention.LedgerRetention
	}
}

func (m *RetentionModule) ContributeServerDeps(d *handlers.ServerDeps) {
	d.Scanner = m.Scanner
}

func (m *RetentionModule) Shutdown(context.Context) error { return nil }
