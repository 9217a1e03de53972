package modules

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mediadesk.io/courier/internal/api/handlers"
	"mediadesk.io/courier/internal/config"
	"mediadesk.io/courier/internal/jobs"
	"mediadesk.io/courier/internal/notification"
	"mediadesk.io/courier/internal/pkg/logger"
	"mediadesk.io/courier/internal/store"
	"mediadesk.io/courier/internal/transport"
)

// NotificationModule owns settings, profiles, rendering, transports and
// the dispatcher.
type NotificationModule struct {
	infra      *Infrastructure
	Settings   *store.SettingsStore
	Profiles   *store.ProfileStore
	Evaluator  *notification.Evaluator
	Renderer   *notification.Renderer
	Email      notification.EmailTransport
	Dispatcher *notification.Dispatcher
}

// NewNotificationModule builds the notification pipeline.
func NewNotificationModule(infra *Infrastructure) (*NotificationModule, error) {
	cfg := infra.Config
	settings := store.NewSettingsStore(infra.DB.Pool)
	profiles := store.NewProfileStore(infra.DB.Pool)

	evaluator, err := notification.NewEvaluator(settings, profiles)
	if err != nil {
		return nil, err
	}
	renderer, err := notification.NewRenderer(cfg.Site.DefaultLocale)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	email, err := newEmailTransport(cfg.Email)
	if err != nil {
		return nil, err
	}
	sms, err := newSMSTransport(cfg.SMS)
	if err != nil {
		return nil, err
	}

	deps := notification.DispatcherDeps{
		Settings:  settings,
		Evaluator: evaluator,
		Renderer:  renderer,
		Email:     email,
		Client:    notification.NewClientResolver(profiles),
		Admin:     notification.NewAdminResolver(settings, cfg.Notifications.AdminFallbackEmail, cfg.Notifications.AdminPhone),
		Defaults: notification.Defaults{
			FromName:     cfg.Email.FromName,
			FromAddress:  cfg.Email.FromAddress,
			SMSFrom:      cfg.SMS.FromNumber,
			SiteURL:      cfg.Site.BaseURL,
			DownloadsURL: cfg.Retention.DownloadsURL,
		},
	}
	if sms != nil {
		deps.SMS = sms
	}
	dispatcher, err := notification.NewDispatcher(deps)
	if err != nil {
		return nil, err
	}

	return &NotificationModule{
		infra:      infra,
		Settings:   settings,
		Profiles:   profiles,
		Evaluator:  evaluator,
		Renderer:   renderer,
		Email:      email,
		Dispatcher: dispatcher,
	}, nil
}

// newEmailTransport picks the configured email provider.
func newEmailTransport(cfg config.EmailConfig) (notification.EmailTransport, error) {
	switch cfg.Provider {
	case config.EmailProviderResend:
		t, err := transport.NewResendEmail(cfg.APIKey)
		if err != nil {
			return nil, fmt.Errorf("init resend: %w", err)
		}
		return t, nil
	case config.EmailProviderLog, "":
		logger.Warn("Email provider is log; messages will not be delivered")
		return transport.LogEmail{}, nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// newSMSTransport returns nil when Twilio is not configured and SMS is
// optional.
func newSMSTransport(cfg config.SMSConfig) (*transport.TwilioSMS, error) {
	if !cfg.Configured() {
		if cfg.Required {
			return nil, fmt.Errorf("%w: sms credentials", notification.ErrConfigurationMissing)
		}
		logger.Info("SMS transport not configured; SMS channel will be skipped")
		return nil, nil
	}
	t, err := transport.NewTwilioSMS(cfg.AccountSID, cfg.AuthToken)
	if err != nil {
		return nil, fmt.Errorf("init twilio: %w", err)
	}
	return t, nil
}

// Enqueuer returns the background dispatch path selected by
// notifications.async_backend.
func (m *NotificationModule) Enqueuer() notification.Enqueuer {
	if m.infra.Config.Notifications.AsyncBackend == config.AsyncBackendRiver && m.infra.DB.RiverClient != nil {
		return jobs.NewRiverEnqueuer(m.infra.DB.RiverClient)
	}
	return notification.NewPoolEnqueuer(m.infra.Pools, m.Dispatcher)
}

func (m *NotificationModule) Name() string { return "notification" }

func (m *NotificationModule) ContributeJobs(d *jobs.Deps) {
	d.Deliverer = m.Dispatcher
}

func (m *NotificationModule) ContributeServerDeps(d *handlers.ServerDeps) {
	d.Settings = m.Settings
	d.Profiles = m.Profiles
	d.Evaluator = m.Evaluator
	d.Enqueuer = m.Enqueuer()
	logger.Info("Notification dispatch backend selected",
		zap.String("backend", m.infra.Config.Notifications.AsyncBackend),
	)
}

func (m *NotificationModule) Shutdown(context.Context) error { return nil }
