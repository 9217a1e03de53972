package notification

import (
	"context"
	"sync"

	"mediadesk.io/courier/internal/domain"
	"mediadesk.io/courier/internal/pkg/logger"
	"mediadesk.io/courier/internal/store"
	"mediadesk.io/courier/internal/transport"
)

func init() {
	_ = logger.Init("error", "json")
}

type fakeSettings struct {
	settings *domain.NotificationSettings
	err      error
	contact  string
	calls    int
}

func (f *fakeSettings) GetNotificationSettings(context.Context) (*domain.NotificationSettings, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.settings == nil {
		return nil, store.ErrNotFound
	}
	return f.settings, nil
}

func (f *fakeSettings) GetSiteContactEmail(context.Context) (string, error) {
	return f.contact, nil
}

type fakeProfiles map[string]*domain.UserProfile

func (f fakeProfiles) GetUserProfile(_ context.Context, id string) (*domain.UserProfile, error) {
	p, ok := f[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []transport.EmailMessage
	err  error
}

func (f *fakeEmail) SendEmail(_ context.Context, msg transport.EmailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeSMS struct {
	sent []transport.SMSMessage
	err  error
}

func (f *fakeSMS) SendSMS(_ context.Context, msg transport.SMSMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func boolPtr(v bool) *bool { return &v }

// allOn enables every event on both channels for both recipient types.
func allOn() *domain.NotificationSettings {
	events := make(map[domain.Event]domain.EventConfig, len(domain.AllEvents))
	for _, e := range domain.AllEvents {
		events[e] = domain.EventConfig{
			Email:      true,
			SMS:        true,
			Recipients: []domain.RecipientType{domain.RecipientClient, domain.RecipientAdmin},
		}
	}
	return &domain.NotificationSettings{
		EmailEnabled:     true,
		SMSEnabled:       true,
		EmailFromName:    "Lumen Studio",
		EmailFromAddress: "hello@lumen.test",
		SMSFromNumber:    "+15550100",
		Events:           events,
	}
}

func ana() *domain.UserProfile {
	return &domain.UserProfile{
		ID:       "u-ana",
		Email:    "ana@example.com",
		FullName: "Ana Lima",
		Phone:    "+15550123",
	}
}
