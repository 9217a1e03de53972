package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediadesk.io/courier/internal/domain"
)

var allRecipients = []domain.RecipientType{domain.RecipientClient, domain.RecipientAdmin}

func newTestEvaluator(t *testing.T, s *fakeSettings, p fakeProfiles) *Evaluator {
	t.Helper()
	e, err := NewEvaluator(s, p)
	require.NoError(t, err)
	return e
}

func TestEvaluator_ChannelGloballyDisabled(t *testing.T) {
	ctx := context.Background()
	profiles := fakeProfiles{"u-ana": ana()}

	for _, ch := range domain.AllChannels {
		settings := allOn()
		switch ch {
		case domain.ChannelEmail:
			settings.EmailEnabled = false
		case domain.ChannelSMS:
			settings.SMSEnabled = false
		}
		e := newTestEvaluator(t, &fakeSettings{settings: settings}, profiles)

		for _, ev := range domain.AllEvents {
			for _, r := range allRecipients {
				d := e.Evaluate(ctx, ev, "u-ana", ch, r)
				assert.Falsef(t, d.Send, "%s/%s/%s", ev, ch, r)
				assert.Equal(t, ReasonChannelDisabled, d.Reason)
			}
		}
	}
}

func TestEvaluator_ExplicitOptOutBlocksClient(t *testing.T) {
	ctx := context.Background()
	e := func(p *domain.UserProfile) *Evaluator {
		return newTestEvaluator(t, &fakeSettings{settings: allOn()}, fakeProfiles{p.ID: p})
	}

	for _, ev := range domain.AllEvents {
		field := domain.EventPreferences[ev]
		p := ana()
		switch field {
		case domain.PreferenceProjectUpdates:
			p.ProjectUpdates = boolPtr(false)
			p.Downloads = boolPtr(true)
		case domain.PreferenceDownloads:
			p.Downloads = boolPtr(false)
			p.ProjectUpdates = boolPtr(true)
		}
		for _, ch := range domain.AllChannels {
			d := e(p).Evaluate(ctx, ev, p.ID, ch, domain.RecipientClient)
			assert.Falsef(t, d.Send, "%s/%s", ev, ch)
			assert.Equal(t, ReasonOptedOut, d.Reason)

			// Admins are never gated by client preferences.
			assert.True(t, e(p).ShouldSend(ctx, ev, p.ID, ch, domain.RecipientAdmin))
		}
	}
}

func TestEvaluator_UnsetPreferenceDoesNotBlock(t *testing.T) {
	e := newTestEvaluator(t, &fakeSettings{settings: allOn()}, fakeProfiles{"u-ana": ana()})
	for _, ev := range domain.AllEvents {
		assert.True(t, e.ShouldSend(context.Background(), ev, "u-ana", domain.ChannelEmail, domain.RecipientClient))
	}
}

func TestEvaluator_NoEventConfig(t *testing.T) {
	ctx := context.Background()
	settings := allOn()
	settings.Events = map[domain.Event]domain.EventConfig{}
	e := newTestEvaluator(t, &fakeSettings{settings: settings}, fakeProfiles{"u-ana": ana()})

	for _, ev := range domain.AllEvents {
		for _, ch := range domain.AllChannels {
			for _, r := range allRecipients {
				d := e.Evaluate(ctx, ev, "u-ana", ch, r)
				assert.False(t, d.Send)
				assert.Equal(t, ReasonEventNotConfigured, d.Reason)
			}
		}
	}
}

func TestEvaluator_DecisionOrder(t *testing.T) {
	tests := []struct {
		name      string
		settings  func() *domain.NotificationSettings
		profiles  fakeProfiles
		userID    string
		channel   domain.Channel
		recipient domain.RecipientType
		want      Reason
		wantSend  bool
		wantErr   error
	}{
		{
			name:      "settings missing",
			settings:  func() *domain.NotificationSettings { return nil },
			recipient: domain.RecipientClient,
			channel:   domain.ChannelEmail,
			want:      ReasonSettingsMissing,
			wantErr:   ErrConfigurationMissing,
		},
		{
			name: "event channel disabled",
			settings: func() *domain.NotificationSettings {
				s := allOn()
				s.Events[domain.EventOrderPlaced] = domain.EventConfig{Email: true, Recipients: allRecipients}
				return s
			},
			channel:   domain.ChannelSMS,
			recipient: domain.RecipientAdmin,
			want:      ReasonEventChannelDisabled,
		},
		{
			name: "recipient type not configured",
			settings: func() *domain.NotificationSettings {
				s := allOn()
				s.Events[domain.EventOrderPlaced] = domain.EventConfig{Email: true, SMS: true, Recipients: []domain.RecipientType{domain.RecipientClient}}
				return s
			},
			channel:   domain.ChannelEmail,
			recipient: domain.RecipientAdmin,
			want:      ReasonRecipientNotConfigured,
		},
		{
			name:      "client profile missing",
			settings:  allOn,
			profiles:  fakeProfiles{},
			userID:    "ghost",
			channel:   domain.ChannelEmail,
			recipient: domain.RecipientClient,
			want:      ReasonProfileMissing,
			wantErr:   ErrRecipientUnreachable,
		},
		{
			name:      "admin skips profile lookup",
			settings:  allOn,
			profiles:  fakeProfiles{},
			channel:   domain.ChannelEmail,
			recipient: domain.RecipientAdmin,
			want:      ReasonEligible,
			wantSend:  true,
		},
		{
			name:      "client eligible",
			settings:  allOn,
			profiles:  fakeProfiles{"u-ana": ana()},
			userID:    "u-ana",
			channel:   domain.ChannelSMS,
			recipient: domain.RecipientClient,
			want:      ReasonEligible,
			wantSend:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEvaluator(t, &fakeSettings{settings: tt.settings()}, tt.profiles)
			d := e.Evaluate(context.Background(), domain.EventOrderPlaced, tt.userID, tt.channel, tt.recipient)
			assert.Equal(t, tt.wantSend, d.Send)
			assert.Equal(t, tt.want, d.Reason)
			if tt.wantErr != nil {
				assert.ErrorIs(t, d.Err, tt.wantErr)
			} else {
				assert.NoError(t, d.Err)
			}
		})
	}
}

func TestEvaluator_StoreFailureIsConfigurationMissing(t *testing.T) {
	e := newTestEvaluator(t, &fakeSettings{err: errors.New("connection refused")}, fakeProfiles{})

	d := e.Evaluate(context.Background(), domain.EventOrderCompleted, "u-ana", domain.ChannelEmail, domain.RecipientClient)
	assert.False(t, d.Send)
	assert.ErrorIs(t, d.Err, ErrConfigurationMissing)
	assert.Contains(t, d.Err.Error(), "connection refused")
}

func TestEvaluator_FetchesSettingsEveryCall(t *testing.T) {
	s := &fakeSettings{settings: allOn()}
	e := newTestEvaluator(t, s, fakeProfiles{"u-ana": ana()})

	e.ShouldSend(context.Background(), domain.EventOrderPlaced, "u-ana", domain.ChannelEmail, domain.RecipientClient)
	e.ShouldSend(context.Background(), domain.EventOrderPlaced, "u-ana", domain.ChannelEmail, domain.RecipientClient)
	assert.Equal(t, 2, s.calls)
}
