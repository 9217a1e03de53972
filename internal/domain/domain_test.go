package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEventPreferences_CoversAllEvents(t *testing.T) {
	require.Len(t, EventPreferences, len(AllEvents))
	for _, e := range AllEvents {
		_, ok := EventPreferences[e]
		require.Truef(t, ok, "event %s has no preference mapping", e)
	}
}

func TestEventPreferences_Mapping(t *testing.T) {
	want := map[Event]PreferenceField{
		EventOrderPlaced:      PreferenceProjectUpdates,
		EventBookingCreated:   PreferenceProjectUpdates,
		EventOrderCompleted:   PreferenceDownloads,
		EventBookingConfirmed: PreferenceProjectUpdates,
	}
	require.Equal(t, want, EventPreferences)
}

func TestParseEvent(t *testing.T) {
	tests := []struct {
		in      string
		want    Event
		wantErr bool
	}{
		{"order_placed", EventOrderPlaced, false},
		{"booking_confirmed", EventBookingConfirmed, false},
		{"ORDER_PLACED", "", true},
		{"", "", true},
		{"order_refunded", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEvent(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestUserProfile_OptedOut(t *testing.T) {
	yes, no := true, false

	tests := []struct {
		name    string
		profile UserProfile
		field   PreferenceField
		want    bool
	}{
		{"unset does not block", UserProfile{}, PreferenceDownloads, false},
		{"explicit true", UserProfile{Downloads: &yes}, PreferenceDownloads, false},
		{"explicit false", UserProfile{Downloads: &no}, PreferenceDownloads, true},
		{"other field false", UserProfile{ProjectUpdates: &no}, PreferenceDownloads, false},
		{"unknown field", UserProfile{ProjectUpdates: &no}, PreferenceField("marketing"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.profile.OptedOut(tt.field))
		})
	}
}

func TestEventConfig_Lookups(t *testing.T) {
	cfg := EventConfig{Email: true, Recipients: []RecipientType{RecipientAdmin}}

	require.True(t, cfg.ChannelEnabled(ChannelEmail))
	require.False(t, cfg.ChannelEnabled(ChannelSMS))
	require.False(t, cfg.ChannelEnabled(Channel("fax")))
	require.True(t, cfg.HasRecipient(RecipientAdmin))
	require.False(t, cfg.HasRecipient(RecipientClient))
}

func TestScanSummary_JSONShape(t *testing.T) {
	expires := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	summary := ScanSummary{
		Success:       true,
		RemindersSent: 1,
		Results: []ReminderResult{{
			OrderNumber:   "ORD-1001",
			Email:         "ana@example.com",
			DaysRemaining: 7,
			ItemCount:     1,
			ExpiresAt:     expires,
		}},
	}

	data, err := json.Marshal(summary)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"success": true,
		"remindersSent": 1,
		"results": [{
			"orderNumber": "ORD-1001",
			"email": "ana@example.com",
			"daysRemaining": 7,
			"itemCount": 1,
			"expiresAt": "2026-03-08T00:00:00Z"
		}]
	}`, string(data))
}
