// Package notification decides whether an event should notify a recipient
// on a channel, renders the message and hands it to a transport.
//
// Import Path: mediadesk.io/courier/internal/notification
package notification

import (
	"context"
	"errors"
	"fmt"

	"mediadesk.io/courier/internal/domain"
	"mediadesk.io/courier/internal/store"
)

// SettingsReader loads the admin notification settings.
type SettingsReader interface {
	GetNotificationSettings(ctx context.Context) (*domain.NotificationSettings, error)
}

// ProfileReader loads a client profile.
type ProfileReader interface {
	GetUserProfile(ctx context.Context, id string) (*domain.UserProfile, error)
}

// Reason names the check that decided an evaluation.
type Reason string

const (
	ReasonEligible               Reason = "eligible"
	ReasonSettingsMissing        Reason = "settings_missing"
	ReasonChannelDisabled        Reason = "channel_disabled"
	ReasonEventNotConfigured     Reason = "event_not_configured"
	ReasonEventChannelDisabled   Reason = "event_channel_disabled"
	ReasonRecipientNotConfigured Reason = "recipient_not_configured"
	ReasonProfileMissing         Reason = "profile_missing"
	ReasonOptedOut               Reason = "opted_out"
)

// Decision is the outcome of one eligibility check.
type Decision struct {
	Send   bool   `json:"send"`
	Reason Reason `json:"reason"`
	// Err is set when a lookup failed, wrapping ErrConfigurationMissing or
	// ErrRecipientUnreachable.
	Err error `json:"-"`
}

// Evaluator answers shouldSend for (event, user, channel, recipient type).
// Settings and profile are fetched on every call.
type Evaluator struct {
	settings SettingsReader
	profiles ProfileReader
	prefs    map[domain.Event]domain.PreferenceField
}

// NewEvaluator creates an Evaluator. It fails when an event has no
// preference mapping.
func NewEvaluator(settings SettingsReader, profiles ProfileReader) (*Evaluator, error) {
	for _, e := range domain.AllEvents {
		if _, ok := domain.EventPreferences[e]; !ok {
			return nil, fmt.Errorf("event %s has no preference mapping", e)
		}
	}
	return &Evaluator{
		settings: settings,
		profiles: profiles,
		prefs:    domain.EventPreferences,
	}, nil
}

// ShouldSend reports whether the notification should fire.
func (e *Evaluator) ShouldSend(ctx context.Context, event domain.Event, userID string, channel domain.Channel, recipient domain.RecipientType) bool {
	return e.Evaluate(ctx, event, userID, channel, recipient).Send
}

// Evaluate runs the checks in order and stops at the first that fails.
func (e *Evaluator) Evaluate(ctx context.Context, event domain.Event, userID string, channel domain.Channel, recipient domain.RecipientType) Decision {
	settings, err := e.settings.GetNotificationSettings(ctx)
	if err != nil {
		return Decision{Reason: ReasonSettingsMissing, Err: lookupError(ErrConfigurationMissing, err)}
	}
	if settings == nil {
		return Decision{Reason: ReasonSettingsMissing, Err: ErrConfigurationMissing}
	}

	if d, done := e.checkSettings(settings, event, channel, recipient); done {
		return d
	}

	if recipient != domain.RecipientClient {
		return Decision{Send: true, Reason: ReasonEligible}
	}

	profile, err := e.profiles.GetUserProfile(ctx, userID)
	if err != nil {
		return Decision{Reason: ReasonProfileMissing, Err: lookupError(ErrRecipientUnreachable, err)}
	}
	if profile == nil {
		return Decision{Reason: ReasonProfileMissing, Err: ErrRecipientUnreachable}
	}
	if pref, ok := e.prefs[event]; ok && profile.OptedOut(pref) {
		return Decision{Reason: ReasonOptedOut}
	}
	return Decision{Send: true, Reason: ReasonEligible}
}

// checkSettings applies the admin-settings checks. done is true when the
// decision is final.
func (e *Evaluator) checkSettings(s *domain.NotificationSettings, event domain.Event, channel domain.Channel, recipient domain.RecipientType) (Decision, bool) {
	if !s.ChannelEnabled(channel) {
		return Decision{Reason: ReasonChannelDisabled}, true
	}
	cfg, ok := s.Events[event]
	if !ok {
		return Decision{Reason: ReasonEventNotConfigured}, true
	}
	if !cfg.ChannelEnabled(channel) {
		return Decision{Reason: ReasonEventChannelDisabled}, true
	}
	if !cfg.HasRecipient(recipient) {
		return Decision{Reason: ReasonRecipientNotConfigured}, true
	}
	return Decision{}, false
}

// lookupError tags err with class. A missing row is the class itself;
// anything else keeps the store error for the logs.
func lookupError(class, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %w", class, err)
	}
	return fmt.Errorf("%w: lookup failed: %w", class, err)
}
