// Package domain provides domain models for courier.
//
// Types here carry no persistence or transport concerns; stores and
// transports translate to and from them.
//
// Import Path: mediadesk.io/courier/internal/domain
package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Event is a business occurrence that may trigger notifications.
type Event string

const (
	EventOrderPlaced      Event = "order_placed"
	EventBookingCreated   Event = "booking_created"
	EventOrderCompleted   Event = "order_completed"
	EventBookingConfirmed Event = "booking_confirmed"
)

// AllEvents lists every dispatchable event. Tables keyed by Event are
// checked against this list at construction time.
var AllEvents = []Event{
	EventOrderPlaced,
	EventBookingCreated,
	EventOrderCompleted,
	EventBookingConfirmed,
}

// Valid reports whether e is a known event.
func (e Event) Valid() bool {
	return slices.Contains(AllEvents, e)
}

// ParseEvent converts a raw string into an Event.
func ParseEvent(s string) (Event, error) {
	e := Event(s)
	if !e.Valid() {
		return "", fmt.Errorf("unknown notification event %q", s)
	}
	return e, nil
}

// Channel is the delivery medium.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// AllChannels is the fixed channel evaluation order.
var AllChannels = []Channel{ChannelEmail, ChannelSMS}

// RecipientType distinguishes the end customer from studio staff.
type RecipientType string

const (
	RecipientClient RecipientType = "client"
	RecipientAdmin  RecipientType = "admin"
)

// Valid reports whether r is a known recipient type.
func (r RecipientType) Valid() bool {
	return r == RecipientClient || r == RecipientAdmin
}

// PreferenceField names a per-user opt-out column.
type PreferenceField string

const (
	PreferenceProjectUpdates PreferenceField = "project_updates"
	PreferenceDownloads      PreferenceField = "downloads"
)

// EventPreferences maps every event to the user preference that gates it.
var EventPreferences = map[Event]PreferenceField{
	EventOrderPlaced:      PreferenceProjectUpdates,
	EventBookingCreated:   PreferenceProjectUpdates,
	EventOrderCompleted:   PreferenceDownloads,
	EventBookingConfirmed: PreferenceProjectUpdates,
}

// EventConfig is the admin configuration for a single event.
type EventConfig struct {
	Email      bool            `json:"email" yaml:"email"`
	SMS        bool            `json:"sms" yaml:"sms"`
	Recipients []RecipientType `json:"recipients" yaml:"recipients"`
}

// ChannelEnabled reports whether the event is switched on for ch.
func (c EventConfig) ChannelEnabled(ch Channel) bool {
	switch ch {
	case ChannelEmail:
		return c.Email
	case ChannelSMS:
		return c.SMS
	default:
		return false
	}
}

// HasRecipient reports whether r is in the event's recipient set.
func (c EventConfig) HasRecipient(r RecipientType) bool {
	return slices.Contains(c.Recipients, r)
}

// NotificationSettings is the admin-controlled singleton.
type NotificationSettings struct {
	EmailEnabled     bool                  `json:"email_enabled" yaml:"email_enabled"`
	SMSEnabled       bool                  `json:"sms_enabled" yaml:"sms_enabled"`
	EmailFromName    string                `json:"email_from_name" yaml:"email_from_name"`
	EmailFromAddress string                `json:"email_from_address" yaml:"email_from_address"`
	SMSFromNumber    string                `json:"sms_from_number" yaml:"sms_from_number"`
	Events           map[Event]EventConfig `json:"events" yaml:"events"`
	UpdatedAt        time.Time             `json:"updated_at" yaml:"-"`
}

// ChannelEnabled reports the global switch for ch.
func (s *NotificationSettings) ChannelEnabled(ch Channel) bool {
	switch ch {
	case ChannelEmail:
		return s.EmailEnabled
	case ChannelSMS:
		return s.SMSEnabled
	default:
		return false
	}
}

// UserProfile is the notification-relevant view of a client account.
// Nil preferences mean "never set" and do not block delivery.
type UserProfile struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Phone          string    `json:"phone,omitempty"`
	Locale         string    `json:"locale,omitempty"`
	ProjectUpdates *bool     `json:"project_updates"`
	Downloads      *bool     `json:"downloads"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Preference returns the stored value for f, nil when unset.
func (p *UserProfile) Preference(f PreferenceField) *bool {
	switch f {
	case PreferenceProjectUpdates:
		return p.ProjectUpdates
	case PreferenceDownloads:
		return p.Downloads
	default:
		return nil
	}
}

// OptedOut reports whether the profile explicitly disabled f.
func (p *UserProfile) OptedOut(f PreferenceField) bool {
	v := p.Preference(f)
	return v != nil && !*v
}

// Payload carries the event-specific values interpolated into templates.
type Payload struct {
	OrderNumber  string           `json:"order_number,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	ItemCount    int              `json:"item_count,omitempty"`
	ServiceName  string           `json:"service_name,omitempty"`
	SessionDate  *time.Time       `json:"session_date,omitempty"`
	ClientName   string           `json:"client_name,omitempty"`
	ClientEmail  string           `json:"client_email,omitempty"`
	ClientPhone  string           `json:"client_phone,omitempty"`
	DownloadsURL string           `json:"downloads_url,omitempty"`
	Notes        string           `json:"notes,omitempty"`
}
