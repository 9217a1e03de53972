package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5"

	"mediadesk.io/courier/internal/domain"
)

// SettingsStore reads and writes the admin notification settings and the
// site contact singleton.
type SettingsStore struct {
	db DBTX
}

// NewSettingsStore creates a SettingsStore.
func NewSettingsStore(db DBTX) *SettingsStore {
	return &SettingsStore{db: db}
}

// GetNotificationSettings loads the singleton. ErrNotFound when it was
// never configured.
func (s *SettingsStore) GetNotificationSettings(ctx context.Context) (*domain.NotificationSettings, error) {
	query, args := pg().
		Select("email_enabled", "sms_enabled", "email_from_name", "email_from_address", "sms_from_number", "events", "updated_at").
		From(entsql.Table(tableNotificationSettings)).
		Where(entsql.EQ("id", singletonID)).
		Query()

	var (
		out    domain.NotificationSettings
		events []byte
	)
	err := s.db.QueryRow(ctx, query, args...).Scan(
		&out.EmailEnabled,
		&out.SMSEnabled,
		&out.EmailFromName,
		&out.EmailFromAddress,
		&out.SMSFromNumber,
		&events,
		&out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get notification settings: %w", notFound(err))
	}
	if err := json.Unmarshal(events, &out.Events); err != nil {
		return nil, fmt.Errorf("decode notification events: %w", err)
	}
	return &out, nil
}

// SaveNotificationSettings replaces the singleton.
func (s *SettingsStore) SaveNotificationSettings(ctx context.Context, in *domain.NotificationSettings) error {
	events, err := json.Marshal(in.Events)
	if err != nil {
		return fmt.Errorf("encode notification events: %w", err)
	}
	in.UpdatedAt = time.Now().UTC()

	query, args := pg().
		Insert(tableNotificationSettings).
		Columns("id", "email_enabled", "sms_enabled", "email_from_name", "email_from_address", "sms_from_number", "events", "updated_at").
		Values(singletonID, in.EmailEnabled, in.SMSEnabled, in.EmailFromName, in.EmailFromAddress, in.SMSFromNumber, events, in.UpdatedAt).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("save notification settings: %w", err)
	}
	return nil
}

// GetSiteContactEmail returns the configured contact address, "" when unset.
func (s *SettingsStore) GetSiteContactEmail(ctx context.Context) (string, error) {
	query, args := pg().
		Select("contact_email").
		From(entsql.Table(tableSiteSettings)).
		Where(entsql.EQ("id", singletonID)).
		Query()

	var email *string
	if err := s.db.QueryRow(ctx, query, args...).Scan(&email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get site contact email: %w", err)
	}
	if email == nil {
		return "", nil
	}
	return *email, nil
}

// SetSiteContactEmail stores the contact address; "" clears it.
func (s *SettingsStore) SetSiteContactEmail(ctx context.Context, email string) error {
	var value any
	if email != "" {
		value = email
	}
	query, args := pg().
		Insert(tableSiteSettings).
		Columns("id", "contact_email", "updated_at").
		Values(singletonID, value, time.Now().UTC()).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("set site contact email: %w", err)
	}
	return nil
}
