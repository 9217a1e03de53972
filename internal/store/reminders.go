package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// ReminderLedger records which (order, offset) retention reminders were
// already sent.
type ReminderLedger struct {
	db DBTX
}

// NewReminderLedger creates a ReminderLedger.
func NewReminderLedger(db DBTX) *ReminderLedger {
	return &ReminderLedger{db: db}
}

// WasSent reports whether a reminder for orderID at offsetDays exists.
func (l *ReminderLedger) WasSent(ctx context.Context, orderID string, offsetDays int) (bool, error) {
	query, args := pg().
		Select(entsql.Count("*")).
		From(entsql.Table(tableSentReminders)).
		Where(entsql.And(
			entsql.EQ("order_id", orderID),
			entsql.EQ("offset_days", offsetDays),
		)).
		Query()

	var n int
	if err := l.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("check reminder ledger: %w", err)
	}
	return n > 0, nil
}

// Record marks the reminder as sent. Recording twice is a no-op.
func (l *ReminderLedger) Record(ctx context.Context, orderID string, offsetDays int, sentAt time.Time) error {
	query, args := pg().
		Insert(tableSentReminders).
		Columns("id", "order_id", "offset_days", "sent_at").
		Values(uuid.NewString(), orderID, offsetDays, sentAt.UTC()).
		OnConflict(entsql.ConflictColumns("order_id", "offset_days"), entsql.DoNothing()).
		Query()

	if _, err := l.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("record reminder: %w", err)
	}
	return nil
}

// DeleteOlderThan prunes ledger rows sent before cutoff.
func (l *ReminderLedger) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args := pg().
		Delete(tableSentReminders).
		Where(entsql.LT("sent_at", cutoff.UTC())).
		Query()

	tag, err := l.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("prune reminder ledger: %w", err)
	}
	return tag.RowsAffected(), nil
}
