// Package retention finds orders whose downloads are about to expire and
// emails their owners a reminder.
//
// Import Path: mediadesk.io/courier/internal/retention
package retention

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"mediadesk.io/courier/internal/domain"
	"mediadesk.io/courier/internal/notification"
	"mediadesk.io/courier/internal/pkg/logger"
	"mediadesk.io/courier/internal/transport"
)

// Offsets are the days-before-expiry at which a reminder goes out,
// scanned in this order.
var Offsets = []int{90, 30, 15, 7}

// OrderFinder returns non-archived orders expiring in [start, end].
type OrderFinder interface {
	QueryOrdersExpiringBetween(ctx context.Context, start, end time.Time) ([]domain.Order, error)
}

// ReminderRenderer renders the reminder email.
type ReminderRenderer interface {
	RenderRetentionReminder(data notification.ReminderData) (*notification.Email, error)
}

// Ledger remembers which (order, offset) pairs were already reminded.
type Ledger interface {
	WasSent(ctx context.Context, orderID string, offsetDays int) (bool, error)
	Record(ctx context.Context, orderID string, offsetDays int, sentAt time.Time) error
}

// ScannerDeps groups the Scanner's collaborators. Settings and Ledger are
// optional: without Settings the sender comes from FromName/FromAddress,
// without Ledger every run may resend.
type ScannerDeps struct {
	Orders   OrderFinder
	Profiles notification.ProfileReader
	Renderer ReminderRenderer
	Email    notification.EmailTransport
	Settings notification.SettingsReader
	Ledger   Ledger

	Location     *time.Location
	DownloadsURL string
	FromName     string
	FromAddress  string
}

// Scanner runs retention scans.
type Scanner struct {
	deps ScannerDeps
	loc  *time.Location
}

// NewScanner creates a Scanner.
func NewScanner(deps ScannerDeps) (*Scanner, error) {
	if deps.Orders == nil || deps.Profiles == nil || deps.Renderer == nil || deps.Email == nil {
		return nil, fmt.Errorf("%w: scanner needs orders, profiles, renderer and email transport", notification.ErrConfigurationMissing)
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Scanner{deps: deps, loc: loc}, nil
}

// Window returns the inclusive bounds of the calendar day offsetDays after
// now, in loc.
func Window(now time.Time, offsetDays int, loc *time.Location) (start, end time.Time) {
	day := now.In(loc).AddDate(0, 0, offsetDays)
	start = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	end = start.AddDate(0, 0, 1).Add(-time.Microsecond)
	return start, end
}

// Run scans every offset window relative to now. Per-order problems are
// logged and skipped; a failed window query stops the scan and marks the
// summary unsuccessful, keeping results gathered so far.
func (s *Scanner) Run(ctx context.Context, now time.Time) domain.ScanSummary {
	started := time.Now()
	defer func() { scanDuration.Observe(time.Since(started).Seconds()) }()

	summary := domain.ScanSummary{Success: true, Results: []domain.ReminderResult{}}
	fromName, fromAddress := s.sender(ctx)

	for _, offset := range Offsets {
		start, end := Window(now, offset, s.loc)
		log := logger.With(
			zap.Int("days_remaining", offset),
			zap.Time("window_start", start),
			zap.Time("window_end", end),
		)

		if err := ctx.Err(); err != nil {
			return s.fail(log, summary, fmt.Errorf("scan interrupted: %w", err))
		}

		orders, err := s.deps.Orders.QueryOrdersExpiringBetween(ctx, start, end)
		if err != nil {
			return s.fail(log, summary, fmt.Errorf("query orders expiring in %d days: %w", offset, err))
		}
		log.Debug("Retention window scanned", zap.Int("orders", len(orders)))

		for i := range orders {
			res, ok := s.remind(ctx, log, &orders[i], offset, now, fromName, fromAddress)
			if !ok {
				continue
			}
			summary.Results = append(summary.Results, res)
			summary.RemindersSent++
			remindersTotal.WithLabelValues(strconv.Itoa(offset)).Inc()
		}
	}

	logger.Info("Retention scan completed",
		zap.Int("reminders_sent", summary.RemindersSent),
		zap.Duration("duration", time.Since(started)),
	)
	return summary
}

func (s *Scanner) remind(ctx context.Context, log *zap.Logger, order *domain.Order, offset int, now time.Time, fromName, fromAddress string) (domain.ReminderResult, bool) {
	log = log.With(zap.String("order_number", order.OrderNumber), zap.String("client_id", order.ClientID))

	if s.deps.Ledger != nil {
		sent, err := s.deps.Ledger.WasSent(ctx, order.ID, offset)
		switch {
		case err != nil:
			log.Warn("Reminder ledger lookup failed, sending anyway", zap.Error(err))
		case sent:
			log.Debug("Reminder already sent for this offset, skipping")
			return domain.ReminderResult{}, false
		}
	}

	profile, err := s.deps.Profiles.GetUserProfile(ctx, order.ClientID)
	if err != nil || profile == nil {
		log.Warn("Order owner profile unavailable, skipping reminder", zap.Error(err))
		return domain.ReminderResult{}, false
	}
	if profile.Email == "" {
		log.Warn("Order owner has no email address, skipping reminder")
		return domain.ReminderResult{}, false
	}

	itemCount := len(order.Items)
	msg, err := s.deps.Renderer.RenderRetentionReminder(notification.ReminderData{
		RecipientName: profile.FullName,
		Locale:        profile.Locale,
		DaysRemaining: offset,
		ItemCount:     itemCount,
		ExpiresAt:     order.RetentionExpiresAt.In(s.loc),
		DownloadsURL:  s.deps.DownloadsURL,
	})
	if err != nil {
		log.Error("Render retention reminder failed", zap.Error(err))
		return domain.ReminderResult{}, false
	}

	err = s.deps.Email.SendEmail(ctx, transport.EmailMessage{
		To:          profile.Email,
		Subject:     msg.Subject,
		HTML:        msg.HTML,
		FromName:    fromName,
		FromAddress: fromAddress,
	})
	if err != nil {
		log.Error("Retention reminder transport failed", zap.Error(fmt.Errorf("%w: %w", notification.ErrTransportFailure, err)))
		return domain.ReminderResult{}, false
	}

	if s.deps.Ledger != nil {
		if err := s.deps.Ledger.Record(ctx, order.ID, offset, now); err != nil {
			log.Warn("Record reminder in ledger failed", zap.Error(err))
		}
	}

	log.Info("Retention reminder sent", zap.Int("item_count", itemCount))
	return domain.ReminderResult{
		OrderNumber:   order.OrderNumber,
		Email:         profile.Email,
		DaysRemaining: offset,
		ItemCount:     itemCount,
		ExpiresAt:     order.RetentionExpiresAt,
	}, true
}

// sender prefers the admin-configured from fields.
func (s *Scanner) sender(ctx context.Context) (name, address string) {
	name, address = s.deps.FromName, s.deps.FromAddress
	if s.deps.Settings == nil {
		return name, address
	}
	settings, err := s.deps.Settings.GetNotificationSettings(ctx)
	if err != nil || settings == nil {
		return name, address
	}
	if settings.EmailFromName != "" {
		name = settings.EmailFromName
	}
	if settings.EmailFromAddress != "" {
		address = settings.EmailFromAddress
	}
	return name, address
}

func (s *Scanner) fail(log *zap.Logger, summary domain.ScanSummary, err error) domain.ScanSummary {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.Warn("Retention scan aborted", zap.Error(err))
	} else {
		log.Error("Retention scan aborted", zap.Error(err))
	}
	summary.Success = false
	summary.Error = err.Error()
	return summary
}
