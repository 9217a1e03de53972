package notification

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"mediadesk.io/courier/internal/domain"
	"mediadesk.io/courier/internal/pkg/logger"
	"mediadesk.io/courier/internal/store"
	"mediadesk.io/courier/internal/transport"
)

// EmailTransport sends a rendered email.
type EmailTransport interface {
	SendEmail(ctx context.Context, msg transport.EmailMessage) error
}

// SMSTransport sends a text message.
type SMSTransport interface {
	SendSMS(ctx context.Context, msg transport.SMSMessage) error
}

// Status is the per-channel result of a dispatch.
type Status string

const (
	StatusSent    Status = "sent"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome is what happened on one channel.
type Outcome struct {
	Channel domain.Channel `json:"channel"`
	Status  Status         `json:"status"`
	Reason  string         `json:"reason,omitempty"`
	Err     error          `json:"-"`
}

// Report summarizes a dispatch. Aborted is set when nothing was attempted
// because settings or the recipient could not be resolved.
type Report struct {
	Event     domain.Event         `json:"event"`
	Recipient domain.RecipientType `json:"recipient"`
	Aborted   bool                 `json:"aborted"`
	Err       error                `json:"-"`
	Outcomes  []Outcome            `json:"outcomes"`
}

// Sent returns how many channels reached a transport successfully.
func (r Report) Sent() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == StatusSent {
			n++
		}
	}
	return n
}

// Request is one event occurrence to deliver. UserID is ignored for admin
// recipients.
type Request struct {
	Event         domain.Event         `json:"event"`
	RecipientType domain.RecipientType `json:"recipient_type"`
	UserID        string               `json:"user_id,omitempty"`
	Payload       domain.Payload       `json:"payload"`
}

// Defaults fill sender and link values the admin settings leave empty.
type Defaults struct {
	FromName     string
	FromAddress  string
	SMSFrom      string
	SiteURL      string
	DownloadsURL string
}

// Dispatcher delivers events to clients and admins over email and SMS.
// Failures are logged and reported, never returned.
type Dispatcher struct {
	settings  SettingsReader
	evaluator *Evaluator
	renderer  *Renderer
	email     EmailTransport
	sms       SMSTransport
	resolvers map[domain.RecipientType]RecipientResolver
	defaults  Defaults
}

// DispatcherDeps groups the Dispatcher's collaborators. SMS may be nil,
// in which case SMS sends are skipped.
type DispatcherDeps struct {
	Settings  SettingsReader
	Evaluator *Evaluator
	Renderer  *Renderer
	Email     EmailTransport
	SMS       SMSTransport
	Client    RecipientResolver
	Admin     RecipientResolver
	Defaults  Defaults
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(deps DispatcherDeps) (*Dispatcher, error) {
	if deps.Settings == nil || deps.Evaluator == nil || deps.Renderer == nil || deps.Email == nil {
		return nil, fmt.Errorf("%w: dispatcher needs settings, evaluator, renderer and email transport", ErrConfigurationMissing)
	}
	if deps.Client == nil || deps.Admin == nil {
		return nil, fmt.Errorf("%w: dispatcher needs client and admin resolvers", ErrConfigurationMissing)
	}
	return &Dispatcher{
		settings:  deps.Settings,
		evaluator: deps.Evaluator,
		renderer:  deps.Renderer,
		email:     deps.Email,
		sms:       deps.SMS,
		resolvers: map[domain.RecipientType]RecipientResolver{
			domain.RecipientClient: deps.Client,
			domain.RecipientAdmin:  deps.Admin,
		},
		defaults: deps.Defaults,
	}, nil
}

// Dispatch notifies a client about event.
func (d *Dispatcher) Dispatch(ctx context.Context, event domain.Event, userID string, payload domain.Payload) Report {
	return d.Deliver(ctx, Request{Event: event, RecipientType: domain.RecipientClient, UserID: userID, Payload: payload})
}

// DispatchAdmin notifies the studio about event. Only events with an admin
// template do anything; others are logged and ignored.
func (d *Dispatcher) DispatchAdmin(ctx context.Context, event domain.Event, payload domain.Payload) Report {
	return d.Deliver(ctx, Request{Event: event, RecipientType: domain.RecipientAdmin, Payload: payload})
}

// Deliver runs one request through eligibility, rendering and transport
// for email then SMS. One channel failing never stops the other.
func (d *Dispatcher) Deliver(ctx context.Context, req Request) Report {
	report := Report{Event: req.Event, Recipient: req.RecipientType}
	log := logger.With(
		zap.String("event", string(req.Event)),
		zap.String("recipient_type", string(req.RecipientType)),
		zap.String("user_id", req.UserID),
	)

	resolver, ok := d.resolvers[req.RecipientType]
	if !ok {
		return d.abort(log, report, fmt.Errorf("unknown recipient type %q", req.RecipientType))
	}

	if req.RecipientType == domain.RecipientAdmin && !d.renderer.HasTemplate(req.Event, domain.RecipientAdmin) {
		log.Warn("Admin notification not implemented for event, skipping")
		report.Aborted = true
		report.Err = fmt.Errorf("%w: admin/%s", ErrNoTemplate, req.Event)
		return report
	}

	settings, err := d.settings.GetNotificationSettings(ctx)
	if err == nil && settings == nil {
		err = store.ErrNotFound
	}
	if err != nil {
		return d.abort(log, report, lookupError(ErrConfigurationMissing, err))
	}

	recipient, err := resolver.Resolve(ctx, req.UserID)
	if err != nil {
		return d.abort(log, report, err)
	}

	data := MessageData{
		RecipientName: recipient.Name,
		Locale:        recipient.Locale,
		Payload:       req.Payload,
		SiteURL:       d.defaults.SiteURL,
		DownloadsURL:  req.Payload.DownloadsURL,
	}
	if data.DownloadsURL == "" {
		data.DownloadsURL = d.defaults.DownloadsURL
	}

	for _, ch := range domain.AllChannels {
		out := d.deliverChannel(ctx, log, req, ch, settings, recipient, data)
		notificationsTotal.WithLabelValues(string(req.Event), string(ch), string(req.RecipientType), string(out.Status)).Inc()
		report.Outcomes = append(report.Outcomes, out)
	}
	return report
}

func (d *Dispatcher) deliverChannel(
	ctx context.Context,
	log *zap.Logger,
	req Request,
	ch domain.Channel,
	settings *domain.NotificationSettings,
	recipient *Recipient,
	data MessageData,
) Outcome {
	log = log.With(zap.String("channel", string(ch)))

	decision := d.evaluator.Evaluate(ctx, req.Event, req.UserID, ch, req.RecipientType)
	if !decision.Send {
		log.Debug("Notification not eligible", zap.String("reason", string(decision.Reason)), zap.Error(decision.Err))
		return Outcome{Channel: ch, Status: StatusSkipped, Reason: string(decision.Reason), Err: decision.Err}
	}

	switch ch {
	case domain.ChannelEmail:
		return d.sendEmail(ctx, log, req, settings, recipient, data)
	case domain.ChannelSMS:
		return d.sendSMS(ctx, log, req, settings, recipient, data)
	default:
		return Outcome{Channel: ch, Status: StatusSkipped, Reason: "unsupported_channel"}
	}
}

func (d *Dispatcher) sendEmail(ctx context.Context, log *zap.Logger, req Request, settings *domain.NotificationSettings, recipient *Recipient, data MessageData) Outcome {
	out := Outcome{Channel: domain.ChannelEmail}

	if recipient.Email == "" {
		log.Info("Recipient has no email address, skipping")
		out.Status, out.Reason, out.Err = StatusSkipped, "no_email", ErrRecipientUnreachable
		return out
	}

	msg, err := d.renderer.RenderEmail(req.Event, req.RecipientType, data)
	if err != nil {
		log.Warn("No email template for event, skipping channel", zap.Error(err))
		out.Status, out.Reason, out.Err = StatusSkipped, "no_template", err
		return out
	}

	err = d.email.SendEmail(ctx, transport.EmailMessage{
		To:          recipient.Email,
		Subject:     msg.Subject,
		HTML:        msg.HTML,
		FromName:    firstNonEmpty(settings.EmailFromName, d.defaults.FromName),
		FromAddress: firstNonEmpty(settings.EmailFromAddress, d.defaults.FromAddress),
	})
	if err != nil {
		log.Error("Email transport failed", zap.Error(err))
		out.Status, out.Reason, out.Err = StatusFailed, "transport_error", fmt.Errorf("%w: %w", ErrTransportFailure, err)
		return out
	}

	log.Info("Email notification sent")
	out.Status = StatusSent
	return out
}

func (d *Dispatcher) sendSMS(ctx context.Context, log *zap.Logger, req Request, settings *domain.NotificationSettings, recipient *Recipient, data MessageData) Outcome {
	out := Outcome{Channel: domain.ChannelSMS}

	if recipient.Phone == "" {
		log.Info("Recipient has no phone number, skipping SMS")
		out.Status, out.Reason = StatusSkipped, "no_phone"
		return out
	}
	if d.sms == nil {
		log.Warn("SMS transport not configured, skipping SMS")
		out.Status, out.Reason, out.Err = StatusSkipped, "sms_not_configured", ErrConfigurationMissing
		return out
	}

	body, err := d.renderer.RenderSMS(req.Event, req.RecipientType, data)
	if err != nil {
		log.Warn("No SMS template for event, skipping channel", zap.Error(err))
		out.Status, out.Reason, out.Err = StatusSkipped, "no_template", err
		return out
	}

	err = d.sms.SendSMS(ctx, transport.SMSMessage{
		To:   recipient.Phone,
		Body: body,
		From: firstNonEmpty(settings.SMSFromNumber, d.defaults.SMSFrom),
	})
	if err != nil {
		log.Error("SMS transport failed", zap.Error(err))
		out.Status, out.Reason, out.Err = StatusFailed, "transport_error", fmt.Errorf("%w: %w", ErrTransportFailure, err)
		return out
	}

	log.Info("SMS notification sent")
	out.Status = StatusSent
	return out
}

func (d *Dispatcher) abort(log *zap.Logger, report Report, err error) Report {
	level := log.Warn
	if !errors.Is(err, ErrConfigurationMissing) && !errors.Is(err, ErrRecipientUnreachable) {
		level = log.Error
	}
	level("Notification dispatch aborted", zap.Error(err))
	report.Aborted = true
	report.Err = err
	return report
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
