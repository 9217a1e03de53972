package notification

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"path"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/shopspring/decimal"

	"mediadesk.io/courier/internal/domain"
)

//go:embed templates
var templatesFS embed.FS

// ErrNoTemplate is returned when no template exists for an
// (event, recipient, channel) combination.
var ErrNoTemplate = errors.New("no template for event")

const reminderTemplate = "retention_reminder"

// Email is a rendered email message.
type Email struct {
	Subject string
	HTML    string
}

// MessageData is the input to event templates.
type MessageData struct {
	RecipientName string
	Locale        string
	Payload       domain.Payload
	SiteURL       string
	DownloadsURL  string
}

// ReminderData is the input to the retention reminder template.
type ReminderData struct {
	RecipientName string
	Locale        string
	DaysRemaining int
	ItemCount     int
	ExpiresAt     time.Time
	DownloadsURL  string
}

// view is what templates actually see: raw payload plus preformatted
// amount and dates.
type view struct {
	MessageData
	Amount      string
	SessionDate string
}

type reminderView struct {
	ReminderData
	ExpiresOn string
}

type emailTemplate struct {
	subject *texttemplate.Template
	html    *template.Template
}

// Renderer turns events and payloads into email and SMS content.
type Renderer struct {
	client   map[domain.Event]*emailTemplate
	admin    map[domain.Event]*emailTemplate
	reminder *emailTemplate
	sms      map[domain.RecipientType]map[domain.Event]smsFormatter
	dates    *localeFormatter
}

// NewRenderer parses the embedded templates. It fails if any event lacks a
// client email template or a client SMS formatter.
func NewRenderer(defaultLocale string) (*Renderer, error) {
	r := &Renderer{
		client: make(map[domain.Event]*emailTemplate, len(domain.AllEvents)),
		admin:  make(map[domain.Event]*emailTemplate),
		sms: map[domain.RecipientType]map[domain.Event]smsFormatter{
			domain.RecipientClient: clientSMS,
			domain.RecipientAdmin:  adminSMS,
		},
		dates: newLocaleFormatter(defaultLocale),
	}

	for _, e := range domain.AllEvents {
		t, err := loadEmailTemplate(path.Join("templates", "client", string(e)))
		if err != nil {
			return nil, fmt.Errorf("client template %s: %w", e, err)
		}
		r.client[e] = t
		if _, ok := clientSMS[e]; !ok {
			return nil, fmt.Errorf("client sms formatter %s: %w", e, ErrNoTemplate)
		}
	}

	for _, e := range adminEvents {
		t, err := loadEmailTemplate(path.Join("templates", "admin", string(e)))
		if err != nil {
			return nil, fmt.Errorf("admin template %s: %w", e, err)
		}
		r.admin[e] = t
	}

	t, err := loadEmailTemplate(path.Join("templates", reminderTemplate))
	if err != nil {
		return nil, fmt.Errorf("retention reminder template: %w", err)
	}
	r.reminder = t

	return r, nil
}

// adminEvents lists the events with an admin-facing template.
var adminEvents = []domain.Event{domain.EventBookingCreated}

// missingKey makes a lookup of an absent field or key fail execution.
const missingKey = "missingkey=error"

var funcs = map[string]any{
	"plural": plural,
}

func loadEmailTemplate(dir string) (*emailTemplate, error) {
	subjectData, err := templatesFS.ReadFile(path.Join(dir, "subject.tmpl"))
	if err != nil {
		return nil, fmt.Errorf("read subject template: %w", err)
	}
	subject, err := texttemplate.New(dir + "_subject").Option(missingKey).Funcs(funcs).Parse(string(subjectData))
	if err != nil {
		return nil, fmt.Errorf("parse subject template: %w", err)
	}

	htmlData, err := templatesFS.ReadFile(path.Join(dir, "body.html.tmpl"))
	if err != nil {
		return nil, fmt.Errorf("read HTML template: %w", err)
	}
	html, err := template.New(dir + "_html").Option(missingKey).Funcs(funcs).Parse(string(htmlData))
	if err != nil {
		return nil, fmt.Errorf("parse HTML template: %w", err)
	}

	return &emailTemplate{subject: subject, html: html}, nil
}

// HasTemplate reports whether the event can be rendered for recipient.
func (r *Renderer) HasTemplate(event domain.Event, recipient domain.RecipientType) bool {
	switch recipient {
	case domain.RecipientClient:
		_, ok := r.client[event]
		return ok
	case domain.RecipientAdmin:
		_, ok := r.admin[event]
		return ok
	default:
		return false
	}
}

// RenderEmail renders the event email for a recipient type.
func (r *Renderer) RenderEmail(event domain.Event, recipient domain.RecipientType, data MessageData) (*Email, error) {
	var t *emailTemplate
	switch recipient {
	case domain.RecipientClient:
		t = r.client[event]
	case domain.RecipientAdmin:
		t = r.admin[event]
	}
	if t == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrNoTemplate, recipient, event)
	}
	return t.execute(r.view(data))
}

// RenderSMS renders the short plain-text message for a recipient type.
func (r *Renderer) RenderSMS(event domain.Event, recipient domain.RecipientType, data MessageData) (string, error) {
	format, ok := r.sms[recipient][event]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s sms", ErrNoTemplate, recipient, event)
	}
	return format(r.view(data)), nil
}

// RenderRetentionReminder renders the retention reminder email.
func (r *Renderer) RenderRetentionReminder(data ReminderData) (*Email, error) {
	v := reminderView{ReminderData: data}
	if !data.ExpiresAt.IsZero() {
		v.ExpiresOn = r.dates.LongDate(data.ExpiresAt, data.Locale)
	}
	return r.reminder.execute(v)
}

func (r *Renderer) view(data MessageData) view {
	v := view{MessageData: data}
	v.Amount = formatAmount(data.Payload.Amount)
	if data.Payload.SessionDate != nil {
		v.SessionDate = r.dates.LongDate(*data.Payload.SessionDate, data.Locale)
	}
	return v
}

func (t *emailTemplate) execute(data any) (*Email, error) {
	var subject bytes.Buffer
	if err := t.subject.Execute(&subject, data); err != nil {
		return nil, fmt.Errorf("execute subject template: %w", err)
	}
	var html bytes.Buffer
	if err := t.html.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("execute HTML template: %w", err)
	}
	return &Email{
		Subject: strings.TrimSpace(subject.String()),
		HTML:    strings.TrimSpace(html.String()),
	}, nil
}

// formatAmount renders money with exactly two decimals, "" for nil.
func formatAmount(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}
