package transport

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"mediadesk.io/courier/internal/pkg/logger"
)

// resendEmails is the part of the Resend client used here.
type resendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendEmail sends email through the Resend API.
type ResendEmail struct {
	emails resendEmails
}

// NewResendEmail creates a Resend-backed email transport.
func NewResendEmail(apiKey string) (*ResendEmail, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend: %w", ErrMissingCredentials)
	}
	return &ResendEmail{emails: resend.NewClient(apiKey).Emails}, nil
}

// SendEmail submits msg to Resend. A nil error means the provider accepted
// the message, not that it was delivered.
func (t *ResendEmail) SendEmail(ctx context.Context, msg EmailMessage) error {
	if err := validateEmail(msg); err != nil {
		return err
	}

	sent, err := t.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    fromHeader(msg.FromName, msg.FromAddress),
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("resend send: %w", err)
	}

	logger.Debug("Email accepted by provider",
		zap.String("provider", "resend"),
		zap.String("message_id", sent.Id),
	)
	return nil
}

// LogEmail writes emails to the log instead of sending them. Used when no
// provider is configured.
type LogEmail struct{}

// SendEmail logs msg.
func (LogEmail) SendEmail(_ context.Context, msg EmailMessage) error {
	if err := validateEmail(msg); err != nil {
		return err
	}
	logger.Info("Email (log provider)",
		zap.String("to", msg.To),
		zap.String("from", fromHeader(msg.FromName, msg.FromAddress)),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
	)
	return nil
}
