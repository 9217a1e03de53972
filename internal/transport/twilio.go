package transport

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"mediadesk.io/courier/internal/pkg/logger"
)

// twilioMessages is the part of the Twilio REST client used here.
type twilioMessages interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// TwilioSMS sends text messages through the Twilio Messages API.
type TwilioSMS struct {
	api twilioMessages
}

// NewTwilioSMS creates a Twilio-backed SMS transport. Both credentials are
// required.
func NewTwilioSMS(accountSID, authToken string) (*TwilioSMS, error) {
	if accountSID == "" || authToken == "" {
		return nil, fmt.Errorf("twilio: %w", ErrMissingCredentials)
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSMS{api: client.Api}, nil
}

// SendSMS submits msg to Twilio. The Twilio client has no context support;
// ctx is only checked before the call.
func (t *TwilioSMS) SendSMS(ctx context.Context, msg SMSMessage) error {
	if msg.To == "" {
		return fmt.Errorf("sms recipient is empty")
	}
	if msg.From == "" {
		return fmt.Errorf("sms sender number is empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(msg.To)
	params.SetFrom(msg.From)
	params.SetBody(msg.Body)

	resp, err := t.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}

	fields := []zap.Field{zap.String("provider", "twilio")}
	if resp != nil && resp.Sid != nil {
		fields = append(fields, zap.String("message_sid", *resp.Sid))
	}
	logger.Debug("SMS accepted by provider", fields...)
	return nil
}
