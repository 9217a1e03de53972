// Package transport delivers rendered messages through external providers:
// Resend for email and Twilio for SMS.
//
// Import Path: mediadesk.io/courier/internal/transport
package transport

import (
	"errors"
	"fmt"
	"net/mail"
)

// ErrMissingCredentials is returned when a provider is constructed without
// the credentials it needs.
var ErrMissingCredentials = errors.New("provider credentials missing")

// EmailMessage is one outbound email.
type EmailMessage struct {
	To          string
	Subject     string
	HTML        string
	FromName    string
	FromAddress string
}

// SMSMessage is one outbound text message.
type SMSMessage struct {
	To   string
	Body string
	From string
}

// fromHeader builds the RFC 5322 From value, quoting the display name.
func fromHeader(name, address string) string {
	if name == "" {
		return address
	}
	return (&mail.Address{Name: name, Address: address}).String()
}

func validateEmail(msg EmailMessage) error {
	if msg.To == "" {
		return fmt.Errorf("email recipient is empty")
	}
	if msg.FromAddress == "" {
		return fmt.Errorf("email sender address is empty")
	}
	return nil
}
