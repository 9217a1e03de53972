package notification

import "errors"

// Failure classes. Causes are wrapped so errors.Is works on outcomes.
var (
	// ErrConfigurationMissing means settings or provider credentials are absent.
	ErrConfigurationMissing = errors.New("notification configuration missing")
	// ErrRecipientUnreachable means no profile, email address or phone number.
	ErrRecipientUnreachable = errors.New("recipient unreachable")
	// ErrTransportFailure means the provider rejected the message.
	ErrTransportFailure = errors.New("transport failure")
)
