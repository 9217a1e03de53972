package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mediadesk.io/courier/internal/domain"
	"mediadesk.io/courier/internal/pkg/logger"
)

// Recipient is a resolved delivery target.
type Recipient struct {
	Type   domain.RecipientType
	Name   string
	Email  string
	Phone  string
	Locale string
}

// RecipientResolver turns a user id (empty for admin) into a Recipient.
type RecipientResolver interface {
	Resolve(ctx context.Context, userID string) (*Recipient, error)
}

// SiteContactReader returns the studio contact email, "" when unset.
type SiteContactReader interface {
	GetSiteContactEmail(ctx context.Context) (string, error)
}

// ClientResolver resolves clients from their profile.
type ClientResolver struct {
	profiles ProfileReader
}

// NewClientResolver creates a ClientResolver.
func NewClientResolver(profiles ProfileReader) *ClientResolver {
	return &ClientResolver{profiles: profiles}
}

// Resolve loads the client's profile.
func (r *ClientResolver) Resolve(ctx context.Context, userID string) (*Recipient, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: client user id is empty", ErrRecipientUnreachable)
	}
	p, err := r.profiles.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, lookupError(ErrRecipientUnreachable, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: profile %s not found", ErrRecipientUnreachable, userID)
	}
	return &Recipient{
		Type:   domain.RecipientClient,
		Name:   p.FullName,
		Email:  p.Email,
		Phone:  p.Phone,
		Locale: p.Locale,
	}, nil
}

// AdminResolver resolves the studio inbox from the site contact setting,
// falling back to a fixed address.
type AdminResolver struct {
	contacts      SiteContactReader
	fallbackEmail string
	phone         string
}

// NewAdminResolver creates an AdminResolver. phone may be empty, which
// leaves admin SMS unreachable.
func NewAdminResolver(contacts SiteContactReader, fallbackEmail, phone string) *AdminResolver {
	return &AdminResolver{contacts: contacts, fallbackEmail: fallbackEmail, phone: phone}
}

// Resolve returns the admin recipient. A failed contact lookup degrades to
// the fallback address.
func (r *AdminResolver) Resolve(ctx context.Context, _ string) (*Recipient, error) {
	email, err := r.contacts.GetSiteContactEmail(ctx)
	if err != nil {
		logger.Warn("Site contact lookup failed, using fallback address", zap.Error(err))
	}
	if email == "" {
		email = r.fallbackEmail
	}
	return &Recipient{
		Type:  domain.RecipientAdmin,
		Name:  "Studio",
		Email: email,
		Phone: r.phone,
	}, nil
}
