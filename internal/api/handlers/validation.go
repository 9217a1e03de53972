package handlers

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"mediadesk.io/courier/internal/domain"
	"mediadesk.io/courier/internal/notification"
)

var (
	eventRule = validation.By(func(v any) error {
		e, _ := v.(domain.Event)
		if !e.Valid() {
			return errors.New("must be a known notification event")
		}
		return nil
	})
	recipientRule = validation.By(func(v any) error {
		r, _ := v.(domain.RecipientType)
		if !r.Valid() {
			return errors.New("must be client or admin")
		}
		return nil
	})
	eventConfigsRule = validation.By(func(v any) error {
		events, _ := v.(map[domain.Event]domain.EventConfig)
		for e, cfg := range events {
			if !e.Valid() {
				return errors.New("unknown event " + string(e))
			}
			for _, r := range cfg.Recipients {
				if !r.Valid() {
					return errors.New("unknown recipient type " + string(r) + " for " + string(e))
				}
			}
		}
		return nil
	})
)

func validateSettings(s *domain.NotificationSettings) error {
	return validation.ValidateStruct(s,
		validation.Field(&s.EmailFromName, validation.Length(0, 100)),
		validation.Field(&s.EmailFromAddress, is.EmailFormat),
		validation.Field(&s.SMSFromNumber, validation.Length(0, 32)),
		validation.Field(&s.Events, eventConfigsRule),
	)
}

type siteContactBody struct {
	ContactEmail string `json:"contact_email"`
}

func (b siteContactBody) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.ContactEmail, is.EmailFormat),
	)
}

type previewBody struct {
	Event         domain.Event         `json:"event"`
	RecipientType domain.RecipientType `json:"recipient_type"`
	UserID        string               `json:"user_id"`
}

func (b previewBody) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Event, validation.Required, eventRule),
		validation.Field(&b.RecipientType, validation.Required, recipientRule),
		validation.Field(&b.UserID, validation.When(b.RecipientType == domain.RecipientClient, validation.Required)),
	)
}

func validateDispatch(r *notification.Request) error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Event, validation.Required, eventRule),
		validation.Field(&r.RecipientType, validation.Required, recipientRule),
		validation.Field(&r.UserID, validation.When(r.RecipientType == domain.RecipientClient, validation.Required)),
	)
}
