package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mediadesk.io/courier/internal/domain"
	"mediadesk.io/courier/internal/notification"
	apperrors "mediadesk.io/courier/internal/pkg/errors"
	"mediadesk.io/courier/internal/pkg/logger"
	"mediadesk.io/courier/internal/store"
)

// GetNotificationSettings handles GET /admin/notification-settings.
func (s *Server) GetNotificationSettings(c *gin.Context) {
	settings, err := s.settings.GetNotificationSettings(c.Request.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = c.Error(apperrors.ErrSettingsNotFound())
			return
		}
		_ = c.Error(apperrors.Wrap(err, apperrors.CodeInternal, "load notification settings", http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, settings)
}

// PutNotificationSettings handles PUT /admin/notification-settings.
func (s *Server) PutNotificationSettings(c *gin.Context) {
	var in domain.NotificationSettings
	if err := c.ShouldBindJSON(&in); err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.CodeValidationFailed, "invalid request body", http.StatusBadRequest))
		return
	}
	if in.Events == nil {
		in.Events = map[domain.Event]domain.EventConfig{}
	}
	if err := validateSettings(&in); err != nil {
		_ = c.Error(apperrors.ErrValidation(err))
		return
	}

	ctx := c.Request.Context()
	if err := s.settings.SaveNotificationSettings(ctx, &in); err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.CodeInternal, "save notification settings", http.StatusInternalServerError))
		return
	}
	logger.Info("Notification settings updated",
		zap.String("actor", callerID(c)),
		zap.Bool("email_enabled", in.EmailEnabled),
		zap.Bool("sms_enabled", in.SMSEnabled),
		zap.Int("events", len(in.Events)),
	)

	saved, err := s.settings.GetNotificationSettings(ctx)
	if err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.CodeInternal, "reload notification settings", http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, saved)
}

// GetSiteContact handles GET /admin/site-contact.
func (s *Server) GetSiteContact(c *gin.Context) {
	email, err := s.settings.GetSiteContactEmail(c.Request.Context())
	if err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.CodeInternal, "load site contact", http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, siteContactBody{ContactEmail: email})
}

// PutSiteContact handles PUT /admin/site-contact. An empty address clears
// it, which makes admin notifications use the fallback inbox.
func (s *Server) PutSiteContact(c *gin.Context) {
	var in siteContactBody
	if err := c.ShouldBindJSON(&in); err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.CodeValidationFailed, "invalid request body", http.StatusBadRequest))
		return
	}
	if err := in.Validate(); err != nil {
		_ = c.Error(apperrors.ErrValidation(err))
		return
	}
	if err := s.settings.SetSiteContactEmail(c.Request.Context(), in.ContactEmail); err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.CodeInternal, "save site contact", http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, in)
}

type decisionView struct {
	Channel domain.Channel `json:"channel"`
	Send    bool           `json:"send"`
	Reason  string         `json:"reason"`
}

// PreviewNotification handles POST /admin/notifications/preview. It runs
// the eligibility checks for every channel without sending anything.
func (s *Server) PreviewNotification(c *gin.Context) {
	var in previewBody
	if err := c.ShouldBindJSON(&in); err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.CodeValidationFailed, "invalid request body", http.StatusBadRequest))
		return
	}
	if err := in.Validate(); err != nil {
		_ = c.Error(apperrors.ErrValidation(err))
		return
	}

	decisions := make([]decisionView, 0, len(domain.AllChannels))
	for _, ch := range domain.AllChannels {
		d := s.evaluator.Evaluate(c.Request.Context(), in.Event, in.UserID, ch, in.RecipientType)
		decisions = append(decisions, decisionView{Channel: ch, Send: d.Send, Reason: string(d.Reason)})
	}
	c.JSON(http.StatusOK, gin.H{
		"event":          in.Event,
		"recipient_type": in.RecipientType,
		"decisions":      decisions,
	})
}

// DispatchNotification handles POST /notifications/dispatch. Delivery
// happens in the background; the response only confirms acceptance.
func (s *Server) DispatchNotification(c *gin.Context) {
	var req notification.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.CodeValidationFailed, "invalid request body", http.StatusBadRequest))
		return
	}
	if err := validateDispatch(&req); err != nil {
		_ = c.Error(apperrors.ErrValidation(err))
		return
	}

	if err := s.enqueuer.Enqueue(c.Request.Context(), req); err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.CodeEnqueueFailed, "notification could not be queued", http.StatusServiceUnavailable))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

type preferencesBody struct {
	ProjectUpdates *bool `json:"project_updates"`
	Downloads      *bool `json:"downloads"`
}

// GetMyPreferences handles GET /me/notification-preferences.
func (s *Server) GetMyPreferences(c *gin.Context) {
	uid := callerID(c)
	p, err := s.profiles.GetUserProfile(c.Request.Context(), uid)
	if err != nil {
		s.profileError(c, uid, err)
		return
	}
	c.JSON(http.StatusOK, preferencesBody{ProjectUpdates: p.ProjectUpdates, Downloads: p.Downloads})
}

// PutMyPreferences handles PUT /me/notification-preferences. Omitted
// fields are left unchanged.
func (s *Server) PutMyPreferences(c *gin.Context) {
	var in preferencesBody
	if err := c.ShouldBindJSON(&in); err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.CodeValidationFailed, "invalid request body", http.StatusBadRequest))
		return
	}
	uid := callerID(c)
	p, err := s.profiles.UpdatePreferences(c.Request.Context(), uid, in.ProjectUpdates, in.Downloads)
	if err != nil {
		s.profileError(c, uid, err)
		return
	}
	c.JSON(http.StatusOK, preferencesBody{ProjectUpdates: p.ProjectUpdates, Downloads: p.Downloads})
}

func (s *Server) profileError(c *gin.Context, uid string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		_ = c.Error(apperrors.ErrProfileNotFound(uid))
		return
	}
	_ = c.Error(apperrors.Wrap(err, apperrors.CodeInternal, "load profile", http.StatusInternalServerError))
}
