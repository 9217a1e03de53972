package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediadesk.io/courier/internal/api/middleware"
	"mediadesk.io/courier/internal/domain"
	"mediadesk.io/courier/internal/notification"
	apperrors "mediadesk.io/courier/internal/pkg/errors"
	"mediadesk.io/courier/internal/pkg/logger"
	"mediadesk.io/courier/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Init("error", "json")
}

type memSettings struct {
	settings *domain.NotificationSettings
	contact  string
	saveErr  error
}

func (m *memSettings) GetNotificationSettings(context.Context) (*domain.NotificationSettings, error) {
	if m.settings == nil {
		return nil, store.ErrNotFound
	}
	return m.settings, nil
}

func (m *memSettings) SaveNotificationSettings(_ context.Context, in *domain.NotificationSettings) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *in
	cp.UpdatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.settings = &cp
	return nil
}

func (m *memSettings) GetSiteContactEmail(context.Context) (string, error) { return m.contact, nil }

func (m *memSettings) SetSiteContactEmail(_ context.Context, email string) error {
	m.contact = email
	return nil
}

type memProfiles map[string]*domain.UserProfile

func (m memProfiles) GetUserProfile(_ context.Context, id string) (*domain.UserProfile, error) {
	p, ok := m[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (m memProfiles) UpdatePreferences(_ context.Context, id string, projectUpdates, downloads *bool) (*domain.UserProfile, error) {
	p, ok := m[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if projectUpdates != nil {
		p.ProjectUpdates = projectUpdates
	}
	if downloads != nil {
		p.Downloads = downloads
	}
	return p, nil
}

type stubEvaluator struct{}

func (stubEvaluator) Evaluate(_ context.Context, _ domain.Event, _ string, ch domain.Channel, _ domain.RecipientType) notification.Decision {
	if ch == domain.ChannelEmail {
		return notification.Decision{Send: true, Reason: notification.ReasonEligible}
	}
	return notification.Decision{Reason: notification.ReasonChannelDisabled}
}

type recordingEnqueuer struct {
	got []notification.Request
	err error
}

func (e *recordingEnqueuer) Enqueue(_ context.Context, req notification.Request) error {
	if e.err != nil {
		return e.err
	}
	e.got = append(e.got, req)
	return nil
}

type stubScanner struct {
	summary domain.ScanSummary
	at      time.Time
}

func (s *stubScanner) Run(_ context.Context, now time.Time) domain.ScanSummary {
	s.at = now
	return s.summary
}

type stubGallery struct {
	err error
}

func (g stubGallery) DependencyCount(context.Context, string) (int, error) { return 2, g.err }

func (g stubGallery) DeleteMedia(_ context.Context, id string, cascade bool) (int, error) {
	if g.err != nil {
		return 0, g.err
	}
	if !cascade {
		return 2, apperrors.ErrMediaInUse(id, 2)
	}
	return 2, nil
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type fixture struct {
	srv      *Server
	settings *memSettings
	profiles memProfiles
	enqueuer *recordingEnqueuer
	scanner  *stubScanner
}

var fixedNow = time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

func newFixture() *fixture {
	f := &fixture{
		settings: &memSettings{},
		profiles: memProfiles{"u-1": {ID: "u-1", Email: "ana@example.com", FullName: "Ana Lima"}},
		enqueuer: &recordingEnqueuer{},
		scanner:  &stubScanner{summary: domain.ScanSummary{Success: true, Results: []domain.ReminderResult{}}},
	}
	f.srv = NewServer(ServerDeps{
		Settings:  f.settings,
		Profiles:  f.profiles,
		Evaluator: stubEvaluator{},
		Enqueuer:  f.enqueuer,
		Scanner:   f.scanner,
		Gallery:   stubGallery{},
		DB:        pingFunc(func(context.Context) error { return nil }),
		Now:       func() time.Time { return fixedNow },
	})
	return f
}

func newAuthedGinContext(t *testing.T, method, path, body, userID string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req = req.WithContext(middleware.SetUserContext(req.Context(), userID, middleware.RoleClient))
	}
	c.Request = req
	return c, w
}

func lastAppError(t *testing.T, c *gin.Context) *apperrors.AppError {
	t.Helper()
	require.NotEmpty(t, c.Errors, "handler should attach an error")
	appErr, ok := apperrors.IsAppError(c.Errors.Last().Err)
	require.True(t, ok, "error should be an AppError: %v", c.Errors.Last().Err)
	return appErr
}

func TestNotificationSettings_RoundTrip(t *testing.T) {
	f := newFixture()

	c, _ := newAuthedGinContext(t, http.MethodGet, "/admin/notification-settings", "", "admin")
	f.srv.GetNotificationSettings(c)
	assert.Equal(t, apperrors.CodeSettingsNotFound, lastAppError(t, c).Code)

	body := `{"email_enabled":true,"sms_enabled":false,"email_from_name":"Lumen","email_from_address":"hello@lumen.test",
		"events":{"order_placed":{"email":true,"sms":false,"recipients":["client"]}}}`
	c, w := newAuthedGinContext(t, http.MethodPut, "/admin/notification-settings", body, "admin")
	f.srv.PutNotificationSettings(c)
	require.Empty(t, c.Errors)
	assert.Equal(t, http.StatusOK, w.Code)

	var got domain.NotificationSettings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.EmailEnabled)
	assert.Equal(t, []domain.RecipientType{domain.RecipientClient}, got.Events[domain.EventOrderPlaced].Recipients)
}

func TestPutNotificationSettings_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad from address", `{"email_enabled":true,"sms_enabled":true,"email_from_address":"not-an-email","events":{}}`},
		{"unknown event", `{"email_enabled":true,"sms_enabled":true,"events":{"gift_card":{"email":true,"sms":true,"recipients":["client"]}}}`},
		{"unknown recipient", `{"email_enabled":true,"sms_enabled":true,"events":{"order_placed":{"email":true,"sms":true,"recipients":["staff"]}}}`},
		{"malformed json", `{"email_enabled":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			c, _ := newAuthedGinContext(t, http.MethodPut, "/admin/notification-settings", tt.body, "admin")
			f.srv.PutNotificationSettings(c)

			appErr := lastAppError(t, c)
			assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
			assert.Nil(t, f.settings.settings)
		})
	}
}

func TestSiteContact(t *testing.T) {
	f := newFixture()

	c, w := newAuthedGinContext(t, http.MethodPut, "/admin/site-contact", `{"contact_email":"studio@lumen.test"}`, "admin")
	f.srv.PutSiteContact(c)
	require.Empty(t, c.Errors)
	assert.Equal(t, "studio@lumen.test", f.settings.contact)

	c, w = newAuthedGinContext(t, http.MethodGet, "/admin/site-contact", "", "admin")
	f.srv.GetSiteContact(c)
	assert.JSONEq(t, `{"contact_email":"studio@lumen.test"}`, w.Body.String())

	c, _ = newAuthedGinContext(t, http.MethodPut, "/admin/site-contact", `{"contact_email":"nope"}`, "admin")
	f.srv.PutSiteContact(c)
	assert.Equal(t, apperrors.CodeValidationFailed, lastAppError(t, c).Code)
	assert.Equal(t, "studio@lumen.test", f.settings.contact)
}

func TestPreviewNotification(t *testing.T) {
	f := newFixture()

	c, w := newAuthedGinContext(t, http.MethodPost, "/admin/notifications/preview",
		`{"event":"order_completed","recipient_type":"client","user_id":"u-1"}`, "admin")
	f.srv.PreviewNotification(c)

	require.Empty(t, c.Errors)
	assert.JSONEq(t, `{
		"event":"order_completed","recipient_type":"client",
		"decisions":[
			{"channel":"email","send":true,"reason":"eligible"},
			{"channel":"sms","send":false,"reason":"channel_disabled"}
		]}`, w.Body.String())

	c, _ = newAuthedGinContext(t, http.MethodPost, "/admin/notifications/preview",
		`{"event":"order_completed","recipient_type":"client"}`, "admin")
	f.srv.PreviewNotification(c)
	assert.Equal(t, apperrors.CodeValidationFailed, lastAppError(t, c).Code)
}

func TestDispatchNotification(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		f := newFixture()
		c, w := newAuthedGinContext(t, http.MethodPost, "/notifications/dispatch",
			`{"event":"order_placed","recipient_type":"client","user_id":"u-1","payload":{"order_number":"ORD-1","amount":"99.5","item_count":2}}`, "admin")
		f.srv.DispatchNotification(c)

		require.Empty(t, c.Errors)
		assert.Equal(t, http.StatusAccepted, w.Code)
		require.Len(t, f.enqueuer.got, 1)
		req := f.enqueuer.got[0]
		assert.Equal(t, domain.EventOrderPlaced, req.Event)
		assert.Equal(t, "99.50", req.Payload.Amount.StringFixed(2))
	})

	t.Run("admin needs no user", func(t *testing.T) {
		f := newFixture()
		c, w := newAuthedGinContext(t, http.MethodPost, "/notifications/dispatch",
			`{"event":"booking_created","recipient_type":"admin","payload":{"client_name":"Ana"}}`, "admin")
		f.srv.DispatchNotification(c)
		assert.Equal(t, http.StatusAccepted, w.Code)
	})

	t.Run("client without user rejected", func(t *testing.T) {
		f := newFixture()
		c, _ := newAuthedGinContext(t, http.MethodPost, "/notifications/dispatch",
			`{"event":"order_placed","recipient_type":"client"}`, "admin")
		f.srv.DispatchNotification(c)
		assert.Equal(t, apperrors.CodeValidationFailed, lastAppError(t, c).Code)
		assert.Empty(t, f.enqueuer.got)
	})

	t.Run("queue failure", func(t *testing.T) {
		f := newFixture()
		f.enqueuer.err = errors.New("pool closed")
		c, _ := newAuthedGinContext(t, http.MethodPost, "/notifications/dispatch",
			`{"event":"order_placed","recipient_type":"client","user_id":"u-1"}`, "admin")
		f.srv.DispatchNotification(c)
		appErr := lastAppError(t, c)
		assert.Equal(t, apperrors.CodeEnqueueFailed, appErr.Code)
		assert.Equal(t, http.StatusServiceUnavailable, appErr.HTTPStatus)
	})
}

func TestMyPreferences(t *testing.T) {
	f := newFixture()

	c, w := newAuthedGinContext(t, http.MethodGet, "/me/notification-preferences", "", "u-1")
	f.srv.GetMyPreferences(c)
	assert.JSONEq(t, `{"project_updates":null,"downloads":null}`, w.Body.String())

	c, w = newAuthedGinContext(t, http.MethodPut, "/me/notification-preferences", `{"downloads":false}`, "u-1")
	f.srv.PutMyPreferences(c)
	require.Empty(t, c.Errors)
	assert.JSONEq(t, `{"project_updates":null,"downloads":false}`, w.Body.String())

	c, _ = newAuthedGinContext(t, http.MethodGet, "/me/notification-preferences", "", "ghost")
	f.srv.GetMyPreferences(c)
	assert.Equal(t, apperrors.CodeProfileNotFound, lastAppError(t, c).Code)
}

func TestRunRetentionScan(t *testing.T) {
	f := newFixture()
	c, w := newAuthedGinContext(t, http.MethodPost, "/jobs/retention-scan", "", "cron")
	f.srv.RunRetentionScan(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"remindersSent":0,"results":[]}`, w.Body.String())
	assert.Equal(t, fixedNow, f.scanner.at)

	f.scanner.summary = domain.ScanSummary{Success: false, Results: []domain.ReminderResult{}, Error: "query orders expiring in 90 days: timeout"}
	c, w = newAuthedGinContext(t, http.MethodPost, "/jobs/retention-scan", "", "cron")
	f.srv.RunRetentionScan(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestMediaHandlers(t *testing.T) {
	f := newFixture()

	c, w := newAuthedGinContext(t, http.MethodGet, "/admin/media/m-1/dependencies", "", "admin")
	c.Params = gin.Params{{Key: "media_id", Value: "m-1"}}
	f.srv.GetMediaDependencies(c)
	assert.JSONEq(t, `{"media_id":"m-1","dependents":2}`, w.Body.String())

	c, _ = newAuthedGinContext(t, http.MethodDelete, "/admin/media/m-1", "", "admin")
	c.Params = gin.Params{{Key: "media_id", Value: "m-1"}}
	f.srv.DeleteMedia(c)
	assert.Equal(t, http.StatusConflict, lastAppError(t, c).HTTPStatus)

	c, w = newAuthedGinContext(t, http.MethodDelete, "/admin/media/m-1?cascade=true", "", "admin")
	c.Params = gin.Params{{Key: "media_id", Value: "m-1"}}
	f.srv.DeleteMedia(c)
	assert.JSONEq(t, `{"media_id":"m-1","line_items_removed":2}`, w.Body.String())
}

func TestReadiness(t *testing.T) {
	f := newFixture()
	c, w := newAuthedGinContext(t, http.MethodGet, "/health/ready", "", "")
	f.srv.GetReadiness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	down := NewServer(ServerDeps{DB: pingFunc(func(context.Context) error { return errors.New("refused") })})
	c, w = newAuthedGinContext(t, http.MethodGet, "/health/ready", "", "")
	down.GetReadiness(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"database":"error"}}`, w.Body.String())
}
