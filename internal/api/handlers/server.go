// Package handlers implements the courier HTTP API. Routes are registered
// by the app package; handlers only translate between HTTP and services.
//
// Import Path: mediadesk.io/courier/internal/api/handlers
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"mediadesk.io/courier/internal/api/middleware"
	"mediadesk.io/courier/internal/domain"
	"mediadesk.io/courier/internal/notification"
)

// SettingsStore is satisfied by *store.SettingsStore.
type SettingsStore interface {
	GetNotificationSettings(ctx context.Context) (*domain.NotificationSettings, error)
	SaveNotificationSettings(ctx context.Context, in *domain.NotificationSettings) error
	GetSiteContactEmail(ctx context.Context) (string, error)
	SetSiteContactEmail(ctx context.Context, email string) error
}

// ProfileStore is satisfied by *store.ProfileStore.
type ProfileStore interface {
	GetUserProfile(ctx context.Context, id string) (*domain.UserProfile, error)
	UpdatePreferences(ctx context.Context, id string, projectUpdates, downloads *bool) (*domain.UserProfile, error)
}

// Evaluator is satisfied by *notification.Evaluator.
type Evaluator interface {
	Evaluate(ctx context.Context, event domain.Event, userID string, channel domain.Channel, recipient domain.RecipientType) notification.Decision
}

// Scanner is satisfied by *retention.Scanner.
type Scanner interface {
	Run(ctx context.Context, now time.Time) domain.ScanSummary
}

// Gallery is satisfied by *gallery.Service.
type Gallery interface {
	DependencyCount(ctx context.Context, mediaID string) (int, error)
	DeleteMedia(ctx context.Context, mediaID string, cascade bool) (int, error)
}

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server implements all API handlers.
type Server struct {
	settings  SettingsStore
	profiles  ProfileStore
	evaluator Evaluator
	enqueuer  notification.Enqueuer
	scanner   Scanner
	gallery   Gallery
	db        Pinger
	now       func() time.Time
}

// ServerDeps holds all dependencies for creating a Server.
type ServerDeps struct {
	Settings  SettingsStore
	Profiles  ProfileStore
	Evaluator Evaluator
	Enqueuer  notification.Enqueuer
	Scanner   Scanner
	Gallery   Gallery
	DB        Pinger

	// Now defaults to time.Now.
	Now func() time.Time
}

// NewServer creates a new Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Server{
		settings:  deps.Settings,
		profiles:  deps.Profiles,
		evaluator: deps.Evaluator,
		enqueuer:  deps.Enqueuer,
		scanner:   deps.Scanner,
		gallery:   deps.Gallery,
		db:        deps.DB,
		now:       now,
	}
}

// callerID returns the authenticated user id, "" for anonymous requests.
func callerID(c *gin.Context) string {
	return middleware.GetUserID(c.Request.Context())
}
