// Package main seeds deterministic fixtures for live end-to-end tests: one
// client profile, a few media items and one order due at every retention
// offset. It prints bearer tokens for the admin and the client.
//
// This command is test-environment only and is intentionally idempotent.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"mediadesk.io/courier/internal/api/middleware"
	"mediadesk.io/courier/internal/config"
	"mediadesk.io/courier/internal/domain"
	"mediadesk.io/courier/internal/infrastructure"
	"mediadesk.io/courier/internal/pkg/logger"
	"mediadesk.io/courier/internal/retention"
	"mediadesk.io/courier/internal/store"
)

const (
	defaultAdminID     = "e2e-admin"
	defaultClientID    = "e2e-client"
	defaultClientEmail = "e2e-client@localhost"
	defaultClientName  = "E2E Client"
	defaultClientPhone = "+15550100"
	defaultLocale      = "en-US"
	defaultGalleryID   = "e2e-gallery"
	defaultOrderPrefix = "E2E"
	defaultTokenTTL    = 12 * time.Hour
)

// fixtureNamespace keeps generated ids stable across runs.
var fixtureNamespace = uuid.MustParse("6f1c2b0e-8a55-4a53-9d0a-2d5f3c1e7b42")

type fixtureConfig struct {
	AdminID     string
	ClientID    string
	ClientEmail string
	ClientName  string
	ClientPhone string
	Locale      string
	GalleryID   string
	OrderPrefix string
	TokenTTL    time.Duration
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "e2e-seed error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	loc, err := cfg.Retention.Location()
	if err != nil {
		return fmt.Errorf("retention timezone: %w", err)
	}

	ctx := context.Background()
	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	fx := loadFixtureConfig()

	if err := store.NewProfileStore(db.Pool).UpsertProfile(ctx, clientProfile(fx)); err != nil {
		return fmt.Errorf("ensure client profile: %w", err)
	}

	orders := fixtureOrders(fx, time.Now(), loc)
	if err := ensureMedia(ctx, store.NewMediaStore(db.Pool), fx, orders); err != nil {
		return fmt.Errorf("ensure media: %w", err)
	}
	if err := resetOrders(ctx, store.NewOrderStore(db.Pool), orders); err != nil {
		return fmt.Errorf("ensure orders: %w", err)
	}

	jwtCfg := middleware.JWTConfig{
		SigningKey: []byte(cfg.Security.JWTSecret),
		Issuer:     cfg.Security.JWTIssuer,
		ExpiresIn:  fx.TokenTTL,
	}
	adminToken, _, err := middleware.GenerateToken(jwtCfg, fx.AdminID, middleware.RoleAdmin)
	if err != nil {
		return fmt.Errorf("issue admin token: %w", err)
	}
	clientToken, _, err := middleware.GenerateToken(jwtCfg, fx.ClientID, middleware.RoleClient)
	if err != nil {
		return fmt.Errorf("issue client token: %w", err)
	}

	fmt.Printf("e2e fixtures ready (client=%s orders=%d gallery=%s)\n", fx.ClientID, len(orders), fx.GalleryID)
	fmt.Printf("E2E_ADMIN_TOKEN=%s\n", adminToken)
	fmt.Printf("E2E_CLIENT_TOKEN=%s\n", clientToken)
	return nil
}

func loadFixtureConfig() fixtureConfig {
	ttl := defaultTokenTTL
	if raw := envOrDefault("E2E_TOKEN_TTL", ""); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			ttl = d
		}
	}
	return fixtureConfig{
		AdminID:     envOrDefault("E2E_ADMIN_ID", defaultAdminID),
		ClientID:    envOrDefault("E2E_CLIENT_ID", defaultClientID),
		ClientEmail: envOrDefault("E2E_CLIENT_EMAIL", defaultClientEmail),
		ClientName:  envOrDefault("E2E_CLIENT_NAME", defaultClientName),
		ClientPhone: envOrDefault("E2E_CLIENT_PHONE", defaultClientPhone),
		Locale:      envOrDefault("E2E_LOCALE", defaultLocale),
		GalleryID:   envOrDefault("E2E_GALLERY", defaultGalleryID),
		OrderPrefix: envOrDefault("E2E_ORDER_PREFIX", defaultOrderPrefix),
		TokenTTL:    ttl,
	}
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func clientProfile(fx fixtureConfig) *domain.UserProfile {
	return &domain.UserProfile{
		ID:       fx.ClientID,
		Email:    fx.ClientEmail,
		FullName: fx.ClientName,
		Phone:    fx.ClientPhone,
		Locale:   fx.Locale,
	}
}

func fixtureID(parts ...string) string {
	return uuid.NewSHA1(fixtureNamespace, []byte(strings.Join(parts, "/"))).String()
}

// fixtureOrders returns one order per retention offset, expiring at noon
// of the day the scan targets, with offset/15+1 line items each.
func fixtureOrders(fx fixtureConfig, now time.Time, loc *time.Location) []domain.Order {
	orders := make([]domain.Order, 0, len(retention.Offsets))
	for _, offset := range retention.Offsets {
		start, _ := retention.Window(now, offset, loc)
		number := fmt.Sprintf("%s-%03d", fx.OrderPrefix, offset)
		o := domain.Order{
			ID:                 fixtureID("order", number),
			OrderNumber:        number,
			ClientID:           fx.ClientID,
			RetentionExpiresAt: start.Add(12 * time.Hour),
		}
		for i := 0; i <= offset/15; i++ {
			mediaID := fixtureID("media", fx.GalleryID, fmt.Sprint(i))
			o.Items = append(o.Items, domain.LineItem{
				ID:          fixtureID("item", number, fmt.Sprint(i)),
				OrderID:     o.ID,
				MediaItemID: mediaID,
			})
		}
		orders = append(orders, o)
	}
	return orders
}

func ensureMedia(ctx context.Context, media *store.MediaStore, fx fixtureConfig, orders []domain.Order) error {
	seen := map[string]bool{}
	for _, o := range orders {
		for i, li := range o.Items {
			if seen[li.MediaItemID] {
				continue
			}
			seen[li.MediaItemID] = true
			_, err := media.GetMediaItem(ctx, li.MediaItemID)
			if err == nil {
				continue
			}
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			item := &domain.MediaItem{ID: li.MediaItemID, GalleryID: fx.GalleryID, Title: fmt.Sprintf("E2E frame %d", i+1)}
			if err := media.CreateMediaItem(ctx, item); err != nil {
				return err
			}
		}
	}
	return nil
}

// resetOrders recreates the fixture orders so expiry dates follow today.
func resetOrders(ctx context.Context, orders *store.OrderStore, fixtures []domain.Order) error {
	numbers := make([]string, len(fixtures))
	for i, o := range fixtures {
		numbers[i] = o.OrderNumber
	}
	if _, err := orders.DeleteOrdersByNumber(ctx, numbers...); err != nil {
		return err
	}
	for i := range fixtures {
		if err := orders.CreateOrder(ctx, &fixtures[i]); err != nil {
			return err
		}
	}
	return nil
}
