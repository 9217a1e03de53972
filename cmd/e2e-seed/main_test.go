package main

import (
	"testing"
	"time"

	"mediadesk.io/courier/internal/retention"
)

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("E2E_TEST_KEY", "")
	if got := envOrDefault("E2E_TEST_KEY", "fallback"); got != "fallback" {
		t.Fatalf("envOrDefault empty = %q, want fallback", got)
	}

	t.Setenv("E2E_TEST_KEY", "  configured  ")
	if got := envOrDefault("E2E_TEST_KEY", "fallback"); got != "configured" {
		t.Fatalf("envOrDefault value = %q, want configured", got)
	}
}

func TestLoadFixtureConfig_Defaults(t *testing.T) {
	t.Setenv("E2E_CLIENT_ID", "")
	t.Setenv("E2E_ORDER_PREFIX", "")
	t.Setenv("E2E_TOKEN_TTL", "not-a-duration")

	cfg := loadFixtureConfig()
	if cfg.ClientID != defaultClientID {
		t.Fatalf("ClientID = %q, want %q", cfg.ClientID, defaultClientID)
	}
	if cfg.OrderPrefix != defaultOrderPrefix {
		t.Fatalf("OrderPrefix = %q, want %q", cfg.OrderPrefix, defaultOrderPrefix)
	}
	if cfg.TokenTTL != defaultTokenTTL {
		t.Fatalf("TokenTTL = %v, want %v", cfg.TokenTTL, defaultTokenTTL)
	}
}

func TestLoadFixtureConfig_Overrides(t *testing.T) {
	t.Setenv("E2E_CLIENT_ID", "tester")
	t.Setenv("E2E_CLIENT_EMAIL", "tester@example.com")
	t.Setenv("E2E_TOKEN_TTL", "30m")

	cfg := loadFixtureConfig()
	if cfg.ClientID != "tester" {
		t.Fatalf("ClientID = %q, want tester", cfg.ClientID)
	}
	if cfg.ClientEmail != "tester@example.com" {
		t.Fatalf("ClientEmail = %q, want tester@example.com", cfg.ClientEmail)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Fatalf("TokenTTL = %v, want 30m", cfg.TokenTTL)
	}
}

func TestFixtureOrders_LandInScanWindows(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	now := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	fx := fixtureConfig{ClientID: "c-1", GalleryID: "g-1", OrderPrefix: "T"}

	orders := fixtureOrders(fx, now, loc)
	if len(orders) != len(retention.Offsets) {
		t.Fatalf("len(orders) = %d, want %d", len(orders), len(retention.Offsets))
	}
	for i, o := range orders {
		offset := retention.Offsets[i]
		start, end := retention.Window(now, offset, loc)
		if o.RetentionExpiresAt.Before(start) || o.RetentionExpiresAt.After(end) {
			t.Fatalf("order %s expires %v, outside [%v, %v]", o.OrderNumber, o.RetentionExpiresAt, start, end)
		}
		if want := offset/15 + 1; len(o.Items) != want {
			t.Fatalf("order %s items = %d, want %d", o.OrderNumber, len(o.Items), want)
		}
	}

	again := fixtureOrders(fx, now, loc)
	if again[0].ID != orders[0].ID || again[0].Items[0].MediaItemID != orders[0].Items[0].MediaItemID {
		t.Fatal("fixture ids are not stable across runs")
	}
}
