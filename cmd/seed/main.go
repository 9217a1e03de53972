// Package main seeds notification settings from a YAML file.
//
// The file holds the admin settings singleton and the site contact address;
// running it twice leaves the same state.
//
// Import Path: mediadesk.io/courier/cmd/seed
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"mediadesk.io/courier/internal/config"
	"mediadesk.io/courier/internal/domain"
	"mediadesk.io/courier/internal/infrastructure"
	"mediadesk.io/courier/internal/pkg/logger"
	"mediadesk.io/courier/internal/store"
)

const defaultSeedFile = "config/notification-settings.yaml"

// seedFile is the on-disk layout.
type seedFile struct {
	Settings         domain.NotificationSettings `yaml:"settings"`
	SiteContactEmail *string                     `yaml:"site_contact_email"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed error: %v\n", err)
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

	path := seedPath(os.Args[1:])
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	seed, err := parseSeedFile(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	ctx := context.Background()
	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	// Schema migrations are expected to be applied by the server first.
	logger.Info("Starting settings seeding...", zap.String("file", path))

	if err := apply(ctx, store.NewSettingsStore(db.Pool), seed); err != nil {
		return err
	}

	logger.Info("Settings seeding completed",
		zap.Int("events", len(seed.Settings.Events)),
		zap.Bool("site_contact", seed.SiteContactEmail != nil),
	)
	return nil
}

// seedPath prefers the first argument, then SEED_SETTINGS_FILE.
func seedPath(args []string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0]
	}
	if v := strings.TrimSpace(os.Getenv("SEED_SETTINGS_FILE")); v != "" {
		return v
	}
	return defaultSeedFile
}

// parseSeedFile decodes strictly; unknown keys and unknown event or
// recipient names are rejected.
func parseSeedFile(data []byte) (*seedFile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var out seedFile
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if out.Settings.Events == nil {
		out.Settings.Events = map[domain.Event]domain.EventConfig{}
	}

	var errs []error
	for e, ec := range out.Settings.Events {
		if !e.Valid() {
			errs = append(errs, fmt.Errorf("unknown event %q", e))
			continue
		}
		for _, r := range ec.Recipients {
			if !r.Valid() {
				errs = append(errs, fmt.Errorf("event %s: unknown recipient type %q", e, r))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &out, nil
}

type settingsWriter interface {
	SaveNotificationSettings(ctx context.Context, in *domain.NotificationSettings) error
	SetSiteContactEmail(ctx context.Context, email string) error
}

func apply(ctx context.Context, w settingsWriter, seed *seedFile) error {
	if err := w.SaveNotificationSettings(ctx, &seed.Settings); err != nil {
		return fmt.Errorf("save notification settings: %w", err)
	}
	if seed.SiteContactEmail != nil {
		if err := w.SetSiteContactEmail(ctx, strings.TrimSpace(*seed.SiteContactEmail)); err != nil {
			return fmt.Errorf("save site contact: %w", err)
		}
	}
	return nil
}
