// Package config provides configuration management for courier.
//
// Configuration is loaded from:
// 1. config.yaml file (optional)
// 2. Environment variables (standard names like DATABASE_URL, EMAIL_API_KEY)
// 3. Default values
//
// Import Path: mediadesk.io/courier/internal/config
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Async backends for fire-and-forget notification dispatch.
const (
	AsyncBackendRiver = "river"
	AsyncBackendPool  = "pool"
)

// Email providers.
const (
	EmailProviderResend = "resend"
	EmailProviderLog    = "log"
)

// Config is the root configuration structure.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Log           LogConfig           `mapstructure:"log"`
	River         RiverConfig         `mapstructure:"river"`
	Worker        WorkerConfig        `mapstructure:"worker"`
	Security      SecurityConfig      `mapstructure:"security"`
	Email         EmailConfig         `mapstructure:"email"`
	SMS           SMSConfig           `mapstructure:"sms"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Retention     RetentionConfig     `mapstructure:"retention"`
	Site          SiteConfig          `mapstructure:"site"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	AllowedOrigins        []string `mapstructure:"allowed_origins"`
	AllowCredentials      bool     `mapstructure:"allow_credentials"`
	UnsafeAllowAllOrigins bool     `mapstructure:"unsafe_allow_all_origins"`
}

// DatabaseConfig contains PostgreSQL connection settings.
// One pool is shared by the stores and River.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`

	// ConnectTimeout bounds the startup retry loop.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	AutoMigrate    bool          `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string.
// Priority: DATABASE_URL > constructed from individual fields.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslmode,
	)
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// RiverConfig contains River Queue settings.
type RiverConfig struct {
	MaxWorkers                  int           `mapstructure:"max_workers"`
	NotifyWorkers               int           `mapstructure:"notify_workers"`
	CompletedJobRetentionPeriod time.Duration `mapstructure:"completed_job_retention_period"`
}

// WorkerConfig contains worker pool settings.
type WorkerConfig struct {
	GeneralPoolSize int `mapstructure:"general_pool_size"`
	NotifyPoolSize  int `mapstructure:"notify_pool_size"`
}

// SecurityConfig contains security-related settings.
type SecurityConfig struct {
	// JWTSecret verifies HS256 bearer tokens issued by the auth backend.
	JWTSecret string `mapstructure:"jwt_secret"`
	// JWTIssuer, when set, must match the token's iss claim.
	JWTIssuer string `mapstructure:"jwt_issuer"`
	// CronSecret authenticates the external scheduler on the scan trigger.
	CronSecret string `mapstructure:"cron_secret"`
}

// EmailConfig contains transactional email settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"` // resend or log
	APIKey      string `mapstructure:"api_key"`
	FromName    string `mapstructure:"from_name"`
	FromAddress string `mapstructure:"from_address"`
}

// SMSConfig contains Twilio settings.
type SMSConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	FromNumber string `mapstructure:"from_number"`
	// Required makes missing credentials a startup error instead of
	// disabling the SMS channel.
	Required bool `mapstructure:"required"`
}

// Configured reports whether both Twilio credentials are present.
func (c SMSConfig) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != ""
}

// NotificationsConfig contains dispatch settings.
type NotificationsConfig struct {
	AsyncBackend       string `mapstructure:"async_backend"`
	AdminFallbackEmail string `mapstructure:"admin_fallback_email"`
	AdminPhone         string `mapstructure:"admin_phone"`
}

// RetentionConfig contains retention reminder settings.
type RetentionConfig struct {
	Timezone        string        `mapstructure:"timezone"`
	DownloadsURL    string        `mapstructure:"downloads_url"`
	Dedup           bool          `mapstructure:"dedup"`
	RunOnStart      bool          `mapstructure:"run_on_start"`
	Interval        time.Duration `mapstructure:"interval"`
	LedgerRetention time.Duration `mapstructure:"ledger_retention"`
}

// Location resolves Timezone, UTC when empty.
func (c RetentionConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// SiteConfig contains public site settings.
type SiteConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	DefaultLocale string `mapstructure:"default_locale"`
}

var (
	bootstrapLoggerOnce sync.Once
	bootstrapLogger     *zap.Logger
)

// Load reads configuration from file and environment variables.
// Nested keys map to env names by replacing "." with "_":
// email.api_key → EMAIL_API_KEY.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/courier")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.ensureSecrets(); err != nil {
		return nil, fmt.Errorf("ensure secrets: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Validate checks for critical configuration errors.
func (c *Config) Validate() error {
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters")
	}

	if err := validation.ValidateStruct(&c.Email,
		validation.Field(&c.Email.Provider, validation.Required, validation.In(EmailProviderResend, EmailProviderLog)),
		validation.Field(&c.Email.APIKey, validation.When(c.Email.Provider == EmailProviderResend, validation.Required)),
		validation.Field(&c.Email.FromAddress, is.EmailFormat),
	); err != nil {
		return fmt.Errorf("email: %w", err)
	}

	if c.SMS.Required && !c.SMS.Configured() {
		return fmt.Errorf("sms.account_sid and sms.auth_token are required when sms.required is set")
	}

	if err := validation.ValidateStruct(&c.Notifications,
		validation.Field(&c.Notifications.AsyncBackend, validation.Required, validation.In(AsyncBackendRiver, AsyncBackendPool)),
		validation.Field(&c.Notifications.AdminFallbackEmail, validation.Required, is.EmailFormat),
	); err != nil {
		return fmt.Errorf("notifications: %w", err)
	}

	if _, err := c.Retention.Location(); err != nil {
		return fmt.Errorf("retention.timezone: %w", err)
	}
	if err := validation.ValidateStruct(&c.Retention,
		validation.Field(&c.Retention.Interval, validation.Min(time.Minute)),
		validation.Field(&c.Retention.LedgerRetention, validation.Min(24*time.Hour)),
		validation.Field(&c.Retention.DownloadsURL, is.URL),
	); err != nil {
		return fmt.Errorf("retention: %w", err)
	}
	return nil
}

// ensureSecrets auto-generates missing secrets so a dev boot works without
// any environment. Generated values do not survive restarts.
func (c *Config) ensureSecrets() error {
	if c.Security.JWTSecret == "" {
		secret, err := generateSecureRandomHex(32)
		if err != nil {
			return fmt.Errorf("auto-generate jwt secret: %w", err)
		}
		c.Security.JWTSecret = secret
		logBootstrapWarn(
			"auto-generated jwt_secret; set SECURITY_JWT_SECRET env var for persistence",
			zap.Int("length", len(secret)),
		)
	}
	if c.Security.CronSecret == "" {
		secret, err := generateSecureRandomHex(24)
		if err != nil {
			return fmt.Errorf("auto-generate cron secret: %w", err)
		}
		c.Security.CronSecret = secret
		logBootstrapWarn(
			"auto-generated cron_secret; set SECURITY_CRON_SECRET env var for the external scheduler",
			zap.Int("length", len(secret)),
		)
	}
	return nil
}

func logBootstrapWarn(msg string, fields ...zap.Field) {
	bootstrapLoggerOnce.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)

		l, err := cfg.Build()
		if err != nil {
			bootstrapLogger = zap.NewNop()
			return
		}
		bootstrapLogger = l
	})

	bootstrapLogger.Warn(msg, fields...)
}

// generateSecureRandomHex produces a hex-encoded string of n random bytes.
func generateSecureRandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("crypto/rand: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.allow_credentials", true)
	v.SetDefault("server.unsafe_allow_all_origins", false)

	// Database
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "courier")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "courier")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "10m")
	v.SetDefault("database.connect_timeout", "30s")
	v.SetDefault("database.auto_migrate", true)

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// River
	v.SetDefault("river.max_workers", 10)
	v.SetDefault("river.notify_workers", 5)
	v.SetDefault("river.completed_job_retention_period", "24h")

	// Worker pool
	v.SetDefault("worker.general_pool_size", 50)
	v.SetDefault("worker.notify_pool_size", 10)

	// Security
	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.cron_secret", "")
	v.SetDefault("security.jwt_issuer", "")

	// Email
	v.SetDefault("email.provider", EmailProviderLog)
	v.SetDefault("email.api_key", "")
	v.SetDefault("email.from_name", "Courier Studio")
	v.SetDefault("email.from_address", "notifications@courier.local")

	// SMS
	v.SetDefault("sms.account_sid", "")
	v.SetDefault("sms.auth_token", "")
	v.SetDefault("sms.from_number", "")
	v.SetDefault("sms.required", false)

	// Notifications
	v.SetDefault("notifications.async_backend", AsyncBackendRiver)
	v.SetDefault("notifications.admin_fallback_email", "studio@courier.local")
	v.SetDefault("notifications.admin_phone", "")

	// Retention
	v.SetDefault("retention.timezone", "UTC")
	v.SetDefault("retention.downloads_url", "http://localhost:5173/account/downloads")
	v.SetDefault("retention.dedup", true)
	v.SetDefault("retention.run_on_start", false)
	v.SetDefault("retention.interval", "24h")
	v.SetDefault("retention.ledger_retention", "4320h")

	// Site
	v.SetDefault("site.base_url", "http://localhost:5173")
	v.SetDefault("site.default_locale", "en-US")
}
