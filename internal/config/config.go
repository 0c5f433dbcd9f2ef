// Package config handles loading and validating the application
// configuration from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Watchlist     string              `yaml:"watchlist"`
	Poll          PollConfig          `yaml:"poll"`
	Browser       BrowserConfig       `yaml:"browser"`
	Store         StoreConfig         `yaml:"store"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Server        ServerConfig        `yaml:"server"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// PollConfig defines the polling cadence.
type PollConfig struct {
	// Interval is the default polling interval for items without their
	// own intervalMinutes.
	Interval time.Duration `yaml:"interval"`
	// Jitter is the upper bound of the random delay added to every sleep.
	Jitter time.Duration `yaml:"jitter"`
	// SummaryInterval is how often the aggregate state summary is logged.
	SummaryInterval time.Duration `yaml:"summary_interval"`
}

// BrowserConfig defines headless navigation settings.
type BrowserConfig struct {
	// Timeout bounds one navigation attempt.
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	// DisableHeadless runs a visible Chrome for local debugging; the
	// browser is headless by default.
	DisableHeadless bool `yaml:"disable_headless"`
	// CanonicalPath is the URL path fragment a resolved product page must
	// contain; navigations landing elsewhere are retried.
	CanonicalPath string `yaml:"canonical_path"`
	// NavRetries is the number of re-navigations attempted when the
	// resolved URL is not canonical.
	NavRetries int `yaml:"nav_retries"`
}

// StoreConfig selects and configures the state store backend.
type StoreConfig struct {
	Backend  string         `yaml:"backend"` // file, postgres
	Path     string         `yaml:"path"`    // file backend
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig defines PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns a PostgreSQL connection string.
func (p *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		p.Host, p.Port, p.Name, p.User, p.Password, p.SSLMode,
	)
}

// NotificationsConfig defines notification targets.
type NotificationsConfig struct {
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool              `yaml:"enabled"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

// ServerConfig defines the ops HTTP server. Port 0 disables it.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RateLimitConfig bounds outbound page acquisitions across all items.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Watchlist == "" {
		cfg.Watchlist = "./watchlist.json"
	}
	applyPollDefaults(&cfg.Poll)
	applyBrowserDefaults(&cfg.Browser)
	applyStoreDefaults(&cfg.Store)
	applyServerDefaults(&cfg.Server)
	applyRateLimitDefaults(&cfg.RateLimit)
	applyLoggingDefaults(&cfg.Logging)
}

func applyPollDefaults(p *PollConfig) {
	if p.Interval == 0 {
		p.Interval = 30 * time.Minute
	}
	if p.Jitter == 0 {
		p.Jitter = 45 * time.Second
	}
	if p.SummaryInterval == 0 {
		p.SummaryInterval = time.Hour
	}
}

func applyBrowserDefaults(b *BrowserConfig) {
	if b.Timeout == 0 {
		b.Timeout = 20 * time.Second
	}
	if b.UserAgent == "" {
		b.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
			"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124 Safari/537.36"
	}
	if b.CanonicalPath == "" {
		b.CanonicalPath = "/p/"
	}
	if b.NavRetries == 0 {
		b.NavRetries = 2
	}
}

func applyStoreDefaults(s *StoreConfig) {
	if s.Backend == "" {
		s.Backend = "file"
	}
	if s.Path == "" {
		s.Path = "./state.json"
	}
	if s.Postgres.Port == 0 {
		s.Postgres.Port = 5432
	}
	if s.Postgres.SSLMode == "" {
		s.Postgres.SSLMode = "disable"
	}
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyRateLimitDefaults(r *RateLimitConfig) {
	if r.PerSecond == 0 {
		r.PerSecond = 0.5
	}
	if r.Burst == 0 {
		r.Burst = 1
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	switch cfg.Store.Backend {
	case "file":
		// Path always has a default.
	case "postgres":
		if cfg.Store.Postgres.Host == "" {
			errs = append(errs, fmt.Errorf("store.postgres.host is required when backend is postgres"))
		}
		if cfg.Store.Postgres.Name == "" {
			errs = append(errs, fmt.Errorf("store.postgres.name is required when backend is postgres"))
		}
		if cfg.Store.Postgres.User == "" {
			errs = append(errs, fmt.Errorf("store.postgres.user is required when backend is postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend must be one of: file, postgres (got %q)", cfg.Store.Backend))
	}

	if cfg.Notifications.Discord.Enabled && cfg.Notifications.Discord.WebhookURL == "" {
		errs = append(errs, fmt.Errorf("notifications.discord.webhook_url is required when discord is enabled"))
	}
	if cfg.Notifications.Webhook.Enabled && cfg.Notifications.Webhook.URL == "" {
		errs = append(errs, fmt.Errorf("notifications.webhook.url is required when webhook is enabled"))
	}

	return errors.Join(errs...)
}
