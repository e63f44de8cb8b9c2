// Package platform loads configuration and assembles the Shoppermo HTTP
// service from its stores, session authorities and handlers.
package platform

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CurrentConfigVersion is the only supported apiVersion.
const CurrentConfigVersion = "v1"

// Notification providers.
const (
	NotifyProviderLog   = "log"
	NotifyProviderGmail = "gmail"
)

// Config holds the complete service configuration.
type Config struct {
	APIVersion string          `yaml:"apiVersion"`
	Server     ServerConfig    `yaml:"server"`
	Database   DatabaseConfig  `yaml:"database"`
	Admin      AdminConfig     `yaml:"admin"`
	Session    SessionConfig   `yaml:"session"`
	Notify     NotifyConfig    `yaml:"notify"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
	Log        LogConfig       `yaml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// DisableDocs hides the OpenAPI UI at /api/docs/.
	DisableDocs bool `yaml:"disable_docs"`
}

// DatabaseConfig configures PostgreSQL. An empty DSN selects in-memory stores.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	SkipMigrations  bool          `yaml:"skip_migrations"`
}

// AdminConfig configures the admin panel. An empty password disables it.
type AdminConfig struct {
	Password string `yaml:"password"`
}

// SessionConfig configures the session authorities. The session lifetime
// is fixed at 24 hours.
type SessionConfig struct {
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// NotifyConfig configures operator notifications.
type NotifyConfig struct {
	Provider  string        `yaml:"provider"`
	Recipient string        `yaml:"recipient"`
	From      string        `yaml:"from"`
	Timeout   time.Duration `yaml:"timeout"`
	Gmail     GmailConfig   `yaml:"gmail"`
}

// GmailConfig holds Gmail API OAuth credentials.
type GmailConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	AccessToken  string `yaml:"access_token"`
	BaseURL      string `yaml:"base_url"`
	TokenURL     string `yaml:"token_url"`
}

func (g GmailConfig) hasCredentials() bool {
	return g.AccessToken != "" || (g.RefreshToken != "" && g.ClientID != "" && g.ClientSecret != "")
}

// RateLimitConfig configures the optional per-client request limiter.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	TrustProxy        bool    `yaml:"trust_proxy"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SlogLevel returns the configured level, defaulting to info.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadConfig loads configuration from a YAML file. ${VAR} references are
// expanded, then deployment environment variables override file values.
// An empty path yields the defaults plus environment overrides.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		// #nosec G304 -- path is from CLI args, controlled by the operator
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// DefaultConfig returns the defaults with no file or environment applied.
func DefaultConfig() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in s.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// applyEnvOverrides applies the conventional deployment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		cfg.Admin.Password = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("NOTIFICATION_EMAIL"); v != "" {
		cfg.Notify.Recipient = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Address = ":" + v
	}
}

// applyDefaults fills unset values.
func applyDefaults(cfg *Config) {
	if cfg.APIVersion == "" {
		cfg.APIVersion = CurrentConfigVersion
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":5000"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 25 * time.Second
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if cfg.Session.CleanupInterval == 0 {
		cfg.Session.CleanupInterval = time.Minute
	}
	if cfg.Notify.Provider == "" {
		cfg.Notify.Provider = NotifyProviderLog
		if cfg.Notify.Gmail.hasCredentials() {
			cfg.Notify.Provider = NotifyProviderGmail
		}
	}
	if cfg.Notify.Timeout == 0 {
		cfg.Notify.Timeout = 10 * time.Second
	}
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 5
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.APIVersion != CurrentConfigVersion {
		errs = append(errs, fmt.Sprintf("unsupported apiVersion %q (want %s)", c.APIVersion, CurrentConfigVersion))
	}
	if c.Server.Address == "" {
		errs = append(errs, "server.address is required")
	}

	switch c.Notify.Provider {
	case NotifyProviderLog:
	case NotifyProviderGmail:
		if c.Notify.Recipient == "" {
			errs = append(errs, "notify.recipient is required for the gmail provider")
		}
		if !c.Notify.Gmail.hasCredentials() {
			errs = append(errs, "notify.gmail needs access_token or refresh_token with client_id and client_secret")
		}
	default:
		errs = append(errs, fmt.Sprintf("notify.provider %q is not one of log, gmail", c.Notify.Provider))
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerSecond <= 0 {
			errs = append(errs, "rate_limit.requests_per_second must be positive")
		}
		if c.RateLimit.Burst <= 0 {
			errs = append(errs, "rate_limit.burst must be positive")
		}
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q is not one of json, text", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
