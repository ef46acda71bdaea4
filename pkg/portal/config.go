// Package portal wires the portal's runtime services together from
// configuration: the credential directory, the session manager, the
// notification bus, the audit trail, and their backing stores.
package portal

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/careview/portal/pkg/database"
	"github.com/careview/portal/pkg/notify"
)

// Token store types.
const (
	TokenStoreMemory   = "memory"
	TokenStoreFile     = "file"
	TokenStorePostgres = "postgres"
)

// Audit sink types.
const (
	AuditSinkSlog     = "slog"
	AuditSinkPostgres = "postgres"
)

// Config holds the complete portal configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Session       SessionConfig       `yaml:"session"`
	Notifications NotificationsConfig `yaml:"notifications"`
	TokenStore    TokenStoreConfig    `yaml:"token_store"`
	Database      database.Config     `yaml:"database"`
	Audit         AuditConfig         `yaml:"audit"`
}

// ServerConfig configures the shell-facing HTTP surface.
type ServerConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

// SessionConfig configures the session manager.
type SessionConfig struct {
	// SigningKey signs remembered-session tokens.
	SigningKey string `yaml:"signing_key"`

	// TokenLifetime bounds how long a remembered session stays valid.
	TokenLifetime time.Duration `yaml:"token_lifetime"`

	// LoginLatency simulates validation latency on login.
	LoginLatency time.Duration `yaml:"login_latency"`

	// Installation identifies this portal instance in a shared
	// Postgres token store.
	Installation string `yaml:"installation"`
}

// NotificationsConfig configures the notification bus.
type NotificationsConfig struct {
	// Capacity bounds the queue length.
	Capacity int `yaml:"capacity"`

	// DefaultExpiry is applied to notifications added through the HTTP
	// surface without an expiry of their own. Zero means persist until
	// dismissed.
	DefaultExpiry time.Duration `yaml:"default_expiry"`
}

// TokenStoreConfig selects where the remembered-session token lives.
type TokenStoreConfig struct {
	// Type is memory, file, or postgres.
	Type string `yaml:"type"`

	// Path is the state file location for the file store.
	Path string `yaml:"path"`
}

// AuditConfig configures the auth audit trail.
type AuditConfig struct {
	// Sink is slog or postgres.
	Sink string `yaml:"sink"`
}

// LoadConfig loads configuration from a file.
// The path comes from command line arguments, controlled by the operator.
func LoadConfig(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// DefaultConfig returns the configuration used when no file is given:
// in-memory stores, demo accounts, slog audit.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.Server.Name == "" {
		cfg.Server.Name = "careview-portal"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Session.SigningKey == "" {
		// Demo default. Remembered sessions signed with it are only as
		// private as this source file, which matches the demo password
		// scheme.
		cfg.Session.SigningKey = "careview-demo-signing-key"
	}
	if cfg.Session.TokenLifetime == 0 {
		cfg.Session.TokenLifetime = 7 * 24 * time.Hour
	}
	if cfg.Session.LoginLatency == 0 {
		cfg.Session.LoginLatency = 500 * time.Millisecond
	}
	if cfg.Session.Installation == "" {
		cfg.Session.Installation = "default"
	}
	if cfg.Notifications.Capacity == 0 {
		cfg.Notifications.Capacity = notify.DefaultCapacity
	}
	if cfg.TokenStore.Type == "" {
		cfg.TokenStore.Type = TokenStoreMemory
	}
	if cfg.Audit.Sink == "" {
		cfg.Audit.Sink = AuditSinkSlog
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	switch c.TokenStore.Type {
	case TokenStoreMemory:
	case TokenStoreFile:
		if c.TokenStore.Path == "" {
			errs = append(errs, "token_store.path is required for the file store")
		}
	case TokenStorePostgres:
		if c.Database.DSN == "" {
			errs = append(errs, "database.dsn is required for the postgres token store")
		}
	default:
		errs = append(errs, fmt.Sprintf("token_store.type %q is not memory, file, or postgres", c.TokenStore.Type))
	}

	switch c.Audit.Sink {
	case AuditSinkSlog:
	case AuditSinkPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, "database.dsn is required for the postgres audit sink")
		}
	default:
		errs = append(errs, fmt.Sprintf("audit.sink %q is not slog or postgres", c.Audit.Sink))
	}

	if c.Notifications.Capacity < 0 {
		errs = append(errs, "notifications.capacity must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
