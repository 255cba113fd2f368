package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/paniker63/the-tale/internal/quest"
)

// EnvPrefix prefixes every environment override, e.g. QUESTGEN_ADDRESS.
const EnvPrefix = "QUESTGEN_"

// ServerConfig holds server-wide configuration settings.
type ServerConfig struct {
	// Address is the listen address of the HTTP server.
	Address string `yaml:"address" env:"ADDRESS"`

	WebSocket   WebSocketConfig       `yaml:"websocket" envPrefix:"WS_"`
	Connections ConnectionsConfig     `yaml:"connections" envPrefix:"CONN_"`
	RateLimit   RateLimitConfig       `yaml:"rate_limit" envPrefix:"RATE_"`
	Database    DatabaseConfig        `yaml:"database" envPrefix:"DB_"`
	Metrics     MetricsConfig         `yaml:"metrics" envPrefix:"METRICS_"`
	Data        DataConfig            `yaml:"data" envPrefix:"DATA_"`
	Selection   quest.SelectionConfig `yaml:"selection"`
}

// ConnectionsConfig holds connection limit settings.
type ConnectionsConfig struct {
	// MaxPerIP is the maximum concurrent connections allowed from a single IP address.
	// 0 means unlimited (not recommended).
	MaxPerIP int `yaml:"max_per_ip" env:"MAX_PER_IP"`

	// MaxTotal is the maximum total concurrent connections to the server.
	// 0 means unlimited.
	MaxTotal int `yaml:"max_total" env:"MAX_TOTAL"`
}

// RateLimitConfig holds lockout settings for clients sending bad requests.
type RateLimitConfig struct {
	// MaxFailures is the number of rejected requests before a lockout.
	MaxFailures int `yaml:"max_failures" env:"MAX_FAILURES"`

	// LockoutSeconds is the initial lockout duration. It doubles on each
	// subsequent lockout up to MaxLockoutSeconds.
	LockoutSeconds    int `yaml:"lockout_seconds" env:"LOCKOUT_SECONDS"`
	MaxLockoutSeconds int `yaml:"max_lockout_seconds" env:"MAX_LOCKOUT_SECONDS"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of origins allowed to connect via WebSocket.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins (not recommended for production).
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`

	// MaxMessageSize is the maximum WebSocket message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size" env:"MAX_MESSAGE_SIZE"`
}

// DatabaseConfig selects and configures the quest store.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver     string `yaml:"driver" env:"DRIVER"`
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`

	PostgresHost     string        `yaml:"postgres_host" env:"POSTGRES_HOST"`
	PostgresPort     int           `yaml:"postgres_port" env:"POSTGRES_PORT"`
	PostgresUser     string        `yaml:"postgres_user" env:"POSTGRES_USER"`
	PostgresPassword string        `yaml:"postgres_password" env:"POSTGRES_PASSWORD"`
	PostgresDatabase string        `yaml:"postgres_database" env:"POSTGRES_DATABASE"`
	PostgresSSLMode  string        `yaml:"postgres_sslmode" env:"POSTGRES_SSLMODE"`
	MaxOpenConns     int           `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns     int           `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime  time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
}

// DataConfig points at the YAML data the generator loads at startup.
type DataConfig struct {
	World   string `yaml:"world" env:"WORLD"`
	Lexicon string `yaml:"lexicon" env:"LEXICON"`
}

// DefaultConfig returns a ServerConfig with secure defaults.
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Address: ":4000",
		WebSocket: WebSocketConfig{
			AllowedOrigins: []string{}, // Same-origin only by default
			MaxMessageSize: 4096,
		},
		Connections: ConnectionsConfig{
			MaxPerIP: 3,
			MaxTotal: 100,
		},
		RateLimit: RateLimitConfig{
			MaxFailures:       5,
			LockoutSeconds:    30,
			MaxLockoutSeconds: 300,
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			SQLitePath:      "data/questgen.db",
			PostgresHost:    "localhost",
			PostgresPort:    5432,
			PostgresSSLMode: "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Data: DataConfig{
			World:   "data/world.yaml",
			Lexicon: "data/lexicon.yaml",
		},
		Selection: *quest.DefaultSelectionConfig(),
	}
}

// LoadConfig loads server configuration from a YAML file, then applies QUESTGEN_*
// environment overrides. A missing file means defaults.
func LoadConfig(path string) (*ServerConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return DefaultConfig(), fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return config, fmt.Errorf("failed to read config: %w", err)
	}

	if err := ParseEnv(config); err != nil {
		return DefaultConfig(), err
	}
	if err := config.Validate(); err != nil {
		return DefaultConfig(), err
	}
	return config, nil
}

// ParseEnv applies QUESTGEN_* environment variables to target.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate rejects settings the server cannot start with.
func (c *ServerConfig) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Database.Driver == "sqlite" && c.Database.SQLitePath == "" {
		return fmt.Errorf("sqlite driver needs a sqlite_path")
	}
	if c.Connections.MaxPerIP < 0 || c.Connections.MaxTotal < 0 {
		return fmt.Errorf("connection limits must not be negative")
	}
	if c.RateLimit.MaxFailures < 0 || c.RateLimit.LockoutSeconds < 0 || c.RateLimit.MaxLockoutSeconds < 0 {
		return fmt.Errorf("rate limit settings must not be negative")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path %q must start with /", c.Metrics.Path)
	}
	return nil
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// isSameOrigin checks if the origin matches the request host (same-origin policy).
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // No origin header means a non-browser client
	}

	// "http://localhost:3000" -> "localhost:3000"
	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
