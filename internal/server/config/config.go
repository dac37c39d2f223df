// Package config loads the server configuration from the environment
// (optionally overlaid from a .env file) and validates it at startup.
// The resulting Config is immutable for the process lifetime.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds runtime settings for the TillKeeper account server.
type Config struct {
	// Engine selects the storage backend: "postgres" or "sqlite".
	Engine string `env:"TILLKEEPER_ENGINE" envDefault:"postgres"`

	// DatabaseDSN is the connection string for the selected engine
	// (a pgx DSN for Postgres, a file path or ":memory:" for SQLite).
	DatabaseDSN string `env:"TILLKEEPER_DATABASE_DSN"`

	// HTTPAddr is the bind address for the HTTP API.
	HTTPAddr string `env:"TILLKEEPER_HTTP_ADDR" envDefault:":8080"`

	// JWTSecret is the HMAC secret for signing access tokens (HS256).
	JWTSecret string `env:"JWT_SECRET"`

	// AccessTokenTTLSecs is the access-token lifetime in seconds.
	AccessTokenTTLSecs int `env:"ACCESS_TOKEN_TTL_SECS" envDefault:"900"`

	// RefreshTokenTTLDays is the refresh-token lifetime in days.
	RefreshTokenTTLDays int `env:"REFRESH_TOKEN_TTL_DAYS" envDefault:"30"`
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLSecs) * time.Second
}

func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLDays) * 24 * time.Hour
}

// Load reads an optional .env file, parses the environment, and validates
// the result. An invalid configuration is fatal for the caller: the server
// must not start with a bad engine name or an empty signing secret.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Engine {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("TILLKEEPER_ENGINE must be \"postgres\" or \"sqlite\", got %q", c.Engine)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("TILLKEEPER_DATABASE_DSN must be set")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.AccessTokenTTLSecs <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL_SECS must be positive")
	}
	if c.RefreshTokenTTLDays <= 0 {
		return fmt.Errorf("REFRESH_TOKEN_TTL_DAYS must be positive")
	}
	if c.AccessTokenTTL() >= c.RefreshTokenTTL() {
		return fmt.Errorf("access token lifetime must be shorter than refresh token lifetime")
	}
	return nil
}
