package config

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	Auth     AuthConfig
	Database DatabaseConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Audit    AuditConfig
}

type AuthConfig struct {
	JWTSecret      string        `env:"JWT_SECRET, required"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL, default=60m"`
	BcryptCost     int           `env:"BCRYPT_COST,      default=10"`
	CookieSecure   bool          `env:"COOKIE_SECURE,    default=false"`
	CookieSameSite string        `env:"COOKIE_SAMESITE"`
	RevokeOnLogout bool          `env:"REVOKE_ON_LOGOUT, default=false"`
}

// DatabaseConfig selects PostgreSQL. With an empty URL the in-memory store
// is used.
type DatabaseConfig struct {
	URL         string `env:"DATABASE_URL"`
	AutoMigrate bool   `env:"DATABASE_AUTO_MIGRATE, default=false"`
}

// MongoConfig selects the audit store. With an empty URI auth events are
// not persisted.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=todoapp"`
}

// RedisConfig selects the shared token denylist. With an empty address an
// in-process denylist is used when revocation is enabled.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through l and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive, got %s", c.Auth.AccessTokenTTL)
	}
	if c.Audit.Workers < 1 {
		return fmt.Errorf("AUDIT_WORKERS must be at least 1, got %d", c.Audit.Workers)
	}
	if _, err := c.Auth.SameSite(); err != nil {
		return err
	}
	return nil
}

// SameSite parses COOKIE_SAMESITE. An empty value leaves the attribute off.
func (a AuthConfig) SameSite() (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(a.CookieSameSite)) {
	case "":
		return 0, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("COOKIE_SAMESITE must be one of lax, strict, none; got %q", a.CookieSameSite)
	}
}

// IsProduction reports whether ENV is set to production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
