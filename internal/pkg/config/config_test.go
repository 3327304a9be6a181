package config

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": secret,
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 60*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.False(t, cfg.Auth.RevokeOnLogout)
	assert.False(t, cfg.Auth.CookieSecure)
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Mongo.URI)
	assert.Equal(t, "todoapp", cfg.Mongo.Database)
	assert.Equal(t, 4, cfg.Audit.Workers)
	assert.False(t, cfg.IsProduction())

	sameSite, err := cfg.Auth.SameSite()
	require.NoError(t, err)
	assert.Equal(t, http.SameSite(0), sameSite)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":       secret,
		"ENV":              "production",
		"ACCESS_TOKEN_TTL": "15m",
		"COOKIE_SECURE":    "true",
		"COOKIE_SAMESITE":  "Strict",
		"REVOKE_ON_LOGOUT": "true",
		"DATABASE_URL":     "postgres://localhost/todos",
		"REDIS_ADDR":       "localhost:6379",
		"AUDIT_WORKERS":    "2",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.True(t, cfg.Auth.CookieSecure)
	assert.True(t, cfg.Auth.RevokeOnLogout)
	assert.Equal(t, "postgres://localhost/todos", cfg.Database.URL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Audit.Workers)

	sameSite, err := cfg.Auth.SameSite()
	require.NoError(t, err)
	assert.Equal(t, http.SameSiteStrictMode, sameSite)
}

func TestLoadFrom_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret": {},
		"bad samesite":   {"JWT_SECRET": secret, "COOKIE_SAMESITE": "sometimes"},
		"zero ttl":       {"JWT_SECRET": secret, "ACCESS_TOKEN_TTL": "0s"},
		"no workers":     {"JWT_SECRET": secret, "AUDIT_WORKERS": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(context.Background(), envconfig.MapLookuper(env))
			assert.Error(t, err)
		})
	}
}
