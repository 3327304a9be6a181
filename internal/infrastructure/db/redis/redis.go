// Package redis keeps the shared token denylist in Redis so revocations are
// seen by every replica.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultDialTimeout = 5 * time.Second
	defaultOpTimeout   = 500 * time.Millisecond
)

type Config struct {
	Addr string
	DB   int
	// DialTimeout bounds connecting and the startup ping.
	DialTimeout time.Duration
	// OpTimeout bounds each Revoke and IsRevoked call. It sits on the login
	// and request path, so keep it short.
	OpTimeout time.Duration
}

// Connect opens the denylist client and pings the server. A failed ping is
// a startup error.
func Connect(ctx context.Context, cfg Config) (*Denylist, error) {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = defaultOpTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.OpTimeout,
		WriteTimeout: cfg.OpTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis denylist %s: %w", cfg.Addr, err)
	}

	return NewDenylist(client, cfg.OpTimeout), nil
}
