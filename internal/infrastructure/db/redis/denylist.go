package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "revoked:"

// Denylist stores revoked token ids in Redis. Each key expires when the
// token itself would have, so the set never outgrows the live tokens.
// Key format: revoked:<jti>
type Denylist struct {
	client    *redis.Client
	opTimeout time.Duration
	now       func() time.Time
}

// NewDenylist wraps client. Every call is bounded by opTimeout, or by the
// default when it is not positive.
func NewDenylist(client *redis.Client, opTimeout time.Duration) *Denylist {
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}
	return &Denylist{client: client, opTimeout: opTimeout, now: time.Now}
}

// Revoke marks tokenID as revoked until expiresAt. Already expired tokens
// are not stored.
func (d *Denylist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := remaining(d.now(), expiresAt)
	if ttl <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.opTimeout)
	defer cancel()

	if err := d.client.Set(ctx, revokedKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (d *Denylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, d.opTimeout)
	defer cancel()

	n, err := d.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}

// Ping reports whether Redis is reachable.
func (d *Denylist) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}

func (d *Denylist) Close() error {
	return d.client.Close()
}

func revokedKey(tokenID string) string {
	return revokedKeyPrefix + tokenID
}

// remaining rounds up to whole milliseconds; go-redis rejects sub-millisecond
// expirations.
func remaining(now, expiresAt time.Time) time.Duration {
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return 0
	}
	if rem := ttl % time.Millisecond; rem != 0 {
		ttl += time.Millisecond - rem
	}
	return ttl
}
