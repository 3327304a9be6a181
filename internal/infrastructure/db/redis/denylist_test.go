package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 15*time.Minute, remaining(now, now.Add(15*time.Minute)))
	assert.Equal(t, time.Duration(0), remaining(now, now))
	assert.Equal(t, time.Duration(0), remaining(now, now.Add(-time.Second)))
	assert.Equal(t, time.Millisecond, remaining(now, now.Add(10*time.Microsecond)))
}

func TestRevokedKey(t *testing.T) {
	assert.Equal(t, "revoked:abc", revokedKey("abc"))
}

// unreachable is a closed local port; connections are refused at once.
const unreachable = "127.0.0.1:1"

func TestConnect_UnreachableServer(t *testing.T) {
	_, err := Connect(context.Background(), Config{Addr: unreachable, DialTimeout: time.Second})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis denylist "+unreachable)
}

func TestDenylist_ErrorsWhenServerIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: unreachable, MaxRetries: -1, DialTimeout: time.Second})
	d := NewDenylist(client, 200*time.Millisecond)
	defer d.Close()

	_, err := d.IsRevoked(context.Background(), "jti")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revocation check")

	err = d.Revoke(context.Background(), "jti", time.Now().Add(time.Minute))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revoke token")
}

func TestNewDenylist_DefaultTimeout(t *testing.T) {
	d := NewDenylist(redis.NewClient(&redis.Options{Addr: unreachable}), 0)
	defer d.Close()
	assert.Equal(t, defaultOpTimeout, d.opTimeout)
}

// TestDenylist_Redis runs against a live server when REDIS_TEST_ADDR is set.
func TestDenylist_Redis(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	ctx := context.Background()
	d, err := Connect(ctx, Config{Addr: addr})
	require.NoError(t, err)
	defer d.Close()

	id := uuid.NewString()

	revoked, err := d.IsRevoked(ctx, id)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, d.Revoke(ctx, id, time.Now().Add(time.Minute)))

	revoked, err = d.IsRevoked(ctx, id)
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl, err := d.client.TTL(ctx, revokedKey(id)).Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, time.Minute)
	assert.Greater(t, ttl, time.Duration(0))

	expired := uuid.NewString()
	require.NoError(t, d.Revoke(ctx, expired, time.Now().Add(-time.Minute)))
	revoked, err = d.IsRevoked(ctx, expired)
	require.NoError(t, err)
	assert.False(t, revoked)
}
