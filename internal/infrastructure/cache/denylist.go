// Package cache provides an in-process token denylist on bigcache, used when
// no Redis is configured.
package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
)

// Denylist keeps revoked token ids in memory. Entries are evicted after the
// configured life window, which must be at least the longest token TTL;
// each entry also carries its token's expiry so a stale hit is ignored.
type Denylist struct {
	cache *bigcache.BigCache
	now   func() time.Time
}

// NewDenylist builds a Denylist whose entries live for lifeWindow.
func NewDenylist(lifeWindow time.Duration) (*Denylist, error) {
	cfg := bigcache.DefaultConfig(lifeWindow)
	cfg.Verbose = false
	cache, err := bigcache.NewBigCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("bigcache: %w", err)
	}
	return &Denylist{cache: cache, now: time.Now}, nil
}

func (d *Denylist) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	if !expiresAt.After(d.now()) {
		return nil
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(expiresAt.Unix()))
	if err := d.cache.Set(tokenID, buf); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (d *Denylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	buf, err := d.cache.Get(tokenID)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("revocation check: %w", err)
	}
	if len(buf) != 8 {
		return false, fmt.Errorf("revocation check: corrupt entry for %s", tokenID)
	}
	expiresAt := time.Unix(int64(binary.BigEndian.Uint64(buf)), 0)
	return d.now().Before(expiresAt), nil
}

func (d *Denylist) Close() error {
	return d.cache.Close()
}
