package ports

import (
	"context"
	"time"
)

// TokenDenylist records revoked token ids until the token would have
// expired anyway.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
