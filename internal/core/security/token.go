package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/todoapp/tasktracker/internal/core/domain"
)

// DefaultTokenTTL applies when an issuer is built without a TTL.
const DefaultTokenTTL = 15 * time.Minute

// MinSigningKeyLength matches the HS256 output size.
const MinSigningKeyLength = 32

var (
	ErrNoToken       = fmt.Errorf("%w: no token", domain.ErrUnauthenticated)
	ErrTokenExpired  = fmt.Errorf("%w: token expired", domain.ErrUnauthenticated)
	ErrMissingClaims = fmt.Errorf("%w: missing identity claims", domain.ErrUnauthenticated)
)

// SigningKey is the process-wide HMAC secret. It is built once at startup
// and never mutated.
type SigningKey struct {
	secret []byte
}

func NewSigningKey(secret string) (SigningKey, error) {
	if len(secret) < MinSigningKeyLength {
		return SigningKey{}, fmt.Errorf("signing key must be at least %d bytes, got %d", MinSigningKeyLength, len(secret))
	}
	return SigningKey{secret: []byte(secret)}, nil
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

type tokenClaims struct {
	// UserID is a pointer so a missing claim is distinguishable from zero.
	UserID *int64 `json:"id,omitempty"`
	jwt.RegisteredClaims
}

// IssuedToken is a signed access token together with the values a caller
// needs for cookies and revocation.
type IssuedToken struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// TokenIssuer signs access tokens with HS256.
type TokenIssuer struct {
	key SigningKey
	ttl time.Duration
	now Clock
}

// NewTokenIssuer returns an issuer whose Issue uses ttl, or DefaultTokenTTL
// when ttl is not positive. A nil clock means time.Now.
func NewTokenIssuer(key SigningKey, ttl time.Duration, clock Clock) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &TokenIssuer{key: key, ttl: ttl, now: clock}
}

func (i *TokenIssuer) Issue(username string, userID int64) (IssuedToken, error) {
	return i.IssueWithTTL(username, userID, i.ttl)
}

// IssueWithTTL signs a token expiring ttl from now. A zero ttl yields a
// token that is already expired.
func (i *TokenIssuer) IssueWithTTL(username string, userID int64, ttl time.Duration) (IssuedToken, error) {
	now := i.now()
	claims := tokenClaims{
		UserID: &userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key.secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}
	return IssuedToken{Value: signed, ID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// VerifiedToken is the result of a successful verification.
type VerifiedToken struct {
	Identity  domain.Identity
	ID        string
	ExpiresAt time.Time
}

// TokenVerifier checks signature, algorithm and expiry of access tokens.
type TokenVerifier struct {
	key    SigningKey
	parser *jwt.Parser
}

func NewTokenVerifier(key SigningKey, clock Clock) *TokenVerifier {
	if clock == nil {
		clock = time.Now
	}
	return &TokenVerifier{
		key: key,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithStrictDecoding(),
			jwt.WithTimeFunc(clock),
		),
	}
}

// Verify resolves raw into an identity.
//
//	no token                          -> ErrNoToken        (domain.ErrUnauthenticated)
//	bad signature, alg or encoding    -> domain.ErrInvalidToken
//	good signature, exp <= now        -> ErrTokenExpired   (domain.ErrUnauthenticated)
//	good and unexpired, no sub or id  -> ErrMissingClaims  (domain.ErrUnauthenticated)
func (v *TokenVerifier) Verify(raw string) (VerifiedToken, error) {
	if raw == "" {
		return VerifiedToken{}, ErrNoToken
	}

	claims := &tokenClaims{}
	_, err := v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.key.secret, nil
	})
	if err != nil {
		// The parser checks the signature before claims, so an expiry error
		// implies the signature was good.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return VerifiedToken{}, ErrTokenExpired
		}
		return VerifiedToken{}, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}

	if claims.Subject == "" || claims.UserID == nil {
		return VerifiedToken{}, ErrMissingClaims
	}

	return VerifiedToken{
		Identity:  domain.Identity{Username: claims.Subject, ID: *claims.UserID},
		ID:        claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
