package domain

import "errors"

var (
	// ErrInvalidCredentials is returned for an unknown username and for a
	// wrong password alike.
	ErrInvalidCredentials = errors.New("incorrect username or password")
	// ErrInvalidToken means a token was presented but failed signature or
	// format checks.
	ErrInvalidToken = errors.New("could not validate credentials")
	// ErrUnauthenticated means no usable identity: no token, an expired
	// token, incomplete claims or a revoked token id.
	ErrUnauthenticated = errors.New("not authenticated")
)

// Identity is the authenticated caller resolved from a verified token.
type Identity struct {
	Username string `json:"username"`
	ID       int64  `json:"id"`
}
