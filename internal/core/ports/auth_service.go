package ports

import (
	"context"
	"time"

	"github.com/todoapp/tasktracker/internal/core/domain"
)

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Username        string
	Email           string
	FirstName       string
	LastName        string
	PhoneNumber     string
	Password        string
	PasswordConfirm string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// IdentityResolver turns a bearer token into an authenticated identity.
//
// It returns domain.ErrUnauthenticated when there is no usable identity
// (no token, expired, incomplete claims, revoked) and domain.ErrInvalidToken
// when the token fails signature or format checks.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (domain.Identity, error)
}

type AuthService interface {
	IdentityResolver
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	// Logout never fails on a bad token; the caller always clears the cookie.
	Logout(ctx context.Context, token string) error
	Profile(ctx context.Context, identity domain.Identity) (*domain.User, error)
}
