package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/todoapp/tasktracker/internal/core/domain"
	"github.com/todoapp/tasktracker/internal/core/ports"
	"github.com/todoapp/tasktracker/internal/core/security"
	"github.com/todoapp/tasktracker/internal/pkg/metrics"
)

var ErrTokenRevoked = fmt.Errorf("%w: token revoked", domain.ErrUnauthenticated)

// AuthServiceConfig wires the collaborators of AuthService. Denylist and
// Auditor are optional: without a denylist logout only clears the cookie,
// without an auditor events are dropped.
type AuthServiceConfig struct {
	Users    ports.UserRepository
	Hasher   *security.PasswordHasher
	Issuer   *security.TokenIssuer
	Verifier *security.TokenVerifier
	Denylist ports.TokenDenylist
	Auditor  ports.AuthAuditor
	Logger   zerolog.Logger
	Clock    security.Clock
}

// AuthService implements registration, login, logout and identity
// resolution.
type AuthService struct {
	users    ports.UserRepository
	hasher   *security.PasswordHasher
	issuer   *security.TokenIssuer
	verifier *security.TokenVerifier
	denylist ports.TokenDenylist
	auditor  ports.AuthAuditor
	log      zerolog.Logger
	now      security.Clock
}

func NewAuthService(cfg AuthServiceConfig) *AuthService {
	auditor := cfg.Auditor
	if auditor == nil {
		auditor = nopAuditor{}
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		users:    cfg.Users,
		hasher:   cfg.Hasher,
		issuer:   cfg.Issuer,
		verifier: cfg.Verifier,
		denylist: cfg.Denylist,
		auditor:  auditor,
		log:      cfg.Logger,
		now:      now,
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if username == "" || email == "" || in.Password == "" || in.Password != in.PasswordConfirm {
		return nil, domain.ErrInvalidRegistration
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRegistration, err)
	}

	created, err := s.users.Create(ctx, &domain.User{
		Username:     username,
		Email:        email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("username", created.Username).Int64("user_id", created.ID).Msg("user registered")
	s.record(domain.AuthEventRegistered, created.Username, created.ID, "")
	return created, nil
}

// Login verifies credentials and issues an access token. Unknown usernames,
// wrong passwords and inactive accounts all yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	if username == "" || password == "" {
		return nil, s.loginFailed(username, "missing credentials")
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Equalize(password)
			return nil, s.loginFailed(username, "unknown user")
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, s.loginFailed(username, "password mismatch")
	}
	if !user.IsActive {
		return nil, s.loginFailed(username, "inactive account")
	}

	tok, err := s.issuer.Issue(user.Username, user.ID)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("username", user.Username).Int64("user_id", user.ID).Msg("login succeeded")
	s.record(domain.AuthEventLoginSucceeded, user.Username, user.ID, "")

	return &ports.LoginResult{Token: tok.Value, ExpiresAt: tok.ExpiresAt, User: user}, nil
}

func (s *AuthService) loginFailed(username, reason string) error {
	metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
	s.log.Info().Str("username", username).Str("reason", reason).Msg("login failed")
	s.record(domain.AuthEventLoginFailed, username, 0, reason)
	return domain.ErrInvalidCredentials
}

// Logout revokes the token id when a denylist is configured. Tokens that do
// not verify have nothing to revoke and are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	verified, err := s.verifier.Verify(token)
	if err != nil {
		return nil
	}

	if s.denylist != nil && verified.ID != "" {
		if err := s.denylist.Revoke(ctx, verified.ID, verified.ExpiresAt); err != nil {
			return fmt.Errorf("logout: revoke token: %w", err)
		}
	}

	s.record(domain.AuthEventLogout, verified.Identity.Username, verified.Identity.ID, "")
	return nil
}

// Resolve verifies token and checks the denylist. Lookup failures fail
// closed as unauthenticated.
func (s *AuthService) Resolve(ctx context.Context, token string) (domain.Identity, error) {
	verified, err := s.verifier.Verify(token)
	if err != nil {
		s.observeResolution(err)
		if errors.Is(err, domain.ErrInvalidToken) {
			s.record(domain.AuthEventTokenRejected, "", 0, err.Error())
		}
		return domain.Identity{}, err
	}

	if s.denylist != nil && verified.ID != "" {
		revoked, err := s.denylist.IsRevoked(ctx, verified.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("jti", verified.ID).Msg("denylist lookup failed")
			metrics.TokenResolutionsTotal.WithLabelValues("revocation_error").Inc()
			return domain.Identity{}, fmt.Errorf("%w: revocation check failed", domain.ErrUnauthenticated)
		}
		if revoked {
			s.observeResolution(ErrTokenRevoked)
			return domain.Identity{}, ErrTokenRevoked
		}
	}

	s.observeResolution(nil)
	return verified.Identity, nil
}

// Profile re-reads the caller's account. A deleted account no longer
// resolves.
func (s *AuthService) Profile(ctx context.Context, identity domain.Identity) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: account no longer exists", domain.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("profile: %w", err)
	}
	return user, nil
}

func (s *AuthService) record(typ domain.AuthEventType, username string, userID int64, reason string) {
	s.auditor.Record(domain.AuthEvent{
		Type:       typ,
		Username:   username,
		UserID:     userID,
		Reason:     reason,
		OccurredAt: s.now().UTC(),
	})
}

func (s *AuthService) observeResolution(err error) {
	metrics.TokenResolutionsTotal.WithLabelValues(resolutionOutcome(err)).Inc()
}

func resolutionOutcome(err error) string {
	switch {
	case err == nil:
		return "authenticated"
	case errors.Is(err, security.ErrNoToken):
		return "no_token"
	case errors.Is(err, security.ErrTokenExpired):
		return "expired"
	case errors.Is(err, security.ErrMissingClaims):
		return "missing_claims"
	case errors.Is(err, ErrTokenRevoked):
		return "revoked"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid"
	default:
		return "error"
	}
}

type nopAuditor struct{}

func (nopAuditor) Record(domain.AuthEvent) {}
