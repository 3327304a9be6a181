package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/todoapp/tasktracker/internal/core/domain"
	"github.com/todoapp/tasktracker/internal/core/ports"
)

// AccessTokenCookie is the cookie carrying the signed access token.
const AccessTokenCookie = "access_token"

const (
	identityKey = "identity"
	todosKey    = "todos"
)

// GuardMode selects how an unauthenticated request is answered.
type GuardMode int

const (
	// ModeRedirect sends browsers to the login page.
	ModeRedirect GuardMode = iota
	// ModeChallenge answers 401 with a Bearer challenge.
	ModeChallenge
)

type GuardConfig struct {
	Resolver ports.IdentityResolver
	Todos    ports.TodoRepository
	Mode     GuardMode
	// LoginPath is the redirect target in ModeRedirect. Defaults to "/auth".
	LoginPath string
}

// Guard resolves the caller's identity from the access token and stores it,
// together with a todo repository scoped to that identity, on the context.
//
// A token that fails signature or format checks is always answered with
// 401. A missing, expired or revoked token redirects in ModeRedirect and
// is answered with 401 in ModeChallenge.
func Guard(cfg GuardConfig) echo.MiddlewareFunc {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/auth"
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := TokenFromRequest(c, cfg.Mode == ModeChallenge)

			identity, err := cfg.Resolver.Resolve(c.Request().Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, domain.ErrInvalidToken):
					return challenge(c, domain.ErrInvalidToken.Error(), err)
				case errors.Is(err, domain.ErrUnauthenticated):
					if cfg.Mode == ModeRedirect {
						return c.Redirect(http.StatusFound, cfg.LoginPath)
					}
					return challenge(c, domain.ErrUnauthenticated.Error(), err)
				}
				return err
			}

			SetIdentity(c, identity, cfg.Todos.ForOwner(identity.ID))

			return next(c)
		}
	}
}

// SetIdentity stores the caller's identity and scoped todo repository.
func SetIdentity(c echo.Context, identity domain.Identity, todos ports.OwnedTodoRepository) {
	c.Set(identityKey, identity)
	c.Set(todosKey, todos)
}

// IdentityFrom returns the identity placed by Guard.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(identityKey).(domain.Identity)
	return id, ok
}

// TodosFrom returns the owner-scoped todo repository placed by Guard.
func TodosFrom(c echo.Context) (ports.OwnedTodoRepository, bool) {
	repo, ok := c.Get(todosKey).(ports.OwnedTodoRepository)
	return repo, ok
}

// TokenFromRequest reads the access token cookie, or the Authorization
// header first when allowBearer is set. An empty Bearer value falls back to
// the cookie.
func TokenFromRequest(c echo.Context, allowBearer bool) string {
	if allowBearer {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func challenge(c echo.Context, msg string, cause error) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return echo.NewHTTPError(http.StatusUnauthorized, msg).SetInternal(cause)
}
