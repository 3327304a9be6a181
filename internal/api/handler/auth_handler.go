package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/todoapp/tasktracker/internal/api/middleware"
	"github.com/todoapp/tasktracker/internal/core/domain"
	"github.com/todoapp/tasktracker/internal/core/ports"
)

const loginPagePath = "/auth"

// CookieOptions controls the attributes of the access token cookie beyond
// HttpOnly and Path, which are always set.
type CookieOptions struct {
	Secure   bool
	SameSite http.SameSite
}

type AuthHandler struct {
	authService ports.AuthService
	cookie      CookieOptions
	log         zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, cookie CookieOptions, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie, log: log}
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		PhoneNumber:     req.PhoneNumber,
		Password:        req.Password,
		PasswordConfirm: req.Password2,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// Login authenticates a browser form and redirects to the todo list.
//
// @Summary      Browser login
// @Tags         auth
// @Accept       x-www-form-urlencoded
// @Param        username  formData  string  true  "Username (the field may also be sent as email)"
// @Param        password  formData  string  true  "Password"
// @Success      302
// @Failure      401  {object}  errorResponse
// @Router       /auth [post]
func (h *AuthHandler) Login(c echo.Context) error {
	res, err := h.login(c)
	if err != nil {
		return err
	}

	h.setTokenCookie(c, res.Token, res.ExpiresAt)
	return c.Redirect(http.StatusFound, "/todos")
}

// Token authenticates an API client and returns the access token. The cookie
// is set as well so browser clients can use either.
//
// @Summary      Obtain an access token
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  tokenResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/token [post]
func (h *AuthHandler) Token(c echo.Context) error {
	res, err := h.login(c)
	if err != nil {
		return err
	}

	h.setTokenCookie(c, res.Token, res.ExpiresAt)
	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken: res.Token,
		TokenType:   "bearer",
		ExpiresAt:   res.ExpiresAt.UTC(),
	})
}

func (h *AuthHandler) login(c echo.Context) (*ports.LoginResult, error) {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	username := req.Username
	if username == "" {
		username = req.Email
	}
	return h.authService.Login(c.Request().Context(), username, req.Password)
}

// Logout deletes the access token cookie. The token to revoke is taken from
// the Authorization header when present, so API clients can log out too.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /auth/logout [get]
func (h *AuthHandler) Logout(c echo.Context) error {
	token := middleware.TokenFromRequest(c, true)
	h.clearTokenCookie(c)

	if err := h.authService.Logout(c.Request().Context(), token); err != nil {
		log := requestLogger(c, h.log)
		log.Error().Err(err).Msg("logout revocation failed")
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "User logged out"})
}

// Me returns the caller's profile.
//
// @Summary      Current user profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Router       /users/me [get]
// @Router       /api/v1/users/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return domain.ErrUnauthenticated
	}

	user, err := h.authService.Profile(c.Request().Context(), identity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// PageMe is Me for browser sessions: a token whose account no longer exists
// clears the cookie and goes back to the login page.
func (h *AuthHandler) PageMe(c echo.Context) error {
	err := h.Me(c)
	if errors.Is(err, domain.ErrUnauthenticated) {
		h.clearTokenCookie(c)
		return c.Redirect(http.StatusFound, loginPagePath)
	}
	return err
}

func (h *AuthHandler) setTokenCookie(c echo.Context, token string, expiresAt time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.SameSite,
	})
}

func (h *AuthHandler) clearTokenCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.SameSite,
	})
}
