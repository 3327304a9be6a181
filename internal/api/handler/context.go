package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/todoapp/tasktracker/internal/api/middleware"
)

// requestLogger returns log enriched with the request id and, once the
// guard has run, the caller's identity.
func requestLogger(c echo.Context, log zerolog.Logger) zerolog.Logger {
	ctx := log.With()
	if rid := c.Response().Header().Get(echo.HeaderXRequestID); rid != "" {
		ctx = ctx.Str("request_id", rid)
	}
	if id, ok := middleware.IdentityFrom(c); ok {
		ctx = ctx.Str("username", id.Username).Int64("user_id", id.ID)
	}
	return ctx.Logger()
}
