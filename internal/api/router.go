package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/todoapp/tasktracker/docs"
	"github.com/todoapp/tasktracker/internal/api/handler"
	"github.com/todoapp/tasktracker/internal/api/middleware"
	"github.com/todoapp/tasktracker/internal/core/ports"
)

const metricsSubsystem = "http"

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Auth   ports.AuthService
	Todos  ports.TodoRepository
	Cookie handler.CookieOptions
	// Readiness lists the dependencies checked by GET /health/ready.
	Readiness map[string]handler.Pinger
	Logger    zerolog.Logger

	// Registerer and Gatherer default to the Prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "todoapp",
		Subsystem:  metricsSubsystem,
		Registerer: deps.Registerer,
	}))

	// --- Infrastructure ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Readiness)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Cookie, deps.Logger)
	todoHandler := handler.NewTodoHandler(deps.Logger)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth", authHandler.Login)
	e.POST("/auth/token", authHandler.Token)
	e.GET("/auth/logout", authHandler.Logout)

	// --- Browser routes: unauthenticated callers go to the login page ---
	page := middleware.Guard(middleware.GuardConfig{
		Resolver: deps.Auth,
		Todos:    deps.Todos,
		Mode:     middleware.ModeRedirect,
	})
	e.GET("/todos", todoHandler.List, page)
	e.POST("/todos/add-todo", todoHandler.PageCreate, page)
	e.GET("/todos/:id", todoHandler.Get, page)
	e.POST("/todos/edit-todo/:id", todoHandler.PageEdit, page)
	e.GET("/todos/delete/:id", todoHandler.PageDelete, page)
	e.GET("/todos/complete/:id", todoHandler.PageToggle, page)
	e.GET("/users/me", authHandler.PageMe, page)

	// --- JSON API: unauthenticated callers get a Bearer challenge ---
	v1 := e.Group("/api/v1", middleware.Guard(middleware.GuardConfig{
		Resolver: deps.Auth,
		Todos:    deps.Todos,
		Mode:     middleware.ModeChallenge,
	}))
	v1.GET("/todos", todoHandler.List)
	v1.POST("/todos", todoHandler.Create)
	v1.GET("/todos/:id", todoHandler.Get)
	v1.PUT("/todos/:id", todoHandler.Update)
	v1.DELETE("/todos/:id", todoHandler.Delete)
	v1.PATCH("/todos/:id/complete", todoHandler.Toggle)
	v1.GET("/users/me", authHandler.Me)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil {
				event = log.Warn().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
