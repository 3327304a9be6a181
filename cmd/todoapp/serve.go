package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/todoapp/tasktracker/internal/api"
	"github.com/todoapp/tasktracker/internal/api/handler"
	"github.com/todoapp/tasktracker/internal/core/ports"
	"github.com/todoapp/tasktracker/internal/core/security"
	"github.com/todoapp/tasktracker/internal/core/service"
	"github.com/todoapp/tasktracker/internal/infrastructure/cache"
	"github.com/todoapp/tasktracker/internal/infrastructure/db/memory"
	mongodb "github.com/todoapp/tasktracker/internal/infrastructure/db/mongo"
	"github.com/todoapp/tasktracker/internal/infrastructure/db/postgres"
	redisdb "github.com/todoapp/tasktracker/internal/infrastructure/db/redis"
	"github.com/todoapp/tasktracker/internal/infrastructure/queue"
	"github.com/todoapp/tasktracker/internal/pkg/config"
	"github.com/todoapp/tasktracker/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP server",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.Context)
			if err != nil {
				return err
			}
			return serve(c.Context, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Init(logger.Options{Service: "todoapp", Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	key, err := security.NewSigningKey(cfg.Auth.JWTSecret)
	if err != nil {
		return fmt.Errorf("JWT_SECRET: %w", err)
	}
	sameSite, err := cfg.Auth.SameSite()
	if err != nil {
		return err
	}
	if !cfg.Auth.CookieSecure && cfg.IsProduction() {
		log.Warn().Msg("COOKIE_SECURE is off in production; the access token cookie will be sent over plain HTTP")
	}

	readiness := map[string]handler.Pinger{}
	var cleanup []func(context.Context)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i](shutdownCtx)
		}
	}()

	// --- Users and todos ---
	var (
		users ports.UserRepository
		todos ports.TodoRepository
	)
	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, postgres.Config{URL: cfg.Database.URL})
		if err != nil {
			return err
		}
		cleanup = append(cleanup, func(context.Context) { _ = db.Close() })

		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(ctx, db, postgres.MigrateUp); err != nil {
				return err
			}
		}
		users = postgres.NewUserRepository(db)
		todos = postgres.NewTodoRepository(db)
		readiness["postgres"] = db.PingContext
		log.Info().Msg("using PostgreSQL store")
	} else {
		store := memory.NewStore()
		users = store.Users()
		todos = store.Todos()
		log.Warn().Msg("DATABASE_URL not set, using in-memory store")
	}

	// --- Audit trail ---
	var auditor ports.AuthAuditor
	if cfg.Mongo.URI != "" {
		audit, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		cleanup = append(cleanup, func(ctx context.Context) { _ = audit.Disconnect(ctx) })

		workerCtx, stopWorkers := context.WithCancel(context.Background())
		dispatcher := queue.NewDispatcher(cfg.Audit.Workers, audit.Events, log)
		dispatcher.Start(workerCtx)
		cleanup = append(cleanup, func(ctx context.Context) {
			if err := dispatcher.Stop(ctx); err != nil {
				log.Warn().Err(err).Msg("audit dispatcher did not drain")
			}
			stopWorkers()
		})

		auditor = dispatcher
		readiness["mongo"] = audit.Ping
	}

	// --- Revocation ---
	var denylist ports.TokenDenylist
	if cfg.Auth.RevokeOnLogout {
		denylist, err = newDenylist(ctx, cfg, readiness, &cleanup, log)
		if err != nil {
			return err
		}
	}

	authService := service.NewAuthService(service.AuthServiceConfig{
		Users:    users,
		Hasher:   security.NewPasswordHasher(cfg.Auth.BcryptCost),
		Issuer:   security.NewTokenIssuer(key, cfg.Auth.AccessTokenTTL, nil),
		Verifier: security.NewTokenVerifier(key, nil),
		Denylist: denylist,
		Auditor:  auditor,
		Logger:   log,
	})

	e := api.NewRouter(api.Deps{
		Auth:      authService,
		Todos:     todos,
		Cookie:    handler.CookieOptions{Secure: cfg.Auth.CookieSecure, SameSite: sameSite},
		Readiness: readiness,
		Logger:    log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newDenylist(
	ctx context.Context,
	cfg *config.Config,
	readiness map[string]handler.Pinger,
	cleanup *[]func(context.Context),
	log zerolog.Logger,
) (ports.TokenDenylist, error) {
	if cfg.Redis.Addr != "" {
		denylist, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return nil, err
		}
		*cleanup = append(*cleanup, func(context.Context) { _ = denylist.Close() })

		readiness["redis"] = denylist.Ping
		log.Info().Msg("token revocation enabled (redis)")
		return denylist, nil
	}

	// Entries must outlive the tokens they block.
	denylist, err := cache.NewDenylist(cfg.Auth.AccessTokenTTL + time.Minute)
	if err != nil {
		return nil, err
	}
	*cleanup = append(*cleanup, func(context.Context) { _ = denylist.Close() })
	log.Warn().Msg("token revocation enabled with an in-process denylist; revocations are not shared between replicas")
	return denylist, nil
}
