package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/todoapp/tasktracker/internal/infrastructure/db/postgres"
	"github.com/todoapp/tasktracker/internal/pkg/config"
	"github.com/todoapp/tasktracker/pkg/logger"
)

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the PostgreSQL schema",
		Subcommands: []*cli.Command{
			migrateSubcommand(postgres.MigrateUp, "Apply all pending migrations"),
			migrateSubcommand(postgres.MigrateDown, "Roll back the latest migration"),
			migrateSubcommand(postgres.MigrateStatus, "Print the migration status"),
		},
	}
}

func migrateSubcommand(cmd postgres.MigrationCommand, usage string) *cli.Command {
	return &cli.Command{
		Name:  string(cmd),
		Usage: usage,
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.Context)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return fmt.Errorf("migrate: DATABASE_URL is not set")
			}
			log := logger.Init(logger.Options{Service: "todoapp", Level: cfg.LogLevel, Pretty: cfg.LogPretty})

			db, err := postgres.Open(c.Context, postgres.Config{URL: cfg.Database.URL})
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(c.Context, db, cmd); err != nil {
				return err
			}
			log.Info().Str("command", string(cmd)).Msg("migration finished")
			return nil
		},
	}
}
