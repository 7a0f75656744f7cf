package main

import (
	"fmt"
	"log/slog"

	"github.com/SscSPs/factor_ops_app/internal/platform/config"
	"github.com/SscSPs/factor_ops_app/pkg/database"
	"github.com/spf13/cobra"
)

func newMigrateCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	run := func(direction database.MigrationDirection) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("PGSQL_URL is required")
			}
			return database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, direction, logger)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE:  run(database.MigrateUp),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE:  run(database.MigrateDown),
		},
	)
	return cmd
}
