package main

import (
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/edumeal/edumeal-api/internal/pkg/database"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Run all pending migrations",
			RunE:  withDB(database.Migrate),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE:  withDB(database.MigrateDown),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show migration status",
			RunE:  withDB(database.MigrationStatus),
		},
	)

	return cmd
}

func withDB(fn func(*sqlx.DB) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer database.ClosePostgres(db)
		return fn(db)
	}
}
