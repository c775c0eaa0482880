package main

import (
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/edumeal/edumeal-api/internal/config"
	"github.com/edumeal/edumeal-api/internal/pkg/database"
	"github.com/edumeal/edumeal-api/internal/pkg/logger"
)

var cfg *config.Config

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "edumealctl",
		Short: "EduMeal operations tool",
		Long:  `edumealctl manages the EduMeal database, generates daily tickets and exercises the payment webhook.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg = config.Load()
			return logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newMigrateCommand(),
		newSeedCommand(),
		newGenerateTicketsCommand(),
		newCheckDBCommand(),
		newSendTestWebhookCommand(),
		newTokenCommand(),
	)

	return rootCmd
}

func openDB() (*sqlx.DB, error) {
	return database.NewPostgres(cfg.DatabaseURL)
}
