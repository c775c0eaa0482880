package database

import (
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

func prepareGoose() error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{})
	return goose.SetDialect("postgres")
}

// Migrate applies every pending migration.
func Migrate(db *sqlx.DB) error {
	if err := prepareGoose(); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db.DB, migrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db.DB)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	log.Info().Int64("version", version).Msg("Database schema up to date")
	return nil
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(db *sqlx.DB) error {
	if err := prepareGoose(); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return goose.Down(db.DB, migrationsDir)
}

// MigrationStatus prints the applied state of every migration.
func MigrationStatus(db *sqlx.DB) error {
	if err := prepareGoose(); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return goose.Status(db.DB, migrationsDir)
}

// gooseLogger routes goose output through zerolog.
type gooseLogger struct{}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	log.Fatal().Msgf(format, v...)
}

func (gooseLogger) Printf(format string, v ...interface{}) {
	log.Info().Msgf(format, v...)
}
