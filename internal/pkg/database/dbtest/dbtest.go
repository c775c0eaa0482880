// Package dbtest opens a migrated, empty Postgres database for repository
// tests. Tests are skipped when TEST_DATABASE_URL is unset or unreachable.
package dbtest

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/edumeal/edumeal-api/internal/pkg/database"
)

// lockKey serialises test packages that share one database.
const lockKey = 727001

// Open returns a connection to a freshly truncated schema.
func Open(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Skipf("db not available: %v", err)
	}

	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		t.Skipf("db not available: %v", err)
	}
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, lockKey); err != nil {
		conn.Close()
		db.Close()
		t.Fatalf("advisory lock: %v", err)
	}

	t.Cleanup(func() {
		conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockKey)
		conn.Close()
		db.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	Truncate(t, db)
	return db
}

// Truncate empties every application table.
func Truncate(t *testing.T, db *sqlx.DB) {
	t.Helper()
	_, err := db.Exec(`TRUNCATE tickets, subscriptions, logs, eligibility_reports, integrations, students RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}
