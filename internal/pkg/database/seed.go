package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// SeedDemo loads a small demo roster when the students table is empty.
// It returns false when data already exists.
func SeedDemo(ctx context.Context, db *sqlx.DB, today time.Time) (bool, error) {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM students`); err != nil {
		return false, fmt.Errorf("count students: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var johnID int
	err = tx.GetContext(ctx, &johnID, `
		INSERT INTO students (student_id, first_name, last_name, grade, class, meals_remaining, parent_email)
		VALUES ('STU001', 'John', 'Doe', '5', '5A', 10, 'parent.doe@example.com')
		RETURNING id`)
	if err != nil {
		return false, fmt.Errorf("seed STU001: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO students (student_id, first_name, last_name, grade, class, meals_remaining)
		VALUES ('STU002', 'Jane', 'Smith', '6', '6B', 5)`); err != nil {
		return false, fmt.Errorf("seed STU002: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tickets (ticket_id, student_id, date, session, security_hash, status)
		VALUES ('TICKET-001', $1, $2, 'lunch', 'hash123', 'valid')`,
		johnID, today.Format("2006-01-02"),
	); err != nil {
		return false, fmt.Errorf("seed ticket: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO integrations (name, status) VALUES ('quickbooks', 'inactive'), ('zapier', 'inactive')
		ON CONFLICT (name) DO NOTHING`); err != nil {
		return false, fmt.Errorf("seed integrations: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	log.Info().Msg("Seeded demo roster")
	return true, nil
}
