package mealcredit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edumeal/edumeal-api/internal/domain/subscription"
)

// Ledger persists a grant. The subscription row and the student counter
// change together or not at all.
type Ledger interface {
	ApplyGrant(ctx context.Context, d subscription.Draft) (*subscription.Subscription, int, error)
}

const queryTimeout = 3 * time.Second

type ledger struct {
	db   *sqlx.DB
	subs subscription.Repository
}

// NewLedger creates the Postgres-backed ledger.
func NewLedger(db *sqlx.DB, subs subscription.Repository) Ledger {
	return &ledger{db: db, subs: subs}
}

// ApplyGrant returns the new subscription and the student's updated
// mealsRemaining.
func (l *ledger) ApplyGrant(ctx context.Context, d subscription.Draft) (*subscription.Subscription, int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := l.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("begin grant: %w", err)
	}
	defer tx.Rollback()

	sub, err := l.subs.CreateTx(ctx, tx, d)
	if err != nil {
		return nil, 0, err
	}

	var remaining int
	err = tx.GetContext(ctx, &remaining, `
		UPDATE students
		SET meals_remaining = meals_remaining + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING meals_remaining
	`, d.StudentID, d.Meals)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrStudentNotFound
		}
		return nil, 0, fmt.Errorf("credit student: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit grant: %w", err)
	}
	return sub, remaining, nil
}
