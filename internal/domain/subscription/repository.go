package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

const selectColumns = `
	id, student_id, plan_type, start_date, end_date, amount_paid,
	total_meals, meals_remaining, status, qb_transaction_id, created_at`

// Repository defines subscription data access
type Repository interface {
	// CreateTx records a subscription inside the caller's transaction.
	// The caller commits or rolls back.
	CreateTx(ctx context.Context, tx *sqlx.Tx, d Draft) (*Subscription, error)
	ListByStudent(ctx context.Context, studentID int) ([]*Subscription, error)
	CountActive(ctx context.Context) (int, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates subscription repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateTx(ctx context.Context, tx *sqlx.Tx, d Draft) (*Subscription, error) {
	var txID interface{}
	if d.TransactionID != "" {
		txID = d.TransactionID
	}

	var sub Subscription
	err := tx.GetContext(ctx, &sub, `
		INSERT INTO subscriptions (student_id, plan_type, start_date, amount_paid, total_meals, meals_remaining, status, qb_transaction_id)
		VALUES ($1, $2, $3, $4, $5, $5, $6, $7)
		RETURNING `+selectColumns,
		d.StudentID, d.PlanType, d.StartDate, d.AmountPaid, d.Meals, StatusActive, txID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert subscription: %w", err)
	}
	return &sub, nil
}

func (r *repository) ListByStudent(ctx context.Context, studentID int) ([]*Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	subs := make([]*Subscription, 0)
	err := r.db.SelectContext(ctx, &subs, `
		SELECT `+selectColumns+`
		FROM subscriptions
		WHERE student_id = $1
		ORDER BY created_at DESC, id DESC
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}

func (r *repository) CountActive(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM subscriptions WHERE status = $1`, StatusActive); err != nil {
		return 0, fmt.Errorf("count active subscriptions: %w", err)
	}
	return n, nil
}
