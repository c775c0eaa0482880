package ticket

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edumeal/edumeal-api/internal/pkg/clock"
)

const queryTimeout = 3 * time.Second

const selectColumns = `
	id, ticket_id, student_id, date, session, security_hash, status, generated_at, used_at`

// Repository defines ticket data access
type Repository interface {
	GetByTicketID(ctx context.Context, ticketID string) (*Ticket, error)
	ListByDate(ctx context.Context, date clock.Date) ([]*Ticket, error)
	// Insert reports false when the student already holds a ticket for
	// the date and session.
	Insert(ctx context.Context, d Draft) (bool, error)
	// Redeem marks the ticket used and debits one meal in one statement.
	// It returns nil when the ticket was not valid for date.
	Redeem(ctx context.Context, ticketID string, date clock.Date) (*Redeemed, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates ticket repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByTicketID(ctx context.Context, ticketID string) (*Ticket, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var t Ticket
	err := r.db.GetContext(ctx, &t, `SELECT `+selectColumns+` FROM tickets WHERE ticket_id = $1`, ticketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return &t, nil
}

func (r *repository) ListByDate(ctx context.Context, date clock.Date) ([]*Ticket, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tickets := make([]*Ticket, 0)
	err := r.db.SelectContext(ctx, &tickets, `
		SELECT `+selectColumns+`
		FROM tickets
		WHERE date = $1
		ORDER BY generated_at, id
	`, date)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return tickets, nil
}

func (r *repository) Insert(ctx context.Context, d Draft) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO tickets (ticket_id, student_id, date, session, security_hash, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING
	`, d.TicketID, d.StudentID, d.Date, SessionLunch, d.SecurityHash, StatusValid)
	if err != nil {
		return false, fmt.Errorf("insert ticket: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert ticket: %w", err)
	}
	return n == 1, nil
}

func (r *repository) Redeem(ctx context.Context, ticketID string, date clock.Date) (*Redeemed, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var red Redeemed
	err := r.db.GetContext(ctx, &red, `
		WITH redeemed AS (
			UPDATE tickets SET status = $3, used_at = NOW()
			WHERE ticket_id = $1 AND status = $4 AND date = $2
			RETURNING student_id
		), debited AS (
			UPDATE students s
			SET meals_remaining = s.meals_remaining - 1, updated_at = NOW()
			FROM redeemed r
			WHERE s.id = r.student_id
			RETURNING s.id, s.first_name, s.last_name, s.class, s.meals_remaining, s.photo_url
		)
		SELECT r.student_id,
			COALESCE(d.first_name, '') AS first_name,
			COALESCE(d.last_name, '') AS last_name,
			COALESCE(d.class, '') AS class,
			COALESCE(d.meals_remaining, 0) AS meals_remaining,
			d.photo_url
		FROM redeemed r
		LEFT JOIN debited d ON d.id = r.student_id
	`, ticketID, date, StatusUsed, StatusValid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("redeem ticket: %w", err)
	}
	return &red, nil
}
