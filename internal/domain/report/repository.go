package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/edumeal/edumeal-api/internal/pkg/clock"
)

const queryTimeout = 3 * time.Second

const snapshotColumns = `id, date, status, generated_by, archive_url, created_at, updated_at`

// Repository defines reporting queries
type Repository interface {
	CountUsedOn(ctx context.Context, date clock.Date) (int, error)
	CountEligibleStudents(ctx context.Context) (int, error)
	EligibilityRecords(ctx context.Context, date clock.Date) ([]EligibilityRecord, error)

	ListSnapshots(ctx context.Context) ([]*Snapshot, error)
	CreateSnapshot(ctx context.Context, date clock.Date, status, generatedBy string) (*Snapshot, error)
	SetArchiveURL(ctx context.Context, id int, url string) (*Snapshot, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates report repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CountUsedOn(ctx context.Context, date clock.Date) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM tickets WHERE status = 'used' AND date = $1`, date); err != nil {
		return 0, fmt.Errorf("count used tickets: %w", err)
	}
	return n, nil
}

func (r *repository) CountEligibleStudents(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM students WHERE is_active AND meals_remaining > 0`); err != nil {
		return 0, fmt.Errorf("count eligible students: %w", err)
	}
	return n, nil
}

// EligibilityRecords joins every student with their newest active
// subscription and their ticket for date.
func (r *repository) EligibilityRecords(ctx context.Context, date clock.Date) ([]EligibilityRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	records := make([]EligibilityRecord, 0)
	err := r.db.SelectContext(ctx, &records, `
		SELECT s.student_id, s.first_name, s.last_name, s.grade, s.class,
			s.is_active, s.meals_remaining,
			COALESCE(sub.plan_type, $2) AS plan_type,
			t.status AS ticket_status,
			t.used_at
		FROM students s
		LEFT JOIN LATERAL (
			SELECT plan_type FROM subscriptions
			WHERE student_id = s.id AND status = 'active'
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) sub ON TRUE
		LEFT JOIN tickets t ON t.student_id = s.id AND t.date = $1 AND t.session = 'lunch'
		ORDER BY s.last_name, s.first_name, s.id
	`, date, NoPlan)
	if err != nil {
		return nil, fmt.Errorf("eligibility records: %w", err)
	}
	return records, nil
}

func (r *repository) ListSnapshots(ctx context.Context) ([]*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	snaps := make([]*Snapshot, 0)
	if err := r.db.SelectContext(ctx, &snaps, `SELECT `+snapshotColumns+` FROM eligibility_reports ORDER BY date DESC`); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return snaps, nil
}

func (r *repository) CreateSnapshot(ctx context.Context, date clock.Date, status, generatedBy string) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var s Snapshot
	err := r.db.GetContext(ctx, &s, `
		INSERT INTO eligibility_reports (date, status, generated_by)
		VALUES ($1, $2, $3)
		RETURNING `+snapshotColumns, date, status, generatedBy)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, fmt.Errorf("%w: %w", ErrSnapshotExists, err)
		}
		return nil, fmt.Errorf("create snapshot: %w", err)
	}
	return &s, nil
}

func (r *repository) SetArchiveURL(ctx context.Context, id int, url string) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var s Snapshot
	err := r.db.GetContext(ctx, &s, `
		UPDATE eligibility_reports SET archive_url = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+snapshotColumns, id, url)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("set archive url: %w", err)
	}
	return &s, nil
}
