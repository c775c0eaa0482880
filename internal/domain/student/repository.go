package student

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const queryTimeout = 3 * time.Second

const selectColumns = `
	id, student_id, first_name, last_name, grade, class, is_active,
	meals_remaining, parent_email, photo_url, updated_at`

// Repository defines student data access
type Repository interface {
	List(ctx context.Context) ([]*Student, error)
	GetByID(ctx context.Context, id int) (*Student, error)
	GetBySchoolID(ctx context.Context, schoolID string) (*Student, error)
	Create(ctx context.Context, d Draft) (*Student, error)
	Update(ctx context.Context, id int, p Patch) (*Student, error)
	SetPhotoURL(ctx context.Context, id int, url string) (*Student, error)
	AdjustMeals(ctx context.Context, id int, delta int) (*Student, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates student repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]*Student, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var students []*Student
	err := r.db.SelectContext(ctx, &students, `SELECT `+selectColumns+` FROM students ORDER BY last_name, first_name, id`)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Student, error) {
	return r.getOne(ctx, `SELECT `+selectColumns+` FROM students WHERE id = $1`, id)
}

func (r *repository) GetBySchoolID(ctx context.Context, schoolID string) (*Student, error) {
	return r.getOne(ctx, `SELECT `+selectColumns+` FROM students WHERE student_id = $1`, schoolID)
}

func (r *repository) getOne(ctx context.Context, query string, arg interface{}) (*Student, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var s Student
	if err := r.db.GetContext(ctx, &s, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &s, nil
}

func (r *repository) Create(ctx context.Context, d Draft) (*Student, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var s Student
	err := r.db.GetContext(ctx, &s, `
		INSERT INTO students (student_id, first_name, last_name, grade, class, is_active, meals_remaining, parent_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+selectColumns,
		d.StudentID, d.FirstName, d.LastName, d.Grade, d.Class, d.IsActive, d.MealsRemaining, d.ParentEmail,
	)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return &s, nil
}

func (r *repository) Update(ctx context.Context, id int, p Patch) (*Student, error) {
	if p.Empty() {
		return nil, ErrNothingToUpdate
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		sets []string
		args []interface{}
	)
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if p.StudentID != nil {
		add("student_id", *p.StudentID)
	}
	if p.FirstName != nil {
		add("first_name", *p.FirstName)
	}
	if p.LastName != nil {
		add("last_name", *p.LastName)
	}
	if p.Grade != nil {
		add("grade", *p.Grade)
	}
	if p.Class != nil {
		add("class", *p.Class)
	}
	if p.IsActive != nil {
		add("is_active", *p.IsActive)
	}
	if p.MealsRemaining != nil {
		add("meals_remaining", *p.MealsRemaining)
	}
	if p.ParentEmail != nil {
		// An empty string clears the address.
		var email interface{}
		if *p.ParentEmail != "" {
			email = *p.ParentEmail
		}
		add("parent_email", email)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE students SET %s, updated_at = NOW()
		WHERE id = $%d
		RETURNING `+selectColumns, strings.Join(sets, ", "), len(args))

	var s Student
	if err := r.db.GetContext(ctx, &s, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, mapWriteError(err)
	}
	return &s, nil
}

func (r *repository) SetPhotoURL(ctx context.Context, id int, url string) (*Student, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var s Student
	err := r.db.GetContext(ctx, &s, `
		UPDATE students SET photo_url = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+selectColumns, id, url)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("set photo url: %w", err)
	}
	return &s, nil
}

// AdjustMeals applies delta in a single statement. There is no floor.
func (r *repository) AdjustMeals(ctx context.Context, id int, delta int) (*Student, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var s Student
	err := r.db.GetContext(ctx, &s, `
		UPDATE students SET meals_remaining = meals_remaining + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+selectColumns, id, delta)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("adjust meals: %w", err)
	}
	return &s, nil
}

func mapWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %w", ErrDuplicateStudentID, err)
	}
	return fmt.Errorf("write student: %w", err)
}
