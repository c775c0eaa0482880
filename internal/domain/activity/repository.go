package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const queryTimeout = 3 * time.Second

// Repository defines log data access
type Repository interface {
	Append(ctx context.Context, t Type, details Details, actorID *string) (*Entry, error)
	Recent(ctx context.Context, limit int) ([]*Entry, error)
	RecentByTypes(ctx context.Context, types []Type, limit int) ([]*Entry, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates log repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Append(ctx context.Context, t Type, details Details, actorID *string) (*Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	raw, err := EncodeDetails(details)
	if err != nil {
		return nil, err
	}

	var out row
	err = r.db.GetContext(ctx, &out, `
		INSERT INTO logs (type, details, actor_id)
		VALUES ($1, $2, $3)
		RETURNING id, type, details, actor_id, created_at
	`, t, raw, actorID)
	if err != nil {
		return nil, fmt.Errorf("append %s log: %w", t, err)
	}
	return out.entry(), nil
}

func (r *repository) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var rows []row
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, type, details, actor_id, created_at
		FROM logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent logs: %w", err)
	}
	return entries(rows), nil
}

func (r *repository) RecentByTypes(ctx context.Context, types []Type, limit int) ([]*Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}

	var rows []row
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, type, details, actor_id, created_at
		FROM logs
		WHERE type = ANY($1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, pq.Array(names), limit)
	if err != nil {
		return nil, fmt.Errorf("list logs by type: %w", err)
	}
	return entries(rows), nil
}

func entries(rows []row) []*Entry {
	out := make([]*Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.entry())
	}
	return out
}
