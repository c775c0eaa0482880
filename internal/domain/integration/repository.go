package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

const selectColumns = `id, name, status, settings, last_sync, updated_at`

// Repository defines integration data access
type Repository interface {
	List(ctx context.Context) ([]*Integration, error)
	Upsert(ctx context.Context, name string, status *string, settings json.RawMessage) (*Integration, error)
	MarkSynced(ctx context.Context, name string) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates integration repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]*Integration, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	items := make([]*Integration, 0)
	if err := r.db.SelectContext(ctx, &items, `SELECT `+selectColumns+` FROM integrations ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list integrations: %w", err)
	}
	return items, nil
}

// Upsert creates the row if needed. Nil status and empty settings keep
// the stored values.
func (r *repository) Upsert(ctx context.Context, name string, status *string, settings json.RawMessage) (*Integration, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var settingsArg interface{}
	if len(settings) > 0 && string(settings) != "null" {
		settingsArg = string(settings)
	}

	var it Integration
	err := r.db.GetContext(ctx, &it, `
		INSERT INTO integrations (name, status, settings)
		VALUES ($1, COALESCE($2, 'inactive'), COALESCE($3::jsonb, '{}'::jsonb))
		ON CONFLICT (name) DO UPDATE SET
			status = COALESCE($2, integrations.status),
			settings = COALESCE($3::jsonb, integrations.settings),
			updated_at = NOW()
		RETURNING `+selectColumns, name, status, settingsArg)
	if err != nil {
		return nil, fmt.Errorf("upsert integration: %w", err)
	}
	return &it, nil
}

func (r *repository) MarkSynced(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO integrations (name, status, last_sync)
		VALUES ($1, 'active', NOW())
		ON CONFLICT (name) DO UPDATE SET
			status = 'active',
			last_sync = NOW(),
			updated_at = NOW()
	`, name)
	if err != nil {
		return fmt.Errorf("mark integration synced: %w", err)
	}
	return nil
}
