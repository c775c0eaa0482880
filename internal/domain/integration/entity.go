package integration

import (
	"encoding/json"
	"time"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusError    = "error"
)

// Integration is an external system that feeds the ledger.
type Integration struct {
	ID        int             `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Status    string          `db:"status" json:"status"`
	Settings  json.RawMessage `db:"settings" json:"settings"`
	LastSync  *time.Time      `db:"last_sync" json:"lastSync"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

// UpsertRequest for POST /integrations/{name}
type UpsertRequest struct {
	Status   *string         `json:"status" validate:"omitempty,integration_status"`
	Settings json.RawMessage `json:"settings"`
}
