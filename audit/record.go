// Package audit appends immutable change records for audited mutations and
// computes the per-entity change counter.
package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Action is the kind of mutation a record describes.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Record is one row of the audit_logs table. Records are never updated or deleted.
type Record struct {
	bun.BaseModel `bun:"table:audit_logs,alias:audit"`

	ID          string         `bun:"id,pk" json:"id"`
	Auditable   string         `bun:"auditable,notnull" json:"auditable"`
	AuditableID string         `bun:"auditable_id,notnull" json:"auditableId"`
	ChangeCount int            `bun:"change_count,notnull" json:"changeCount"`
	Previous    map[string]any `bun:"previous" json:"previous"`
	Incoming    map[string]any `bun:"incoming" json:"incoming"`
	Action      Action         `bun:"action,notnull" json:"action"`
	Username    string         `bun:"username" json:"username"`
	UserID      string         `bun:"user_id" json:"userId"`
	CreatedAt   time.Time      `bun:"created_at,notnull" json:"createdAt"`
}

// Snapshot converts an entity into the JSON object stored in Previous/Incoming.
// A nil value yields an empty object.
func Snapshot(v any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	if m, ok := v.(map[string]any); ok {
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("audit snapshot: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("audit snapshot: %T is not an object: %w", v, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
