package models

import (
	"encoding/json"
	"time"
)

// Idempotency ledger statuses. Transitions are one-way:
// in_progress -> succeeded | failed_permanent. Terminal states never revert.
const (
	StatusInProgress      = "in_progress"
	StatusSucceeded       = "succeeded"
	StatusFailedPermanent = "failed_permanent"
)

// IdempotencyRecord is one row of the idempotency ledger, unique on
// (ToolName, IdempotencyKey).
type IdempotencyRecord struct {
	ID             int64           `json:"id"`
	TenantID       *string         `json:"tenant_id"`
	ToolName       string          `json:"tool_name"`
	TargetID       *string         `json:"target_id"`
	IdempotencyKey string          `json:"idempotency_key"`
	RequestHash    string          `json:"request_hash"`
	Status         string          `json:"status"`
	ResultJSON     json.RawMessage `json:"result_json"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Terminal reports whether the record has reached a final status.
func (r *IdempotencyRecord) Terminal() bool {
	return r.Status == StatusSucceeded || r.Status == StatusFailedPermanent
}

// StoredFailure is the persisted shape of a permanently failed attempt,
// kept in result_json so retries replay the original refusal.
type StoredFailure struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Detail  json.RawMessage `json:"detail,omitempty"`
}
