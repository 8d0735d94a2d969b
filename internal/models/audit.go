package models

import "time"

// MaterializationAudit records one draft-to-entity conversion attempt.
type MaterializationAudit struct {
	ID          string    `db:"id" json:"id"`
	Collection  string    `db:"collection" json:"collection"`
	IdentityKey string    `db:"identity_key" json:"identity_key"`
	EntityID    *string   `db:"entity_id" json:"entity_id,omitempty"`
	Steps       int       `db:"steps" json:"steps"`
	Outcome     string    `db:"outcome" json:"outcome"`
	Error       *string   `db:"error" json:"error,omitempty"`
	Actor       string    `db:"actor" json:"actor"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Audit outcomes.
const (
	AuditOutcomeCreated = "CREATED"
	AuditOutcomePartial = "PARTIAL"
	AuditOutcomeFailed  = "FAILED"
)
