package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hostel-console-api/internal/models"
)

const materializationAuditSchema = `CREATE TABLE IF NOT EXISTS materialization_audit (
    id           UUID PRIMARY KEY,
    collection   TEXT NOT NULL,
    identity_key TEXT NOT NULL,
    entity_id    TEXT,
    steps        INTEGER NOT NULL,
    outcome      TEXT NOT NULL,
    error        TEXT,
    actor        TEXT NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL
)`

// MaterializationAuditFilter narrows audit listings.
type MaterializationAuditFilter struct {
	Collection  string
	IdentityKey string
	Limit       int
}

// MaterializationAuditRepository persists the draft materialization trail.
type MaterializationAuditRepository struct {
	db *sqlx.DB
}

// NewMaterializationAuditRepository constructs the repository.
func NewMaterializationAuditRepository(db *sqlx.DB) *MaterializationAuditRepository {
	return &MaterializationAuditRepository{db: db}
}

// EnsureSchema creates the audit table when missing.
func (r *MaterializationAuditRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, materializationAuditSchema); err != nil {
		return fmt.Errorf("ensure materialization audit schema: %w", err)
	}
	return nil
}

// Create appends an audit entry.
func (r *MaterializationAuditRepository) Create(ctx context.Context, entry *models.MaterializationAudit) error {
	const query = `INSERT INTO materialization_audit (id, collection, identity_key, entity_id, steps, outcome, error, actor, created_at)
VALUES (:id, :collection, :identity_key, :entity_id, :steps, :outcome, :error, :actor, :created_at)`
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert materialization audit: %w", err)
	}
	return nil
}

// List returns the most recent entries matching the filter.
func (r *MaterializationAuditRepository) List(ctx context.Context, filter MaterializationAuditFilter) ([]models.MaterializationAudit, error) {
	query := `SELECT id, collection, identity_key, entity_id, steps, outcome, error, actor, created_at
FROM materialization_audit WHERE 1=1`
	args := []interface{}{}
	if filter.Collection != "" {
		args = append(args, filter.Collection)
		query += fmt.Sprintf(" AND collection = $%d", len(args))
	}
	if filter.IdentityKey != "" {
		args = append(args, filter.IdentityKey)
		query += fmt.Sprintf(" AND identity_key = $%d", len(args))
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	var entries []models.MaterializationAudit
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list materialization audit: %w", err)
	}
	return entries, nil
}
