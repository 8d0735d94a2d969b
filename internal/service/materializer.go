package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-console-api/internal/models"
	"github.com/noah-isme/hostel-console-api/internal/reconcile"
	appErrors "github.com/noah-isme/hostel-console-api/pkg/errors"
	"github.com/noah-isme/hostel-console-api/pkg/upstream"
)

type entityWriter interface {
	Create(ctx context.Context, token string, col upstream.Collection, body interface{}) (models.Record, error)
	Replace(ctx context.Context, token string, col upstream.Collection, id string, body interface{}) (models.Record, error)
}

type auditRecorder interface {
	Create(ctx context.Context, entry *models.MaterializationAudit) error
}

// MaterializePlan describes how a draft becomes an entity in one collection.
type MaterializePlan struct {
	Collection upstream.Collection
	Kind       reconcile.SourceKind
	// CreateFields limits the create payload. Nil sends every field.
	CreateFields []string
	// FollowUpUpdate issues a PUT with the complete field set after create,
	// for collections that ignore some fields on create.
	FollowUpUpdate bool
	IDFields       []string
}

// Plans for the collections that hold draft rows.
var (
	FeePlan = MaterializePlan{
		Collection:     upstream.Fees,
		Kind:           reconcile.SourceFees,
		CreateFields:   []string{"studentId", "studentName", "roomNumber", "hostelName", "monthlyFee", "totalFee"},
		FollowUpUpdate: true,
		IDFields:       reconcile.FeeIDAliases,
	}
	AttendancePlan = MaterializePlan{
		Collection:   upstream.Attendances,
		Kind:         reconcile.SourceAttendance,
		CreateFields: []string{"studentId", "studentName", "date", "status", "remarks"},
		IDFields:     reconcile.AttendanceIDAliases,
	}
)

// MutationIntent is the user's change applied to a draft.
type MutationIntent struct {
	Plan   MaterializePlan
	Fields models.Record
}

// PersistResult describes the entity created from a draft.
type PersistResult struct {
	ID     string
	Key    reconcile.IdentityKey
	Steps  int
	Record models.Record
}

// Materializer converts draft rows into persisted upstream entities.
type Materializer struct {
	writer        entityWriter
	resolver      reconcile.Resolver
	audit         auditRecorder
	metrics       *MetricsService
	logger        *zap.Logger
	onMaterialize []func(ctx context.Context)
	now           func() time.Time
}

// NewMaterializer constructs a Materializer. audit may be nil.
func NewMaterializer(writer entityWriter, audit auditRecorder, metrics *MetricsService, logger *zap.Logger) *Materializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Materializer{
		writer:   writer,
		resolver: reconcile.NewNameFallbackResolver(),
		audit:    audit,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// OnMaterialized registers a callback run after every successful create.
func (m *Materializer) OnMaterialized(fn func(ctx context.Context)) {
	m.onMaterialize = append(m.onMaterialize, fn)
}

// Materialize creates the entity behind a draft row. Duplicate submissions
// for the same draft each issue their own create.
func (m *Materializer) Materialize(ctx context.Context, session *models.Session, row reconcile.Row, intent MutationIntent) (*PersistResult, error) {
	plan := intent.Plan
	if !row.IsDraft {
		return nil, appErrors.Clone(appErrors.ErrConflict, "row is already persisted")
	}

	full := row.Fields.Clone()
	for k, v := range intent.Fields {
		full[k] = v
	}
	delete(full, "isNew")

	log := m.logger.With(zap.String("collection", string(plan.Collection)), zap.String("identity_key", string(row.Key)))

	created, err := m.writer.Create(ctx, session.Token, plan.Collection, restrict(full, plan.CreateFields))
	if err != nil {
		log.Warn("materialize create failed", zap.Error(err))
		m.record(ctx, session, plan, row.Key, "", 1, models.AuditOutcomeFailed, err)
		return nil, err
	}

	result := &PersistResult{Key: row.Key, Steps: 1, Record: created}
	result.ID = reconcile.PickString(created, plan.IDFields...)

	if plan.FollowUpUpdate {
		if result.ID == "" {
			err := appErrors.Clone(appErrors.ErrUpstream, "create response carried no id for the follow-up update")
			log.Warn("materialize follow-up skipped", zap.Error(err))
			m.record(ctx, session, plan, row.Key, "", 1, models.AuditOutcomePartial, err)
			m.invalidate(ctx)
			return nil, err
		}
		updated, err := m.writer.Replace(ctx, session.Token, plan.Collection, result.ID, full)
		result.Steps = 2
		if err != nil {
			log.Warn("materialize follow-up update failed", zap.String("id", result.ID), zap.Error(err))
			m.record(ctx, session, plan, row.Key, result.ID, 2, models.AuditOutcomePartial, err)
			m.invalidate(ctx)
			return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "entity created but the follow-up update failed")
		}
		if len(updated) > 0 {
			result.Record = updated
		}
	}

	record := result.Record.Clone()
	if record == nil {
		record = models.Record{}
	}
	for k, v := range full {
		if _, ok := reconcile.Pick(record, k); !ok {
			record[k] = v
		}
	}
	result.Record = record

	if key, ok := m.resolver.Resolve(record, plan.Kind); ok && key != row.Key {
		log.Warn("materialized entity resolves to a different identity", zap.String("resolved_key", string(key)))
	}

	m.record(ctx, session, plan, row.Key, result.ID, result.Steps, models.AuditOutcomeCreated, nil)
	m.invalidate(ctx)
	log.Info("draft materialized", zap.String("id", result.ID), zap.Int("steps", result.Steps))
	return result, nil
}

func (m *Materializer) invalidate(ctx context.Context) {
	for _, fn := range m.onMaterialize {
		fn(ctx)
	}
}

func (m *Materializer) record(ctx context.Context, session *models.Session, plan MaterializePlan, key reconcile.IdentityKey, id string, steps int, outcome string, cause error) {
	m.metrics.RecordMaterialization(string(plan.Collection), outcome)
	if m.audit == nil {
		return
	}
	entry := &models.MaterializationAudit{
		ID:          uuid.NewString(),
		Collection:  string(plan.Collection),
		IdentityKey: string(key),
		Steps:       steps,
		Outcome:     outcome,
		Actor:       session.User.Email,
		CreatedAt:   m.now().UTC(),
	}
	if id != "" {
		entry.EntityID = &id
	}
	if cause != nil {
		msg := cause.Error()
		entry.Error = &msg
	}
	if err := m.audit.Create(ctx, entry); err != nil {
		m.logger.Warn("failed to record materialization audit", zap.String("collection", entry.Collection), zap.Error(err))
	}
}

func restrict(rec models.Record, fields []string) models.Record {
	if fields == nil {
		return rec.Clone()
	}
	out := make(models.Record, len(fields))
	for _, f := range fields {
		if v, ok := rec[f]; ok {
			out[f] = v
		}
	}
	return out
}
