package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-console-api/internal/models"
	"github.com/noah-isme/hostel-console-api/internal/reconcile"
	appErrors "github.com/noah-isme/hostel-console-api/pkg/errors"
	"github.com/noah-isme/hostel-console-api/pkg/upstream"
)

type idlessWriter struct {
	*fakeUpstream
}

func (w idlessWriter) Create(ctx context.Context, token string, col upstream.Collection, body interface{}) (models.Record, error) {
	_, _ = w.fakeUpstream.Create(ctx, token, col, body)
	return models.Record{"status": "CREATED"}, nil
}

func draftFeeRow() reconcile.Row {
	return reconcile.Row{
		Key:     "1",
		IsDraft: true,
		Fields: models.Record{
			"studentId":   "1",
			"studentName": "Ann",
			"monthlyFee":  "60000",
			"amountPaid":  "0",
			"isNew":       true,
		},
	}
}

func TestMaterializerPreservesIdentityKey(t *testing.T) {
	up := newFakeUpstream()
	audit := &fakeAudit{}
	m := NewMaterializer(up, audit, nil, zap.NewNop())
	invalidated := 0
	m.OnMaterialized(func(context.Context) { invalidated++ })

	result, err := m.Materialize(context.Background(), testSession(), draftFeeRow(), MutationIntent{
		Plan:   FeePlan,
		Fields: models.Record{"amountPaid": "100", "totalFee": "60000"},
	})
	require.NoError(t, err)
	assert.Equal(t, reconcile.IdentityKey("1"), result.Key)
	assert.Equal(t, "fees-1", result.ID)
	assert.Equal(t, 2, result.Steps)
	assert.Equal(t, 1, invalidated)

	key, ok := reconcile.NewNameFallbackResolver().Resolve(result.Record, reconcile.SourceFees)
	require.True(t, ok)
	assert.Equal(t, result.Key, key)
	assert.NotContains(t, result.Record, "isNew")

	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	assert.Equal(t, "fees", entry.Collection)
	assert.Equal(t, "1", entry.IdentityKey)
	require.NotNil(t, entry.EntityID)
	assert.Equal(t, "fees-1", *entry.EntityID)
	assert.Equal(t, "warden@campus.test", entry.Actor)
}

func TestMaterializerSingleStepPlan(t *testing.T) {
	up := newFakeUpstream()
	m := NewMaterializer(up, nil, nil, nil)
	row := reconcile.Row{Key: "2", IsDraft: true, Fields: models.Record{"studentId": "2", "status": "NOT_MARKED", "roomNumber": "10"}}

	result, err := m.Materialize(context.Background(), testSession(), row, MutationIntent{Plan: AttendancePlan, Fields: models.Record{"status": "PRESENT"}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Steps)
	assert.Empty(t, up.callsFor("PUT"))

	creates := up.callsFor("POST")
	require.Len(t, creates, 1)
	assert.Equal(t, models.Record{"studentId": "2", "status": "PRESENT"}, creates[0].Body)
}

func TestMaterializerRejectsPersistedRow(t *testing.T) {
	m := NewMaterializer(newFakeUpstream(), nil, nil, nil)
	row := draftFeeRow()
	row.IsDraft = false

	_, err := m.Materialize(context.Background(), testSession(), row, MutationIntent{Plan: FeePlan})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestMaterializerCreateFailure(t *testing.T) {
	up := newFakeUpstream()
	up.createErr = appErrors.Clone(appErrors.ErrUpstreamUnavailable, "")
	audit := &fakeAudit{}
	m := NewMaterializer(up, audit, nil, nil)
	invalidated := false
	m.OnMaterialized(func(context.Context) { invalidated = true })

	_, err := m.Materialize(context.Background(), testSession(), draftFeeRow(), MutationIntent{Plan: FeePlan})
	assert.ErrorIs(t, err, appErrors.ErrUpstreamUnavailable)
	assert.False(t, invalidated)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditOutcomeFailed, audit.entries[0].Outcome)
	assert.Nil(t, audit.entries[0].EntityID)
	require.NotNil(t, audit.entries[0].Error)
}

func TestMaterializerFollowUpNeedsID(t *testing.T) {
	up := newFakeUpstream()
	audit := &fakeAudit{}
	m := NewMaterializer(idlessWriter{up}, audit, nil, nil)

	_, err := m.Materialize(context.Background(), testSession(), draftFeeRow(), MutationIntent{Plan: FeePlan})
	assert.ErrorIs(t, err, appErrors.ErrUpstream)
	assert.Empty(t, up.callsFor("PUT"))
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditOutcomePartial, audit.entries[0].Outcome)
}

func TestMaterializerAuditFailureIsNotFatal(t *testing.T) {
	audit := &fakeAudit{err: assert.AnError}
	m := NewMaterializer(newFakeUpstream(), audit, nil, nil)

	_, err := m.Materialize(context.Background(), testSession(), draftFeeRow(), MutationIntent{Plan: FeePlan})
	require.NoError(t, err)
}
