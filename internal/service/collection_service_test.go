package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hostel-console-api/internal/dto"
	"github.com/noah-isme/hostel-console-api/internal/models"
	appErrors "github.com/noah-isme/hostel-console-api/pkg/errors"
	"github.com/noah-isme/hostel-console-api/pkg/upstream"
)

func TestCollectionServiceCreateValidatesMinimum(t *testing.T) {
	up := newFakeUpstream()
	svc := NewCollectionService(up, nil, nil)

	_, err := svc.Create(context.Background(), testSession(), upstream.Complaints, models.Record{"title": "Leaking tap", "description": "  "})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Contains(t, err.Error(), "description")

	_, err = svc.Create(context.Background(), testSession(), upstream.Visits, models.Record{"student": map[string]interface{}{"id": "4"}})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, up.callsFor("POST"))

	created, err := svc.Create(context.Background(), testSession(), upstream.HealthIncidents, models.Record{"studentId": "4", "description": "fever"})
	require.NoError(t, err)
	assert.Equal(t, "health-1", created["id"])
}

func TestCollectionServiceListNeverNil(t *testing.T) {
	svc := NewCollectionService(newFakeUpstream(), nil, nil)
	records, err := svc.List(context.Background(), testSession(), upstream.MessMenus, nil)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestCollectionServiceUpdateStatusUsesQueryPatch(t *testing.T) {
	up := newFakeUpstream()
	svc := NewCollectionService(up, nil, nil)
	remarks := "plumber booked"

	_, err := svc.UpdateStatus(context.Background(), testSession(), upstream.Complaints, "c1", dto.StatusUpdateRequest{Status: "IN_PROGRESS", Remarks: &remarks})
	require.NoError(t, err)
	patches := up.callsFor("PATCH")
	require.Len(t, patches, 1)
	assert.Equal(t, "c1", patches[0].ID)
	assert.Equal(t, "IN_PROGRESS", patches[0].Params.Get("status"))
	assert.Equal(t, remarks, patches[0].Params.Get("remarks"))

	_, err = svc.UpdateStatus(context.Background(), testSession(), upstream.Complaints, "c1", dto.StatusUpdateRequest{Status: " "})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestCollectionServiceReplaceAndDelete(t *testing.T) {
	up := newFakeUpstream()
	svc := NewCollectionService(up, nil, nil)

	_, err := svc.Replace(context.Background(), testSession(), upstream.MessMenus, "m1", models.Record{"day": "MONDAY", "breakfast": "Idli"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), testSession(), upstream.MessMenus, "m1"))
	assert.Len(t, up.callsFor("PUT"), 1)
	assert.Len(t, up.callsFor("DELETE"), 1)
}
