package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-console-api/internal/models"
	appErrors "github.com/noah-isme/hostel-console-api/pkg/errors"
	"github.com/noah-isme/hostel-console-api/pkg/upstream"
)

func TestFetchSourcesDegradesOptional(t *testing.T) {
	up := newFakeUpstream()
	up.lists[upstream.Fees] = []models.Record{{"id": "f1"}}
	up.listErrs[upstream.Hostels] = appErrors.Clone(appErrors.ErrUpstream, "")
	up.listErrs[upstream.Students] = appErrors.Clone(appErrors.ErrUpstreamUnavailable, "")
	metrics := NewMetricsService()

	set, err := fetchSources(context.Background(), up, metrics, zap.NewNop(), "token",
		critical(upstream.Fees), optional(upstream.Students), optional(upstream.Hostels))
	require.NoError(t, err)
	assert.Len(t, set.get(upstream.Fees), 1)
	assert.Empty(t, set.get(upstream.Hostels))
	assert.Equal(t, []string{"students", "hostels"}, set.degraded)
}

func TestFetchSourcesCriticalFailureAborts(t *testing.T) {
	up := newFakeUpstream()
	up.listErrs[upstream.Allocations] = appErrors.Clone(appErrors.ErrNotFound, "")

	_, err := fetchSources(context.Background(), up, nil, zap.NewNop(), "token",
		critical(upstream.Allocations), optional(upstream.Students))
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
