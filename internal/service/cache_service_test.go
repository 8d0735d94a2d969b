package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	store := newMemoryCache()
	svc := NewCacheService(store, nil, time.Minute, zap.NewNop(), false)

	require.NoError(t, svc.Set(context.Background(), "k", "v", 0))
	assert.Empty(t, store.entries)

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	assert.NoError(t, nilSvc.Invalidate(context.Background(), "k"))
}

func TestCacheServiceRoundTrip(t *testing.T) {
	store := newMemoryCache()
	svc := NewCacheService(store, NewMetricsService(), 0, nil, true)

	var out []string
	hit, err := svc.Get(context.Background(), "rooms", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(context.Background(), "rooms", []string{"101"}, 0))
	hit, err = svc.Get(context.Background(), "rooms", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"101"}, out)

	require.NoError(t, svc.Invalidate(context.Background(), "rooms"))
	assert.Equal(t, []string{"rooms"}, store.deleted)
}
