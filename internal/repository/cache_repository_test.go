package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/hostel-console-api/pkg/errors"
)

func newCacheRepoForTest(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := NewCacheRepository(client, "console", zap.NewNop())
	t.Cleanup(func() { _ = repo.Close() })
	return repo, mr
}

type cachedResidents struct {
	Names []string `json:"names"`
}

func TestCacheRepositorySetGet(t *testing.T) {
	repo, mr := newCacheRepoForTest(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "residents:directory", cachedResidents{Names: []string{"Ann"}}, time.Minute))
	assert.True(t, mr.Exists("console:residents:directory"))

	var out cachedResidents
	require.NoError(t, repo.Get(ctx, "residents:directory", &out))
	assert.Equal(t, []string{"Ann"}, out.Names)

	mr.FastForward(2 * time.Minute)
	err := repo.Get(ctx, "residents:directory", &out)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestCacheRepositoryMiss(t *testing.T) {
	repo, _ := newCacheRepoForTest(t)
	var out cachedResidents
	assert.ErrorIs(t, repo.Get(context.Background(), "absent", &out), appErrors.ErrCacheMiss)
}

func TestCacheRepositoryCorruptEntryIsMiss(t *testing.T) {
	repo, mr := newCacheRepoForTest(t)
	require.NoError(t, mr.Set("console:residents:directory", "{not json"))

	var out cachedResidents
	assert.ErrorIs(t, repo.Get(context.Background(), "residents:directory", &out), appErrors.ErrCacheMiss)
	assert.False(t, mr.Exists("console:residents:directory"))
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	repo, mr := newCacheRepoForTest(t)
	ctx := context.Background()
	require.NoError(t, repo.Set(ctx, "residents:directory", cachedResidents{}, time.Minute))
	require.NoError(t, repo.Set(ctx, "residents:other", cachedResidents{}, time.Minute))
	require.NoError(t, repo.Set(ctx, "rooms", cachedResidents{}, time.Minute))

	require.NoError(t, repo.DeleteByPattern(ctx, "residents:*"))
	assert.False(t, mr.Exists("console:residents:directory"))
	assert.False(t, mr.Exists("console:residents:other"))
	assert.True(t, mr.Exists("console:rooms"))
	require.NoError(t, repo.DeleteByPattern(ctx, "nothing:*"))
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "", nil)
	var out cachedResidents
	assert.ErrorIs(t, repo.Get(context.Background(), "k", &out), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "k", out, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "*"))
	assert.NoError(t, repo.Ping(context.Background()))
}
