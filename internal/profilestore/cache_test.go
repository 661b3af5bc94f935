package profilestore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/models"
)

type stubLookup struct {
	profiles map[string]*models.Profile
	err      error
	calls    int
}

func (s *stubLookup) FindByUserID(_ context.Context, userID string) (*models.Profile, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.profiles[userID], nil
}

func sampleProfile(t *testing.T, id string) *models.Profile {
	t.Helper()
	p, err := models.NewProfile(models.ProfileInput{
		UserID:          id,
		Age:             29,
		Religion:        "Sikh",
		Bio:             "Engineer who cooks",
		Location:        "Chandigarh",
		PrimaryPhotoURL: "https://cdn.example.com/" + id + ".jpg",
		Email:           id + "@example.com",
	})
	require.NoError(t, err)
	return &p
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCachedLookup_ReadThrough(t *testing.T) {
	mr, rdb := setupRedis(t)
	src := &stubLookup{profiles: map[string]*models.Profile{"u1": sampleProfile(t, "u1")}}
	cache := NewCachedLookup(src, rdb, 10*time.Minute, logger.NewTestLogger(t))

	first, err := cache.FindByUserID(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 1, src.calls)
	assert.True(t, mr.Exists(profileCachePrefix+"u1"))
	assert.Equal(t, 10*time.Minute, mr.TTL(profileCachePrefix+"u1"))

	second, err := cache.FindByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls, "second read is served from redis")
	assert.Equal(t, first, second)
}

func TestCachedLookup_MissingProfileIsNotCached(t *testing.T) {
	mr, rdb := setupRedis(t)
	src := &stubLookup{profiles: map[string]*models.Profile{}}
	cache := NewCachedLookup(src, rdb, time.Minute, logger.NewTestLogger(t))

	p, err := cache.FindByUserID(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.False(t, mr.Exists(profileCachePrefix+"ghost"))
}

func TestCachedLookup_RedisDownFallsBackToSource(t *testing.T) {
	mr, rdb := setupRedis(t)
	mr.Close()

	src := &stubLookup{profiles: map[string]*models.Profile{"u1": sampleProfile(t, "u1")}}
	cache := NewCachedLookup(src, rdb, time.Minute, logger.NewTestLogger(t))

	p, err := cache.FindByUserID(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, 1, src.calls)
}

func TestCachedLookup_SourceErrorPropagates(t *testing.T) {
	_, rdb := setupRedis(t)
	src := &stubLookup{err: errors.New("db down")}
	cache := NewCachedLookup(src, rdb, time.Minute, logger.NewTestLogger(t))

	_, err := cache.FindByUserID(context.Background(), "u1")
	assert.EqualError(t, err, "db down")
}

func TestCachedLookup_Commands(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	p := sampleProfile(t, "u7")
	data, err := json.Marshal(p)
	require.NoError(t, err)

	mock.ExpectGet(profileCachePrefix + "u7").RedisNil()
	mock.ExpectSet(profileCachePrefix+"u7", data, 5*time.Minute).SetVal("OK")
	mock.ExpectGet(profileCachePrefix + "u7").SetVal(string(data))

	src := &stubLookup{profiles: map[string]*models.Profile{"u7": p}}
	cache := NewCachedLookup(src, rdb, 5*time.Minute, logger.NewTestLogger(t))

	_, err = cache.FindByUserID(context.Background(), "u7")
	require.NoError(t, err)
	got, err := cache.FindByUserID(context.Background(), "u7")
	require.NoError(t, err)

	assert.Equal(t, p.UserID, got.UserID)
	assert.Equal(t, 1, src.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedLookup_CorruptEntryIsIgnored(t *testing.T) {
	mr, rdb := setupRedis(t)
	require.NoError(t, mr.Set(profileCachePrefix+"u1", "{not-json"))

	src := &stubLookup{profiles: map[string]*models.Profile{"u1": sampleProfile(t, "u1")}}
	cache := NewCachedLookup(src, rdb, time.Minute, logger.NewTestLogger(t))

	p, err := cache.FindByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, 1, src.calls)
}
