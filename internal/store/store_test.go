package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/kalshi-analyzer/internal/config"
	"github.com/yourusername/kalshi-analyzer/internal/models"
)

func testSnapshot() *models.Snapshot {
	return models.NewSnapshot("mock", time.Now(), []models.Event{{ID: "mock-1", HomeTeam: "A", AwayTeam: "B"}})
}

func TestMemoryStorePutLatest(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)

	_, err := s.Latest(ctx)
	assert.ErrorIs(t, err, models.ErrSnapshotNotFound)

	snap := testSnapshot()
	require.NoError(t, s.Put(ctx, snap))

	got, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Same(t, snap, got)
	assert.NoError(t, s.Ping(ctx))

	hits, misses, ratio := s.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
	assert.Equal(t, 0.5, ratio)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(20 * time.Millisecond)
	require.NoError(t, s.Put(ctx, testSnapshot()))

	time.Sleep(50 * time.Millisecond)
	_, err := s.Latest(ctx)
	assert.ErrorIs(t, err, models.ErrSnapshotNotFound)
}

func TestMemoryStoreClose(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)
	require.NoError(t, s.Put(ctx, testSnapshot()))
	require.NoError(t, s.Close())

	_, err := s.Latest(ctx)
	assert.ErrorIs(t, err, models.ErrSnapshotNotFound)
}

func TestNewSelectsBackend(t *testing.T) {
	s, err := New(config.CacheConfig{Backend: "memory", TTLSeconds: 60})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = New(config.CacheConfig{Backend: "redis", RedisAddr: "127.0.0.1:1", TTLSeconds: 60})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
	require.NoError(t, s.Close())

	_, err = New(config.CacheConfig{Backend: "memcached"})
	assert.Error(t, err)
}

func TestRedisKeys(t *testing.T) {
	assert.Equal(t, "kalshi-analyzer:snapshot:latest", LatestKey())
	assert.Equal(t, "kalshi-analyzer:snapshot:abc", SnapshotKey("abc"))
}

func TestRedisStoreUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	s := NewRedisStore(client, time.Minute)
	defer s.Close()

	ctx := context.Background()
	assert.Error(t, s.Ping(ctx))
	assert.Error(t, s.Put(ctx, testSnapshot()))

	_, err := s.Latest(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrSnapshotNotFound)
}

func newMiniredisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), ttl)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStorePutLatest(t *testing.T) {
	ctx := context.Background()
	s, mr := newMiniredisStore(t, time.Minute)

	_, err := s.Latest(ctx)
	assert.ErrorIs(t, err, models.ErrSnapshotNotFound)

	snap := testSnapshot()
	require.NoError(t, s.Put(ctx, snap))

	got, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)
	assert.Equal(t, snap.Source, got.Source)
	assert.True(t, snap.FetchedAt.Equal(got.FetchedAt))
	require.Len(t, got.Events, 1)
	assert.Equal(t, "mock-1", got.Events[0].ID)

	for _, key := range []string{LatestKey(), SnapshotKey(snap.ID.String())} {
		assert.True(t, mr.Exists(key), key)
		assert.Equal(t, time.Minute, mr.TTL(key), key)
	}
	assert.NoError(t, s.Ping(ctx))
}

func TestRedisStoreLatestReplaced(t *testing.T) {
	ctx := context.Background()
	s, mr := newMiniredisStore(t, time.Minute)

	first, second := testSnapshot(), testSnapshot()
	require.NoError(t, s.Put(ctx, first))
	require.NoError(t, s.Put(ctx, second))

	got, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.True(t, mr.Exists(SnapshotKey(first.ID.String())))
}

func TestRedisStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newMiniredisStore(t, time.Minute)
	require.NoError(t, s.Put(ctx, testSnapshot()))

	mr.FastForward(2 * time.Minute)

	_, err := s.Latest(ctx)
	assert.ErrorIs(t, err, models.ErrSnapshotNotFound)
}

func TestRedisStoreNoExpiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newMiniredisStore(t, 0)
	require.NoError(t, s.Put(ctx, testSnapshot()))

	assert.Equal(t, time.Duration(0), mr.TTL(LatestKey()))
}

func TestRedisStoreCorruptSnapshot(t *testing.T) {
	s, mr := newMiniredisStore(t, time.Minute)
	require.NoError(t, mr.Set(LatestKey(), "not json"))

	_, err := s.Latest(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrSnapshotNotFound)
}
