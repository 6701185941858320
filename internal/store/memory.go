package store

import (
	"context"
	"sync/atomic"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/yourusername/kalshi-analyzer/internal/models"
)

const latestKey = "snapshot:latest"

// MemoryStore keeps the snapshot in process memory with a TTL
type MemoryStore struct {
	cache     *cache.Cache
	ttl       time.Duration
	hitCount  atomic.Uint64
	missCount atomic.Uint64
}

// NewMemoryStore creates an in-memory store. A zero ttl never expires.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	cleanup := ttl * 2
	if ttl <= 0 {
		ttl = cache.NoExpiration
		cleanup = 0
	}
	return &MemoryStore{
		cache: cache.New(ttl, cleanup),
		ttl:   ttl,
	}
}

// Latest returns the cached snapshot
func (m *MemoryStore) Latest(ctx context.Context) (*models.Snapshot, error) {
	if v, found := m.cache.Get(latestKey); found {
		if snap, ok := v.(*models.Snapshot); ok {
			m.hitCount.Add(1)
			return snap, nil
		}
	}
	m.missCount.Add(1)
	return nil, models.ErrSnapshotNotFound
}

// Put stores the snapshot, replacing the previous one
func (m *MemoryStore) Put(ctx context.Context, snapshot *models.Snapshot) error {
	m.cache.Set(latestKey, snapshot, m.ttl)
	return nil
}

// Ping always succeeds for the in-memory store
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close flushes the cache
func (m *MemoryStore) Close() error {
	m.cache.Flush()
	return nil
}

// Stats returns cache statistics
func (m *MemoryStore) Stats() (hits, misses uint64, ratio float64) {
	hits = m.hitCount.Load()
	misses = m.missCount.Load()
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}
