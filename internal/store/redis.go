package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yourusername/kalshi-analyzer/internal/models"
)

const keyPrefix = "kalshi-analyzer:snapshot:"

// RedisStore shares the snapshot between analyzer instances through Redis
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store. A zero ttl keeps keys forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// LatestKey is the key holding the current snapshot
func LatestKey() string {
	return keyPrefix + "latest"
}

// SnapshotKey is the key holding a snapshot by id
func SnapshotKey(id string) string {
	return keyPrefix + id
}

// Latest reads the current snapshot
func (r *RedisStore) Latest(ctx context.Context) (*models.Snapshot, error) {
	data, err := r.client.Get(ctx, LatestKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &snap, nil
}

// Put writes the snapshot under its id and as the latest
func (r *RedisStore) Put(ctx context.Context, snapshot *models.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, SnapshotKey(snapshot.ID.String()), data, r.ttl)
	pipe.Set(ctx, LatestKey(), data, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (r *RedisStore) Close() error {
	return r.client.Close()
}
