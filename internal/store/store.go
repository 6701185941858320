// Package store keeps the latest event snapshot for the API and the CLI.
package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/yourusername/kalshi-analyzer/internal/config"
	"github.com/yourusername/kalshi-analyzer/internal/models"
)

// EventStore holds the most recent event snapshot
type EventStore interface {
	// Latest returns the current snapshot or models.ErrSnapshotNotFound
	Latest(ctx context.Context) (*models.Snapshot, error)
	// Put replaces the current snapshot
	Put(ctx context.Context, snapshot *models.Snapshot) error
	// Ping checks the backend is reachable
	Ping(ctx context.Context) error
	Close() error
}

// New creates the store selected by cache.backend
func New(cfg config.CacheConfig) (EventStore, error) {
	ttl := cfg.TTL()
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(ttl), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisStore(client, ttl), nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Backend)
	}
}
