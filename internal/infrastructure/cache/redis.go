package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnuragPathakTDL/ContentService/internal/infrastructure/metrics"
)

// ClientConfig holds configuration for the Redis client.
type ClientConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewClient creates a Redis client and verifies connectivity to fail fast
// on misconfiguration.
func NewClient(ctx context.Context, cfg ClientConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// RedisStore implements Store using Redis as the backing store.
type RedisStore struct {
	client redis.Cmdable
}

// Compile-time verification that RedisStore implements Store.
var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a new Redis-backed JSON store.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

// Get reads the JSON payload at key into dest.
// A corrupt payload is deleted and reported as a miss, never as an error.
func (s *RedisStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss).Inc()
			return false, nil
		}
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusError).Inc()
		return false, fmt.Errorf("redis get: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		// Self-heal: drop the corrupt entry so the next read repopulates it.
		slog.Warn("deleting corrupt cache payload",
			"key", key,
			"error", err,
		)
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusCorrupt).Inc()
		if delErr := s.client.Del(ctx, key).Err(); delErr != nil {
			slog.Warn("failed to delete corrupt cache key",
				"key", key,
				"error", delErr,
			)
		}
		return false, nil
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit).Inc()
	return true, nil
}

// Set writes value as JSON under key. ttl <= 0 stores with no expiry.
func (s *RedisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	if ttl < 0 {
		ttl = 0
	}

	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusError).Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusSuccess).Inc()
	return nil
}

// Delete removes key from Redis.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusError).Inc()
		return fmt.Errorf("redis del: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusSuccess).Inc()
	return nil
}
