// internal/idempotency/redis_store.go
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Phobia943/Etsy-Information-to-Sevdesk/pkg/redis"
)

// RedisStore is the Store backend for deployments where several sync
// workers must share idempotency state. Expiry is delegated to Redis key
// TTLs, so SweepExpired has nothing to do here.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewRedisStore creates a Redis-backed store with the given TTL.
func NewRedisStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		client:    client,
		keyPrefix: "idempotency:",
		ttl:       ttl,
		logger:    logger,
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	val, err := s.client.Get(ctx, s.keyPrefix+key)
	if errors.Is(err, redis.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read idempotency key: %w", err)
	}

	s.logger.Debug("idempotency hit", zap.String("key", key))
	return json.RawMessage(val), true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, result json.RawMessage) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, []byte(result), s.ttl); err != nil {
		return fmt.Errorf("failed to store idempotency key: %w", err)
	}
	s.logger.Debug("idempotency key stored", zap.String("key", key))
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Delete(ctx, s.keyPrefix+key)
}

// SweepExpired is a no-op for Redis; keys carry their own TTL.
func (s *RedisStore) SweepExpired(context.Context) (int, error) {
	return 0, nil
}

var _ Store = (*RedisStore)(nil)
var _ Store = (*MemoryStore)(nil)
