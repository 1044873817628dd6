package latest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/attendpass/internal/common"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces registry keys in a shared Redis.
const KeyPrefix = "attendpass:latest:"

type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed registry.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: KeyPrefix}
}

func (r *RedisStore) key(sessionID string) string {
	return r.prefix + sessionID
}

func (r *RedisStore) Put(ctx context.Context, sessionID, nonce string, ttl time.Duration) error {
	if sessionID == "" || nonce == "" {
		return fmt.Errorf("latest: missing session id or nonce")
	}
	if ttl <= 0 {
		return fmt.Errorf("latest: ttl must be positive")
	}
	return r.client.Set(ctx, r.key(sessionID), nonce, ttl).Err()
}

func (r *RedisStore) Get(ctx context.Context, sessionID string) (string, error) {
	val, err := r.client.Get(ctx, r.key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", common.ErrorNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: redis: %w", common.ErrorUnavailable, err)
	}
	return val, nil
}

// Ping reports whether Redis is reachable.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
