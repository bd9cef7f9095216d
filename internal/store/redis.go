package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Refresh tokens stay usable long after the access token expires, so
// keep the record around well past expires_at.
const redisTTLBuffer = 24 * time.Hour

// RedisStore persists token pairs in Redis, one JSON value per portal.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client. prefix namespaces the keys.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(portalID string) string {
	return fmt.Sprintf("%s:token:%s", s.prefix, portalID)
}

func (s *RedisStore) Upsert(ctx context.Context, pair TokenPair) error {
	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("marshal token pair: %w", err)
	}
	ttl := time.Until(pair.ExpiresAt) + redisTTLBuffer
	if err := s.client.Set(ctx, s.key(pair.PortalID), data, ttl).Err(); err != nil {
		return fmt.Errorf("save token pair: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, portalID string) (*TokenPair, error) {
	data, err := s.client.Get(ctx, s.key(portalID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get token pair: %w", err)
	}
	var pair TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return nil, fmt.Errorf("unmarshal token pair: %w", err)
	}
	return &pair, nil
}

func (s *RedisStore) Delete(ctx context.Context, portalID string) error {
	if err := s.client.Del(ctx, s.key(portalID)).Err(); err != nil {
		return fmt.Errorf("delete token pair: %w", err)
	}
	return nil
}
