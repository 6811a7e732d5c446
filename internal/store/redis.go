package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/kode4food/runq/internal/engine/scheduler"
)

// RedisStore keeps the deferred document under a single Redis key
type RedisStore struct {
	client *redis.Client
	key    string
}

var _ scheduler.Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

// Load implements scheduler.Store
func (s *RedisStore) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, scheduler.ErrDocumentNotFound
	}
	return data, err
}

// Save implements scheduler.Store
func (s *RedisStore) Save(ctx context.Context, data []byte) error {
	return s.client.Set(ctx, s.key, data, 0).Err()
}

// Close releases the client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
