package store

import (
	"context"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"

	"github.com/kode4food/runq/internal/config"
	"github.com/kode4food/runq/internal/engine/scheduler"
)

// Closer is a scheduler.Store that holds a connection
type Closer interface {
	scheduler.Store
	io.Closer
}

// Open selects and connects the backend named by the deferred config
func Open(ctx context.Context, cfg config.DeferredConfig) (Closer, error) {
	if !cfg.HasValidScheme() {
		return nil, fmt.Errorf("%w: %s", config.ErrInvalidStore, cfg.Store)
	}
	if cfg.IsRedis() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, err
		}
		return NewRedisStore(client, cfg.Key), nil
	}
	return NewBlobStore(ctx, cfg.Store, cfg.Key)
}
