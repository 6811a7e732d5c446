package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/runq/internal/config"
	"github.com/kode4food/runq/internal/engine/scheduler"
	"github.com/kode4food/runq/internal/store"
	"github.com/kode4food/runq/pkg/api"
)

func TestBlobStore(t *testing.T) {
	ctx := context.Background()

	s, err := store.NewBlobStore(ctx, "mem://", "runq/deferred.yml")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	t.Run("Load returns not found for missing document", func(t *testing.T) {
		_, err := s.Load(ctx)
		assert.ErrorIs(t, err, scheduler.ErrDocumentNotFound)
	})

	t.Run("Save replaces the whole document", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, []byte("first")))
		require.NoError(t, s.Save(ctx, []byte("second")))

		data, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "second", string(data))
	})
}

func TestBlobStoreFile(t *testing.T) {
	ctx := context.Background()

	s, err := store.NewBlobStore(ctx, "file://"+t.TempDir(), "deferred.yml")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	require.NoError(t, s.Save(ctx, []byte("near_0: {}\n")))
	data, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "near_0: {}\n", string(data))
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	s := store.NewRedisStore(client, "runq:deferred")
	defer func() { _ = s.Close() }()

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, scheduler.ErrDocumentNotFound)

	require.NoError(t, s.Save(ctx, []byte("document")))
	data, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "document", string(data))

	stored, err := server.Get("runq:deferred")
	require.NoError(t, err)
	assert.Equal(t, "document", stored)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("blob", func(t *testing.T) {
		cfg := config.NewDefaultConfig().Deferred
		s, err := store.Open(ctx, cfg)
		require.NoError(t, err)
		defer func() { _ = s.Close() }()
		assert.IsType(t, &store.BlobStore{}, s)
	})

	t.Run("redis", func(t *testing.T) {
		server := miniredis.RunT(t)
		cfg := config.NewDefaultConfig().Deferred
		cfg.Store = "redis://"
		cfg.RedisAddr = server.Addr()
		s, err := store.Open(ctx, cfg)
		require.NoError(t, err)
		defer func() { _ = s.Close() }()
		assert.IsType(t, &store.RedisStore{}, s)
	})

	t.Run("unsupported", func(t *testing.T) {
		cfg := config.NewDefaultConfig().Deferred
		cfg.Store = "ftp://host"
		_, err := store.Open(ctx, cfg)
		assert.ErrorIs(t, err, config.ErrInvalidStore)
	})
}

func TestSchedulerRoundTrip(t *testing.T) {
	ctx := context.Background()

	s, err := store.NewBlobStore(ctx, "mem://", "deferred.yml")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	sched := scheduler.New(scheduler.Config{Store: s})
	require.NoError(t, sched.Schedule(&scheduler.Record{
		ID:     "later",
		At:     time.Now().Add(scheduler.MediumHorizon * 2),
		Script: api.ScriptRef{Script: "greeter"},
	}))
	require.NoError(t, sched.Flush(ctx))

	restored := scheduler.New(scheduler.Config{Store: s})
	require.NoError(t, restored.Load(ctx))
	rec, ok := restored.Get("later")
	require.True(t, ok)
	assert.Equal(t, scheduler.TierFar, rec.Tier)
	assert.Equal(t, "greeter", rec.Script.Script)
}
