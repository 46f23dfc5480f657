package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStoreFromClient(client), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))

	data, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("v"), data)
}

func TestRedisStoreMiss(t *testing.T) {
	store, _ := newTestStore(t)

	_, found, err := store.Get(context.Background(), "absent")
	require.NoError(t, err)
	require.False(t, found)
}

func TestRedisStoreTTLExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Second))
	mr.FastForward(2 * time.Second)

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, found)
}

func TestRedisStoreDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), time.Minute))

	require.NoError(t, store.Delete(ctx, "a", "b", "missing"))

	_, found, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.False(t, found)

	// empty delete is a no-op
	require.NoError(t, store.Delete(ctx))
}

func TestNewRedisStoreRequiresAddress(t *testing.T) {
	_, err := NewRedisStore(RedisConfig{})
	require.Error(t, err)
}
