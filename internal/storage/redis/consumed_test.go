package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/express-accounts/internal/storage"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestConsume_OnlyOnce(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewConsumedTokens(client)
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	ok, err := store.Consume(ctx, "token-a", exp)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Consume(ctx, "token-a", exp)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Consume(ctx, "token-b", exp)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConsume_KeyUsesDigestAndExpires(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewConsumedTokens(client)

	_, err := store.Consume(context.Background(), "token-a", time.Now().Add(10*time.Minute))
	require.NoError(t, err)

	key := keyPrefix + ":" + storage.TokenDigest("token-a")
	assert.True(t, mr.Exists(key))
	ttl := mr.TTL(key)
	assert.Greater(t, ttl, 9*time.Minute)
	assert.LessOrEqual(t, ttl, 10*time.Minute)

	mr.FastForward(11 * time.Minute)
	assert.False(t, mr.Exists(key))
}

func TestConsume_PastExpiryUsesMinimumTTL(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewConsumedTokens(client)

	ok, err := store.Consume(context.Background(), "old", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Second, mr.TTL(keyPrefix+":"+storage.TokenDigest("old")))
}

func TestConsume_RedisDown(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewConsumedTokens(client)
	mr.Close()

	_, err := store.Consume(context.Background(), "token", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, errRedisUnavailable)
}

func TestOpen(t *testing.T) {
	mr, _ := newTestRedis(t)

	client, err := Open(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	assert.NoError(t, client.Close())

	_, err = Open(context.Background(), "http://nope")
	assert.Error(t, err)
}
