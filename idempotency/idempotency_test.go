package idempotency

import (
	"context"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	req := httptest.NewRequest("POST", "/cart/checkout", nil)
	assert.Empty(t, Key(req))

	req.Header.Set(Header, "  abc-123 ")
	assert.Equal(t, "abc-123", Key(req))
}

func TestRedisClaimer(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}

	claimer := NewRedisClaimer(client, time.Minute)
	key := "test:" + uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), keyPrefix+key) })

	ok, err := claimer.Claim(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = claimer.Claim(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "second claim must lose")

	ttl, err := client.TTL(ctx, keyPrefix+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, claimer.Release(ctx, key))
	ok, err = claimer.Claim(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok, "released key can be claimed again")
}
