// Package idempotency guards order-creating requests against client retries
// by claiming the client's Idempotency-Key before any work is done.
package idempotency

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	Header     = "Idempotency-Key"
	DefaultTTL = 24 * time.Hour
	keyPrefix  = "idem:"
)

// Key reads the client's key from the request.
func Key(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(Header))
}

type Claimer interface {
	// Claim returns false when key was already claimed.
	Claim(ctx context.Context, key string) (bool, error)
	// Release frees a key so a failed request can be retried.
	Release(ctx context.Context, key string) error
}

type RedisClaimer struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClaimer(client *redis.Client, ttl time.Duration) *RedisClaimer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisClaimer{client: client, ttl: ttl}
}

func (r *RedisClaimer) Claim(ctx context.Context, key string) (bool, error) {
	return r.client.SetNX(ctx, keyPrefix+key, 1, r.ttl).Result()
}

func (r *RedisClaimer) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, keyPrefix+key).Err()
}
