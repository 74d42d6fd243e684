// Package redis keeps redeemed confirmation tokens in Redis so each token can
// confirm an account only once.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hongminglow/express-accounts/internal/storage"
)

const keyPrefix = "consumed_confirmation_token"

var errRedisUnavailable = errors.New("consumed token redis unavailable")

var _ storage.ConsumedTokenStore = (*ConsumedTokens)(nil)

// ConsumedTokens records token digests with SETNX. Keys expire together with
// the token they stand for.
type ConsumedTokens struct {
	redis  redis.Cmdable
	prefix string
	now    func() time.Time
}

// NewConsumedTokens wraps a Redis client.
func NewConsumedTokens(client redis.Cmdable) *ConsumedTokens {
	return &ConsumedTokens{redis: client, prefix: keyPrefix, now: time.Now}
}

// Open parses a redis:// URL, connects and pings the server.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}
	return client, nil
}

func (s *ConsumedTokens) key(token string) string {
	return s.prefix + ":" + storage.TokenDigest(token)
}

// Consume reports true the first time a token is seen.
func (s *ConsumedTokens) Consume(ctx context.Context, token string, expiresAt time.Time) (bool, error) {
	ttl := expiresAt.Sub(s.now())
	if ttl < time.Second {
		ttl = time.Second
	}
	ok, err := s.redis.SetNX(ctx, s.key(token), s.now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}
	return ok, nil
}
