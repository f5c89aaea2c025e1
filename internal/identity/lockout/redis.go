// Package lockout counts failed logins per identifier within a sliding window.
package lockout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "healthfund:login_failures:"

func normalize(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// RedisStore keeps failure counters in Redis so every instance shares them.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed failure counter.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Failures returns the current failure count for identifier.
func (s *RedisStore) Failures(ctx context.Context, identifier string) (int, error) {
	n, err := s.client.Get(ctx, keyPrefix+normalize(identifier)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// RecordFailure increments the counter. The window starts at the first failure.
func (s *RedisStore) RecordFailure(ctx context.Context, identifier string, window time.Duration) (int, error) {
	key := keyPrefix + normalize(identifier)
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

// Clear resets the counter after a successful login.
func (s *RedisStore) Clear(ctx context.Context, identifier string) error {
	return s.client.Del(ctx, keyPrefix+normalize(identifier)).Err()
}
