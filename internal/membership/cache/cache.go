// Package cache keeps issued memberships in Redis. Memberships never change,
// so entries are written once and left to expire.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"healthfund/internal/membership/models"
)

const keyPrefix = "healthfund:member:"

// DefaultTTL applies when NewRedisCache is given a non-positive ttl.
const DefaultTTL = 24 * time.Hour

// RedisCache stores memberships as JSON keyed by national ID.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a member cache.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached membership, or nil on a miss.
func (c *RedisCache) Get(ctx context.Context, nationalID string) (*models.Membership, error) {
	raw, err := c.client.Get(ctx, keyPrefix+nationalID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached member: %w", err)
	}
	var m models.Membership
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode cached member: %w", err)
	}
	return &m, nil
}

// Set caches m under its national ID.
func (c *RedisCache) Set(ctx context.Context, m *models.Membership) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode member: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+m.NationalID, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache member: %w", err)
	}
	return nil
}
