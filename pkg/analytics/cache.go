package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dealersight/dealersight/pkg/models"
	"github.com/dealersight/dealersight/pkg/redis"
)

// CacheTTL is how long a merged result stays cached. It is deliberately
// independent of the date range length; a 90 day report goes stale at the
// same rate as a 7 day one.
const CacheTTL = 30 * time.Minute

// ErrCacheMiss is returned by Cache.Get when the key does not exist.
var ErrCacheMiss = errors.New("analytics: cache miss")

// Cache is the key-value store used for merged analytics payloads.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type redisCache struct {
	client *redis.Client
}

// NewRedisCache adapts the Redis client to the coordinator's cache contract.
func NewRedisCache(client *redis.Client) Cache {
	return &redisCache{client: client}
}

func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return value, err
}

func (c *redisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl)
}

func (c *redisCache) Del(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...)
}

// cacheKey builds the deterministic key for a merged result.
func cacheKey(userID uuid.UUID, dateRange string, dealershipID uuid.UUID) string {
	return fmt.Sprintf("analytics:%s:%s:%s", userID, dateRange, dealershipID)
}

// dateRangeBounds converts a date range label into a start and end date.
func dateRangeBounds(label string, now time.Time) (time.Time, time.Time, error) {
	var days int
	switch label {
	case models.DateRange7Days:
		days = 7
	case models.DateRange30Days:
		days = 30
	case models.DateRange90Days:
		days = 90
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unsupported date range %q", label)
	}

	end := now.UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -days)
	return start, end, nil
}
