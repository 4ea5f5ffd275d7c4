package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"meetslot/internal/models"
	"slices"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultCacheSize = 512
	defaultCacheTTL  = 5 * time.Minute
	redisKeyPrefix   = "calendar:"
)

// Cache stores fetched events for a bounded time.
type Cache interface {
	Get(ctx context.Context, key string) ([]models.Event, bool, error)
	Set(ctx context.Context, key string, events []models.Event) error
}

// CacheKey identifies one participant's events for one time range.
func CacheKey(participant string, from, to time.Time) string {
	return fmt.Sprintf("%s|%s|%s", strings.ToLower(participant),
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
}

// MemoryCache is an in-process LRU whose entries expire after a TTL.
type MemoryCache struct {
	lru *expirable.LRU[string, []models.Event]
}

// NewMemoryCache creates a MemoryCache. Zero values fall back to 512 entries and 5 minutes.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &MemoryCache{lru: expirable.NewLRU[string, []models.Event](size, nil, ttl)}
}

// Get returns a copy of the cached events so callers may modify them freely.
func (c *MemoryCache) Get(_ context.Context, key string) ([]models.Event, bool, error) {
	events, ok := c.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(events), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, events []models.Event) error {
	c.lru.Add(key, slices.Clone(events))
	return nil
}

// RedisCache keeps events as JSON under a prefixed key with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a RedisCache. A zero ttl falls back to 5 minutes.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]models.Event, bool, error) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var events []models.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, false, fmt.Errorf("decode cached events: %w", err)
	}
	return events, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, events []models.Event) error {
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
