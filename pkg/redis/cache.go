package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache provides typed caching utilities
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Get retrieves a cached value
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	data, err := c.client.Redis().Get(ctx, fullKey).Bytes()
	if err != nil {
		// Key not found is not an error
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	return c.client.Redis().Set(ctx, fullKey, data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	return c.client.Redis().Del(ctx, fullKey).Err()
}

// GetOrSet retrieves from cache or calls fn to populate it
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, fn func() (interface{}, error)) error {
	// Try cache first
	found, err := c.Get(ctx, key, dest)
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	// Cache miss - call function
	value, err := fn()
	if err != nil {
		return err
	}

	// Store in cache (실패해도 값은 반환)
	_ = c.Set(ctx, key, value, ttl)

	// Unmarshal into dest
	data, _ := json.Marshal(value)
	return json.Unmarshal(data, dest)
}

// DeletePrefix removes every cached value whose key starts with keyPrefix.
// Used to invalidate mart-backed responses after a rebuild.
func (c *Cache) DeletePrefix(ctx context.Context, keyPrefix string) (int, error) {
	if !c.client.Enabled() {
		return 0, nil
	}

	pattern := fmt.Sprintf("%s:cache:%s*", c.prefix, keyPrefix)
	rdb := c.client.Redis()

	deleted := 0
	iter := rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, fmt.Errorf("cache delete %s: %w", iter.Val(), err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("cache scan failed: %w", err)
	}

	return deleted, nil
}

// Predefined TTLs
const (
	TTLShort  = 1 * time.Minute  // health/run status
	TTLMedium = 10 * time.Minute // fund/asset search
	TTLLong   = 1 * time.Hour    // dashboard aggregates (rebuilt every 6h, invalidated on build)
	TTLDaily  = 24 * time.Hour   // fx rate snapshots
)

// MartPrefix is the common prefix of all mart-backed cache keys
const MartPrefix = "mart:"

// Common cache key generators

// DashboardKey is the single-row dashboard summary
func DashboardKey() string {
	return MartPrefix + "dashboard"
}

// AllocationKey is a ranked allocation table ("holdings", "sector", "country", "region")
func AllocationKey(dimension string, limit int) string {
	return fmt.Sprintf("%salloc:%s:%d", MartPrefix, dimension, limit)
}

// FundExposureKey is the look-through exposure of one fund
func FundExposureKey(fundCode string) string {
	return fmt.Sprintf("%sfund:%s", MartPrefix, fundCode)
}

// LatestRunKey is the most recent etl_run_log row
func LatestRunKey() string {
	return MartPrefix + "run:latest"
}

// AssetExposureKey is the list of funds exposed to one holding key
func AssetExposureKey(holdingKey string) string {
	return fmt.Sprintf("%sasset:%s", MartPrefix, holdingKey)
}
