// Package cache provides a Redis read-through cache for the hot read paths:
// the conformity matrix and site statistics. A nil Redis client disables
// caching entirely, so every accessor degrades to the underlying loader.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultTTL = 5 * time.Minute

// Cache wraps the Redis client. All methods are safe to call with a
// disabled cache.
type Cache struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// New creates a Cache. client may be nil to disable caching.
func New(client *redis.Client, logger *zap.Logger) *Cache {
	return &Cache{client: client, logger: logger, ttl: defaultTTL}
}

// Enabled reports whether a Redis backend is configured.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// MatrixKey identifies a site's cached conformity matrix.
func MatrixKey(siteID uuid.UUID) string {
	return fmt.Sprintf("matrix:%s", siteID)
}

// StatsKey identifies a site's cached statistics.
func StatsKey(siteID uuid.UUID) string {
	return fmt.Sprintf("stats:%s", siteID)
}

// GetJSON loads key into dest. Returns false on miss, disabled cache, or
// any Redis error; cache errors are logged, never surfaced.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	if !c.Enabled() {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// SetJSON stores value under key with the default TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, value any) {
	if !c.Enabled() {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops the given keys. Used after any write that changes a
// site's matrix or stats.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// InvalidateSite drops every cached view of one site.
func (c *Cache) InvalidateSite(ctx context.Context, siteID uuid.UUID) {
	c.Invalidate(ctx, MatrixKey(siteID), StatsKey(siteID))
}
