// Package cache provides the Redis-backed read cache for document list and
// detail views, plus the invalidator run after durable writes. The cache is a
// read optimization, never a source of truth: every failure here is logged
// and swallowed.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SudiptoSatpati/DocSync-Backend/pkg/logger"
	"github.com/SudiptoSatpati/DocSync-Backend/pkg/metrics"
)

// Cache is a thin typed wrapper over a Redis client.
type Cache struct {
	client *redis.Client
	prefix string
}

// New creates a cache around the given client. A nil client yields a disabled
// cache whose operations are no-ops.
func New(client *redis.Client, prefix string) *Cache {
	if prefix == "" {
		prefix = "docsync:"
	}
	return &Cache{client: client, prefix: prefix}
}

func (c *Cache) Enabled() bool { return c != nil && c.client != nil }

// DetailKey is the cache key for a per-user document detail view.
func DetailKey(docID, userID string) string { return "doc:detail:" + docID + ":" + userID }

// ListKey is the cache key for a user's document list view.
func ListKey(userID string) string { return "doc:list:" + userID }

// Get returns the cached bytes for key, or (nil, false) on miss or error.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}
	b, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warnf("cache get %s: %v", key, err)
		}
		return nil, false
	}
	return b, true
}

// SetWithTTL stores value under key for ttl. Failures are logged.
func (c *Cache) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		logger.Warnf("cache set %s: %v", key, err)
	}
}

// Delete removes the given keys. Failures are logged.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		logger.Warnf("cache delete: %v", err)
	}
}

// KeysMatching returns keys matching the glob pattern (without the prefix).
func (c *Cache) KeysMatching(ctx context.Context, pattern string) []string {
	if !c.Enabled() {
		return nil
	}
	var out []string
	iter := c.client.Scan(ctx, 0, c.prefix+pattern, 0).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val()[len(c.prefix):])
	}
	if err := iter.Err(); err != nil {
		logger.Warnf("cache scan %s: %v", pattern, err)
	}
	return out
}

// DeleteMatching removes every key matching the glob pattern.
func (c *Cache) DeleteMatching(ctx context.Context, pattern string) {
	keys := c.KeysMatching(ctx, pattern)
	c.Delete(ctx, keys...)
}

// Invalidator removes stale document reads after durable writes.
type Invalidator struct {
	cache *Cache
}

func NewInvalidator(c *Cache) *Invalidator { return &Invalidator{cache: c} }

// Invalidate drops the detail view of (docID, userID) and userID's list view.
func (inv *Invalidator) Invalidate(ctx context.Context, docID, userID string) {
	if inv == nil || !inv.cache.Enabled() {
		return
	}
	inv.cache.Delete(ctx, DetailKey(docID, userID), ListKey(userID))
	metrics.CacheInvalidations.Inc()
}

// InvalidateForAll invalidates for the owner and every collaborator.
func (inv *Invalidator) InvalidateForAll(ctx context.Context, docID string, participantIDs []string) {
	for _, uid := range participantIDs {
		inv.Invalidate(ctx, docID, uid)
	}
}
