package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/quartzerp/globalsearch/pkg/model"
	"github.com/quartzerp/globalsearch/pkg/observability"
	"github.com/quartzerp/globalsearch/pkg/registry"
)

const (
	// DefaultTTL applies when a request names no entity types with a
	// configured TTL.
	DefaultTTL = 5 * time.Minute

	// DefaultL1Size bounds the in-process LRU in front of redis.
	DefaultL1Size = 512

	// scopeIndexTTL keeps scope index sets from outliving their members
	// forever. Stale members are harmless: deleting an expired key is a
	// no-op.
	scopeIndexTTL = 24 * time.Hour

	// writeTimeout bounds the asynchronous cache write.
	writeTimeout = 3 * time.Second
)

// Options configures a Cache.
type Options struct {
	DefaultTTL   time.Duration
	L1Size       int
	PopularLimit int
}

// Cache stores search responses in redis behind a small in-process LRU.
// Writes are asynchronous and never surface errors to the search path; every
// write also registers the key in per-tenant and per-tenant-entity scope sets
// so invalidation can clear a scope without scanning hashed keys.
type Cache struct {
	redis      *redis.Client
	registry   *registry.Registry
	logger     *observability.Logger
	metrics    *observability.Metrics
	stats      *Stats
	l1         *lru.Cache[string, l1Entry]
	defaultTTL time.Duration
}

type l1Entry struct {
	response  *model.SearchResponse
	expiresAt time.Time
}

// New creates the cache layer. metrics may be nil.
func New(client *redis.Client, reg *registry.Registry, logger *observability.Logger, metrics *observability.Metrics, opts Options) (*Cache, error) {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = DefaultTTL
	}
	if opts.L1Size <= 0 {
		opts.L1Size = DefaultL1Size
	}

	l1, err := lru.New[string, l1Entry](opts.L1Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create L1 cache: %w", err)
	}

	return &Cache{
		redis:      client,
		registry:   reg,
		logger:     logger,
		metrics:    metrics,
		stats:      NewStats(opts.PopularLimit),
		l1:         l1,
		defaultTTL: opts.DefaultTTL,
	}, nil
}

// TTLFor resolves the TTL for a set of entity types: the minimum of the
// per-entity TTLs, so the most volatile entity in a mixed query dictates
// freshness. Unknown types and an empty set fall back to the default.
func (c *Cache) TTLFor(entityTypes []string) time.Duration {
	ttl := time.Duration(0)
	for _, t := range entityTypes {
		d := c.registry.ByType(t)
		if d == nil || d.CacheTTL <= 0 {
			continue
		}
		if ttl == 0 || time.Duration(d.CacheTTL) < ttl {
			ttl = time.Duration(d.CacheTTL)
		}
	}
	if ttl == 0 {
		return c.defaultTTL
	}
	return ttl
}

// Get looks up a cached response for the request, L1 first then redis. It
// also feeds the hit/miss counters and the tenant's popular-query table.
func (c *Cache) Get(ctx context.Context, req model.SearchRequest) (*model.SearchResponse, bool) {
	key := Key(req)
	c.stats.RecordQuery(req.TenantID, req.Query)

	if entry, ok := c.l1.Get(key); ok {
		if time.Now().Before(entry.expiresAt) {
			c.recordHit()
			// The stored response is shared by every hit on this key; hand
			// out a copy so callers can mutate theirs freely.
			return entry.response.Clone(), true
		}
		c.l1.Remove(key)
	}

	data, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		c.recordMiss()
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).Warn("Cache read failed")
		c.recordMiss()
		return nil, false
	}

	var resp model.SearchResponse
	if err := json.Unmarshal([]byte(data), &resp); err != nil {
		// Corrupt entry: drop it and treat as a miss.
		c.redis.Del(ctx, key)
		c.logger.WithError(err).Warn("Dropped corrupt cache entry")
		c.recordMiss()
		return nil, false
	}

	c.recordHit()
	return &resp, true
}

// Put stores a response for the request. The redis write runs asynchronously
// with its own timeout so a slow or unavailable store never delays the search
// path; failures are logged and counted, never returned.
func (c *Cache) Put(req model.SearchRequest, resp *model.SearchResponse) {
	key := Key(req)
	ttl := c.TTLFor(req.EntityTypes)

	c.l1.Add(key, l1Entry{response: resp.Clone(), expiresAt: time.Now().Add(ttl)})

	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to marshal response for cache")
		return
	}

	scopes := c.scopeKeys(req)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		c.write(ctx, key, data, scopes, ttl)
	}()
}

func (c *Cache) write(ctx context.Context, key string, data []byte, scopes []string, ttl time.Duration) {
	pipe := c.redis.TxPipeline()
	pipe.Set(ctx, key, data, ttl)
	for _, scope := range scopes {
		pipe.SAdd(ctx, scope, key)
		pipe.Expire(ctx, scope, scopeIndexTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		if c.metrics != nil {
			c.metrics.CacheWriteErrors.Inc()
		}
		c.logger.WithError(err).Warn("Cache write failed")
	}
}

// InvalidateScope removes every cached entry for one tenant and entity type.
// It returns the number of entries removed.
func (c *Cache) InvalidateScope(ctx context.Context, tenantID, entityType string) (int, error) {
	return c.clearScope(ctx, ScopeKey(tenantID, entityType))
}

// InvalidateTenant removes every cached entry for a tenant.
func (c *Cache) InvalidateTenant(ctx context.Context, tenantID string) (int, error) {
	return c.clearScope(ctx, TenantScopeKey(tenantID))
}

func (c *Cache) clearScope(ctx context.Context, scope string) (int, error) {
	keys, err := c.redis.SMembers(ctx, scope).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read cache scope %s: %w", scope, err)
	}

	for _, key := range keys {
		c.l1.Remove(key)
	}
	if len(keys) > 0 {
		if err := c.redis.Del(ctx, keys...).Err(); err != nil {
			return 0, fmt.Errorf("failed to delete cache entries: %w", err)
		}
	}
	if err := c.redis.Del(ctx, scope).Err(); err != nil {
		return 0, fmt.Errorf("failed to delete cache scope %s: %w", scope, err)
	}
	return len(keys), nil
}

// scopeKeys lists the index sets a write belongs to: the tenant scope plus
// one per searched entity type. A request without explicit entity types spans
// every enabled entity, so it registers under all of them.
func (c *Cache) scopeKeys(req model.SearchRequest) []string {
	types := req.EntityTypes
	if len(types) == 0 {
		for _, d := range c.registry.Enabled() {
			types = append(types, d.Type)
		}
	}

	scopes := make([]string, 0, len(types)+1)
	scopes = append(scopes, TenantScopeKey(req.TenantID))
	for _, t := range types {
		scopes = append(scopes, ScopeKey(req.TenantID, t))
	}
	return scopes
}

// Stats exposes the cache counters.
func (c *Cache) Stats() *Stats { return c.stats }

// Ping reports store connectivity, used by health checks.
func (c *Cache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

func (c *Cache) recordHit() {
	c.stats.RecordHit()
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *Cache) recordMiss() {
	c.stats.RecordMiss()
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}
