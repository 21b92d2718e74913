// Package cache provides the time-bounded result cache that sits in front of
// the commerce API. Entries are keyed by operation signature and expire lazily.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// DefaultTTL applies to list and detail reads.
	DefaultTTL = 5 * time.Minute
	// TrackingTTL applies to shipment tracking reads.
	TrackingTTL = time.Minute
)

type entry struct {
	value     any
	createdAt time.Time
	ttl       time.Duration
}

// Cache is a process-wide TTL key/value store. Safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	defaultTTL time.Duration
	now        func() time.Time
	metrics    cacheMetrics
}

// Option configures a Cache.
type Option func(*Cache)

// WithDefaultTTL overrides the TTL used by Set.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.defaultTTL = ttl
		}
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMeter records hit/miss/invalidation counters.
func WithMeter(m metric.Meter) Option {
	return func(c *Cache) { c.metrics = newCacheMetrics(m) }
}

// New constructs an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:    map[string]entry{},
		defaultTTL: DefaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns the value for key, or false when missing or expired.
// Expired entries are removed on access.
func (c *Cache) Get(ctx context.Context, key string) (any, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && c.now().Sub(e.createdAt) > e.ttl {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		c.metrics.recordMiss(ctx, key)
		return nil, false
	}
	c.metrics.recordHit(ctx, key)
	return e.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores value under key with an explicit TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	c.entries[key] = entry{value: value, createdAt: c.now(), ttl: ttl}
	c.mu.Unlock()
}

// Invalidate removes a single entry.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	c.mu.Lock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()
	if ok {
		c.metrics.recordInvalidation(ctx, key, 1)
	}
}

// InvalidatePrefix removes every entry whose key starts with prefix and
// returns how many were dropped.
func (c *Cache) InvalidatePrefix(ctx context.Context, prefix string) int {
	c.mu.Lock()
	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	c.mu.Unlock()
	if removed > 0 {
		c.metrics.recordInvalidation(ctx, prefix, removed)
	}
	return removed
}

// Reset drops every entry. Used on sign-out.
func (c *Cache) Reset(ctx context.Context) {
	c.InvalidatePrefix(ctx, "")
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

type cacheMetrics struct {
	hits          metric.Int64Counter
	misses        metric.Int64Counter
	invalidations metric.Int64Counter
}

func newCacheMetrics(m metric.Meter) cacheMetrics {
	if m == nil {
		return cacheMetrics{}
	}
	hits, _ := m.Int64Counter("cache.hits", metric.WithDescription("Number of cache hits"))
	misses, _ := m.Int64Counter("cache.misses", metric.WithDescription("Number of cache misses"))
	invalidations, _ := m.Int64Counter("cache.invalidations", metric.WithDescription("Number of cache entries invalidated"))
	return cacheMetrics{hits: hits, misses: misses, invalidations: invalidations}
}

func (m cacheMetrics) recordHit(ctx context.Context, key string) {
	if m.hits != nil {
		m.hits.Add(ctx, 1, metric.WithAttributes(namespaceAttr(key)))
	}
}

func (m cacheMetrics) recordMiss(ctx context.Context, key string) {
	if m.misses != nil {
		m.misses.Add(ctx, 1, metric.WithAttributes(namespaceAttr(key)))
	}
}

func (m cacheMetrics) recordInvalidation(ctx context.Context, key string, n int) {
	if m.invalidations != nil {
		m.invalidations.Add(ctx, int64(n), metric.WithAttributes(namespaceAttr(key)))
	}
}

func namespaceAttr(key string) attribute.KeyValue {
	ns, _, _ := strings.Cut(key, ":")
	return attribute.String("cache.namespace", ns)
}
