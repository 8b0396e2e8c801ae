/*
cache.go - Statistics cache port

PURPOSE:
  A small cache interface the statistics reads go through, keyed by a
  per-user version token that every mutation bumps. Bumping the version
  strands all older keys, so stale aggregates are never served past a
  write.

NON-AUTHORITATIVE:
  The cache is an optimization, not a system of record. A miss (or a nil
  cache) always falls through to recomputation; read paths never write
  anything except the computed value itself.

IMPLEMENTATIONS:
  MemoryCache below suffices for a single process. Any distributed cache
  with get/set/TTL fits the same port.
*/
package fuel

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// StatsTTL is how long a computed aggregate may be served before
// recomputation even without an intervening write.
const StatsTTL = 5 * time.Minute

// StatsCache is the port the aggregator and engine speak to.
type StatsCache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)

	// Version returns the user's current cache version token.
	Version(userID UserID) int64
	// BumpVersion invalidates every cached aggregate for the user.
	BumpVersion(userID UserID)
}

// CacheKey builds a stable key from scope parameters. User-controlled
// values are hashed so they cannot pollute the key space.
func CacheKey(prefix string, userID UserID, version int64, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			keys = append(keys, k+"="+v)
		}
	}
	sort.Strings(keys)
	sum := md5.Sum([]byte(strings.Join(keys, "_")))
	return fmt.Sprintf("%s_user%s_v%d_%s", prefix, userID, version, hex.EncodeToString(sum[:])[:16])
}

// =============================================================================
// MEMORY CACHE
// =============================================================================

// MemoryCache is an in-process StatsCache.
type MemoryCache struct {
	mu       sync.RWMutex
	values   map[string]cacheEntry
	versions map[UserID]int64
}

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		values:   make(map[string]cacheEntry),
		versions: make(map[UserID]int64),
	}
}

func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.values[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (c *MemoryCache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = cacheEntry{value: value, expiresAt: time.Now().Add(ttl)}

	// Opportunistic sweep so abandoned keys (stranded by version bumps)
	// do not accumulate without bound.
	if len(c.values) > 4096 {
		now := time.Now()
		for k, e := range c.values {
			if now.After(e.expiresAt) {
				delete(c.values, k)
			}
		}
	}
}

func (c *MemoryCache) Version(userID UserID) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.versions[userID]
}

func (c *MemoryCache) BumpVersion(userID UserID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[userID]++
}
