// Package cache stores ranked responses so a repeated query skips the whole
// segmentation and fan-out cycle. Entries are bounded both by capacity (LRU)
// and by a per-entry TTL; an expired entry is never served, whichever
// eviction path reaches it first.
package cache

import (
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/model"
)

const DefaultCapacity = 1024

// entry is a stored result list with the diagnostics of the run that
// produced it and its expiry. Entries are replaced on refresh, never
// mutated, so a reader holding one keeps a consistent view.
type entry struct {
	results   []model.RankedResult
	info      model.QueryInfo
	expiresAt time.Time
}

// Cache is a TTL-bounded LRU of ranked results. Safe for concurrent use.
// A Cache built with capacity <= 0 is disabled: every Get misses and Put is
// a no-op, which is also the degraded mode when construction fails.
type Cache struct {
	store *lru.Cache[string, entry]
	now   func() time.Time
}

func New(capacity int) *Cache {
	if capacity <= 0 {
		return &Cache{now: time.Now}
	}
	store, err := lru.New[string, entry](capacity)
	if err != nil {
		// Only reachable with a non-positive capacity, handled above; keep
		// the degraded no-op cache rather than failing the process.
		return &Cache{now: time.Now}
	}
	return &Cache{store: store, now: time.Now}
}

// Key builds the composite cache key. The query is trimmed and lowercased
// (a no-op for Thai, normalizes Latin); volatile per-request fields never
// participate.
func Key(query, index string, limit, offset int) string {
	q := strings.ToLower(strings.TrimSpace(query))
	return strings.Join([]string{q, index, strconv.Itoa(limit), strconv.Itoa(offset)}, "\x1f")
}

// Get returns the cached results and diagnostics for key, or ok=false on
// miss or expiry.
func (c *Cache) Get(key string) ([]model.RankedResult, model.QueryInfo, bool) {
	if c.store == nil {
		return nil, model.QueryInfo{}, false
	}
	e, ok := c.store.Get(key)
	if !ok {
		return nil, model.QueryInfo{}, false
	}
	if c.now().After(e.expiresAt) {
		c.store.Remove(key)
		return nil, model.QueryInfo{}, false
	}
	return e.results, e.info, true
}

// Put stores results and their diagnostics under key for ttl. Non-positive
// TTLs are rejected so no entry can live forever by accident.
func (c *Cache) Put(key string, results []model.RankedResult, info model.QueryInfo, ttl time.Duration) {
	if c.store == nil || ttl <= 0 {
		return
	}
	c.store.Add(key, entry{results: results, info: info, expiresAt: c.now().Add(ttl)})
}

// Len reports the number of stored entries, expired or not.
func (c *Cache) Len() int {
	if c.store == nil {
		return 0
	}
	return c.store.Len()
}

// Purge drops every entry; used when the dictionary snapshot changes, since
// cached rankings may no longer match what segmentation would produce.
func (c *Cache) Purge() {
	if c.store != nil {
		c.store.Purge()
	}
}
