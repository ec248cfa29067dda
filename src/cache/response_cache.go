package cache

import (
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/raulisai/Gateway-IA/src/config"
	"github.com/raulisai/Gateway-IA/src/models"
)

// ResponseCache is an in-process LRU with an absolute TTL per entry.
// Entries are cloned on the way in and out.
type ResponseCache struct {
	entries  *expirable.LRU[string, *models.GenerationResponse]
	maxSize  int
	ttl      time.Duration
	coalesce bool
	group    singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

func NewResponseCache(cfg *config.CacheConfig) *ResponseCache {
	return &ResponseCache{
		entries:  expirable.NewLRU[string, *models.GenerationResponse](cfg.MaxSize, nil, cfg.TTL),
		maxSize:  cfg.MaxSize,
		ttl:      cfg.TTL,
		coalesce: cfg.CoalesceMisses,
	}
}

func (c *ResponseCache) Get(tenant string, messages []models.Message, params map[string]any) (*models.GenerationResponse, bool) {
	return c.GetKey(Fingerprint(tenant, messages, params))
}

func (c *ResponseCache) GetKey(key string) (*models.GenerationResponse, bool) {
	resp, ok := c.entries.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return resp.Clone(), true
}

func (c *ResponseCache) Put(tenant string, messages []models.Message, params map[string]any, response *models.GenerationResponse) {
	c.PutKey(Fingerprint(tenant, messages, params), response)
}

// PutKey replaces any previous value under key.
func (c *ResponseCache) PutKey(key string, response *models.GenerationResponse) {
	if response == nil {
		return
	}
	c.entries.Add(key, response.Clone())
}

// Coalesce shares one execution of fn among concurrent callers of the same
// key when miss coalescing is enabled. Every caller gets its own copy.
func (c *ResponseCache) Coalesce(key string, fn func() (*models.GenerationResponse, error)) (*models.GenerationResponse, error) {
	if !c.coalesce {
		return fn()
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		return fn()
	})
	resp, _ := v.(*models.GenerationResponse)
	return resp.Clone(), err
}

func (c *ResponseCache) Metrics() models.CacheMetrics {
	hits, misses := c.hits.Load(), c.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return models.CacheMetrics{
		Hits:    hits,
		Misses:  misses,
		HitRate: rate,
		Size:    c.entries.Len(),
		MaxSize: c.maxSize,
		TTL:     c.ttl,
	}
}

// Purge drops every entry. Hit and miss counters are kept.
func (c *ResponseCache) Purge() {
	c.entries.Purge()
}
