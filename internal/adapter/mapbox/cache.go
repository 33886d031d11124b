package mapbox

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/crisislens-service/internal/domain"
	"github.com/couchcryptid/crisislens-service/internal/observability"
)

const defaultNegativeTTL = 10 * time.Minute

// CacheOption configures a CachedGeocoder.
type CacheOption func(*CachedGeocoder)

// WithNegativeTTL sets how long a "no such place" answer is remembered.
// Zero disables negative caching.
func WithNegativeTTL(d time.Duration) CacheOption {
	return func(c *CachedGeocoder) { c.negativeTTL = d }
}

// WithCacheClock sets the clock used for entry expiry.
func WithCacheClock(clock clockwork.Clock) CacheOption {
	return func(c *CachedGeocoder) { c.clock = clock }
}

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache. Places found
// are kept until evicted; places not found are kept for the negative TTL so a
// burst of reports naming an unknown place costs one upstream call. Errors
// are never cached. Concurrent misses for the same key share one call.
type CachedGeocoder struct {
	inner       domain.Geocoder
	cache       *lruCache
	group       singleflight.Group
	clock       clockwork.Clock
	negativeTTL time.Duration
	metrics     *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics, opts ...CacheOption) *CachedGeocoder {
	c := &CachedGeocoder{
		inner:       inner,
		clock:       clockwork.NewRealClock(),
		negativeTTL: defaultNegativeTTL,
		metrics:     metrics,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cache = newLRUCache(maxEntries, c.clock)
	return c
}

// ForwardGeocode answers from the cache when it can. Keys ignore case and
// surrounding space in the place name.
func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, name, region string) (domain.GeocodingResult, error) {
	key := strings.ToLower(strings.TrimSpace(name)) + "|" + strings.ToLower(strings.TrimSpace(region))
	if result, ok := c.cache.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	v, err, _ := c.group.Do(key, func() (any, error) {
		result, err := c.inner.ForwardGeocode(ctx, name, region)
		if err != nil {
			return result, err
		}
		switch {
		case !result.Empty():
			c.cache.put(key, result, 0)
		case c.negativeTTL > 0:
			c.cache.put(key, result, c.negativeTTL)
		}
		return result, nil
	})
	if err != nil {
		return domain.GeocodingResult{}, err
	}
	return v.(domain.GeocodingResult), nil
}

// lruCache is a thread-safe LRU of geocoding results with optional per-entry
// expiry. Front of the list is most recently used.
type lruCache struct {
	maxEntries int
	clock      clockwork.Clock

	mu      sync.Mutex
	order   *list.List
	entries map[string]*list.Element
}

type cacheEntry struct {
	key       string
	value     domain.GeocodingResult
	expiresAt time.Time // zero means no expiry
}

func newLRUCache(maxEntries int, clock clockwork.Clock) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		clock:      clock,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *lruCache) get(key string) (domain.GeocodingResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return domain.GeocodingResult{}, false
	}
	e := el.Value.(*cacheEntry)
	if !e.expiresAt.IsZero() && !c.clock.Now().Before(e.expiresAt) {
		c.order.Remove(el)
		delete(c.entries, key)
		return domain.GeocodingResult{}, false
	}
	c.order.MoveToFront(el)
	return e.value, true
}

// put stores value under key. A positive ttl expires the entry after ttl.
func (c *lruCache) put(key string, value domain.GeocodingResult, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.clock.Now().Add(ttl)
	}

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*cacheEntry)
		e.value, e.expiresAt = value, expiresAt
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, value: value, expiresAt: expiresAt})
	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}
