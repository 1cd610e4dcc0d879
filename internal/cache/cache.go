package cache

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/kjstillabower/weathernow/internal/models"
)

// Cache stores geocoded places keyed by normalized city query. Weather
// results are never cached; only the name-to-coordinates resolution is.
type Cache interface {
	Get(ctx context.Context, key string) (models.Place, bool, error)
	Set(ctx context.Context, key string, value models.Place, ttl time.Duration) error
}

// Key normalizes a city query into a cache key.
func Key(city string) string {
	return strings.ToLower(strings.Join(strings.Fields(city), " "))
}

// InMemoryCache implements Cache on go-cache. Safe for concurrent use; expired
// entries are evicted on access and by the janitor every cleanupInterval.
type InMemoryCache struct {
	store *gocache.Cache
}

// NewInMemoryCache creates an in-process cache whose janitor runs every cleanupInterval.
// A non-positive interval disables the janitor.
func NewInMemoryCache(cleanupInterval time.Duration) *InMemoryCache {
	return &InMemoryCache{
		store: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

// Get returns (place, true, nil) on hit and (zero, false, nil) on miss or expiry.
func (c *InMemoryCache) Get(ctx context.Context, key string) (models.Place, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.Place{}, false, err
	}
	v, ok := c.store.Get(key)
	if !ok {
		return models.Place{}, false, nil
	}
	place, ok := v.(models.Place)
	if !ok {
		c.store.Delete(key)
		return models.Place{}, false, nil
	}
	return place, true, nil
}

// Set stores place under key for ttl. A non-positive ttl stores without expiry.
func (c *InMemoryCache) Set(ctx context.Context, key string, value models.Place, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	c.store.Set(key, value, ttl)
	return nil
}

// Len returns the number of stored entries, including expired ones not yet evicted.
func (c *InMemoryCache) Len() int {
	return c.store.ItemCount()
}
