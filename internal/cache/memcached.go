package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/kjstillabower/weathernow/internal/models"
)

const keyPrefix = "weathernow:place:"

// MemcachedCache implements Cache using memcached so replicas share geocoding results.
type MemcachedCache struct {
	client *memcache.Client
}

// NewMemcachedCache creates a MemcachedCache. addrs is a comma-separated list
// (e.g. "localhost:11211" or "host1:11211,host2:11211"). timeout and maxIdleConns
// configure the client; both use package defaults if zero.
func NewMemcachedCache(addrs string, timeout time.Duration, maxIdleConns int) (*MemcachedCache, error) {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		return nil, errors.New("memcached: no server addresses")
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	return &MemcachedCache{client: client}, nil
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// key hashes the city query; memcached keys may not contain spaces or exceed 250 bytes.
func (c *MemcachedCache) key(k string) string {
	sum := sha1.Sum([]byte(k))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get implements Cache.Get. Returns false, nil on cache miss; false, err on error.
func (c *MemcachedCache) Get(ctx context.Context, key string) (models.Place, bool, error) {
	if ctx.Err() != nil {
		return models.Place{}, false, ctx.Err()
	}
	item, err := c.client.Get(c.key(key))
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return models.Place{}, false, nil
		}
		return models.Place{}, false, fmt.Errorf("memcached get: %w", err)
	}
	var place models.Place
	if err := json.Unmarshal(item.Value, &place); err != nil {
		return models.Place{}, false, fmt.Errorf("memcached decode: %w", err)
	}
	return place, true, nil
}

// Set implements Cache.Set.
func (c *MemcachedCache) Set(ctx context.Context, key string, value models.Place, ttl time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(&memcache.Item{
		Key:        c.key(key),
		Value:      raw,
		Expiration: expirationSeconds(ttl),
	})
}

// expirationSeconds converts ttl to memcached's relative expiry. Values past
// 30 days would be read as a unix timestamp, so they are clamped.
func expirationSeconds(ttl time.Duration) int32 {
	const maxRelativeExp = 30 * 24 * 60 * 60
	sec := int64(ttl / time.Second)
	if sec <= 0 {
		return 0
	}
	if sec > maxRelativeExp {
		return maxRelativeExp
	}
	return int32(sec)
}

// Ping checks if memcached is reachable. Used for health checks.
func (c *MemcachedCache) Ping() error {
	return c.client.Ping()
}

// Close closes the memcached client connections. Call during shutdown.
func (c *MemcachedCache) Close() error {
	return c.client.Close()
}
