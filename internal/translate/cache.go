package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheTTL = 24 * time.Hour

// Cache memoizes translation results in Redis. Institutional phrasing
// repeats heavily across sessions, so hits save a full provider round trip.
type Cache struct {
	client *redis.Client
}

// NewCache creates a Redis-backed translation cache.
func NewCache(client *redis.Client) *Cache {
	if client == nil {
		panic("translate: redis client cannot be nil")
	}
	return &Cache{client: client}
}

// Get returns the cached translation, if any. Cache errors are treated as
// misses.
func (c *Cache) Get(ctx context.Context, toLang, text string) (string, bool) {
	val, err := c.client.Get(ctx, cacheKey(toLang, text)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Put stores a translation result. Failures are ignored; the cache is an
// optimization, not a source of truth.
func (c *Cache) Put(ctx context.Context, toLang, text, translated string) {
	_ = c.client.Set(ctx, cacheKey(toLang, text), translated, cacheTTL).Err()
}

func cacheKey(toLang, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("translate:%s:%s", toLang, hex.EncodeToString(sum[:]))
}
