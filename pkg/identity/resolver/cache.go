package resolver

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// NameCache memoizes identifier-to-player resolutions so repeated lookups of
// the same (source, external_id) skip the cascade. Entries are only ever
// invalidated explicitly; the engine invalidates after any write that could
// change a mapping.
type NameCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, playerID string)
	Invalidate(ctx context.Context, key string)
}

// memoryCache is a process-local NameCache.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryCache creates an in-process cache.
func NewMemoryCache() NameCache {
	return &memoryCache{entries: make(map[string]string)}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.entries[key]
	return id, ok
}

func (c *memoryCache) Set(_ context.Context, key, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = playerID
}

func (c *memoryCache) Invalidate(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// redisCache is a NameCache shared across processes via Redis. Cache
// failures degrade to misses; the store stays authoritative.
type redisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisCacheConfig configures the shared cache.
type RedisCacheConfig struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password,omitempty" json:"-"`
	DB       int           `yaml:"db" json:"db"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}

// NewRedisCache creates a Redis-backed cache.
func NewRedisCache(cfg RedisCacheConfig) NameCache {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = time.Hour
	}
	return &redisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		prefix: "playerlink:resolve:",
		ttl:    ttl,
	}
}

type cachedResolution struct {
	PlayerID string `json:"player_id"`
}

func (c *redisCache) Get(ctx context.Context, key string) (string, bool) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return "", false
	}
	var entry cachedResolution
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", false
	}
	return entry.PlayerID, entry.PlayerID != ""
}

func (c *redisCache) Set(ctx context.Context, key, playerID string) {
	data, err := json.Marshal(cachedResolution{PlayerID: playerID})
	if err != nil {
		return
	}
	c.client.Set(ctx, c.prefix+key, data, c.ttl)
}

func (c *redisCache) Invalidate(ctx context.Context, key string) {
	c.client.Del(ctx, c.prefix+key)
}

// nopCache disables caching.
type nopCache struct{}

// NewNopCache returns a cache that never hits.
func NewNopCache() NameCache { return nopCache{} }

func (nopCache) Get(context.Context, string) (string, bool) { return "", false }
func (nopCache) Set(context.Context, string, string)        {}
func (nopCache) Invalidate(context.Context, string)         {}
