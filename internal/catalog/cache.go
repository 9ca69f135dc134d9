package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache guarda respuestas del catálogo por clave. Un error de cache nunca
// debe romper la request: el cliente sigue contra el upstream.
type Cache interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte, ttl time.Duration) error
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	now   func() time.Time
}

func NewMemoryCache() Cache {
	return &memoryCache{
		items: make(map[string]memoryEntry),
		now:   time.Now,
	}
}

func (c *memoryCache) Get(key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	if c.now().After(entry.expiresAt) {
		delete(c.items, key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (c *memoryCache) Set(key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if strings.TrimSpace(key) == "" || ttl <= 0 {
		return nil
	}
	c.items[key] = memoryEntry{value: value, expiresAt: c.now().Add(ttl)}
	return nil
}

type redisKVClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type redisCache struct {
	client redisKVClient
	prefix string
}

func NewRedisCache(client *redis.Client) Cache {
	if client == nil {
		return nil
	}
	return &redisCache{
		client: client,
		prefix: "catalog:",
	}
}

func (c *redisCache) Get(key string) ([]byte, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

func (c *redisCache) Set(key string, value []byte, ttl time.Duration) error {
	key = strings.TrimSpace(key)
	if key == "" || ttl <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}
