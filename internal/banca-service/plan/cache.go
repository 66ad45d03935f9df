package plan

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// FallbackCache guarda o id do plano de fallback resolvido por nome.
type FallbackCache interface {
	Get(ctx context.Context) (id string, ok bool)
	Set(ctx context.Context, id string)
	Invalidate(ctx context.Context)
}

// MemoryCache mantém o id em memória por um TTL. ttl <= 0 = nunca expira.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	id      string
	expires time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, now: time.Now}
}

func (c *MemoryCache) Get(context.Context) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.id == "" {
		return "", false
	}
	if c.ttl > 0 && !c.now().Before(c.expires) {
		c.id = ""
		return "", false
	}
	return c.id, true
}

func (c *MemoryCache) Set(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = id
	c.expires = c.now().Add(c.ttl)
}

func (c *MemoryCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = ""
}

// RedisCache compartilha o id entre instâncias da API.
// Falhas do Redis são tratadas como cache miss.
type RedisCache struct {
	Client *redis.Client
	Key    string
	TTL    time.Duration
}

func NewRedisCache(c *redis.Client, planName string, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, Key: "plans:fallback:" + planName, TTL: ttl}
}

func (r *RedisCache) Get(ctx context.Context) (string, bool) {
	id, err := r.Client.Get(ctx, r.Key).Result()
	if err != nil || id == "" { // inclui redis.Nil
		return "", false
	}
	return id, true
}

func (r *RedisCache) Set(ctx context.Context, id string) {
	_ = r.Client.Set(ctx, r.Key, id, r.TTL).Err()
}

func (r *RedisCache) Invalidate(ctx context.Context) {
	_ = r.Client.Del(ctx, r.Key).Err()
}
