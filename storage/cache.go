package storage

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"promptly/domain"
)

const sharedFetchTimeout = 45 * time.Second

// Source is implemented by every prompt backend.
type Source interface {
	FetchPrompts(ctx context.Context) ([]domain.Prompt, error)
	// Key identifies the data set for caching.
	Key() string
}

// Cache wraps a Source with an in-process cache and, when configured, a
// shared Redis cache. Only successful loads are cached.
type Cache struct {
	base  Source
	redis *redis.Client
	local *gocache.Cache
	ttl   time.Duration
	group singleflight.Group
}

// NewCache creates a caching wrapper. A nil client keeps only the local
// layer; a zero TTL disables caching entirely.
func NewCache(base Source, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base source is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	c := &Cache{base: base, redis: client, ttl: ttl}
	if ttl > 0 {
		c.local = gocache.New(ttl, 2*ttl)
	}
	return c
}

func (c *Cache) Key() string {
	return c.base.Key()
}

func (c *Cache) FetchPrompts(ctx context.Context) ([]domain.Prompt, error) {
	key := promptsCacheKey(c.base.Key())
	if prompts, ok := c.loadLocal(key); ok {
		return prompts, nil
	}
	if prompts, ok := c.loadRedis(ctx, key); ok {
		c.storeLocal(key, prompts)
		return clonePrompts(prompts), nil
	}

	// The shared fetch outlives any single caller; each caller stops
	// waiting when its own context ends.
	ch := c.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		prompts, err := c.base.FetchPrompts(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.storeLocal(key, prompts)
		c.storeRedis(fetchCtx, key, prompts)
		return prompts, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return clonePrompts(res.Val.([]domain.Prompt)), nil
	}
}

// Invalidate drops the cached data set from both layers.
func (c *Cache) Invalidate(ctx context.Context) {
	key := promptsCacheKey(c.base.Key())
	if c.local != nil {
		c.local.Delete(key)
	}
	if c.redis != nil {
		_ = c.redis.Del(ctx, key).Err()
	}
}

func (c *Cache) loadLocal(key string) ([]domain.Prompt, bool) {
	if c.local == nil {
		return nil, false
	}
	v, ok := c.local.Get(key)
	if !ok {
		return nil, false
	}
	prompts, ok := v.([]domain.Prompt)
	if !ok {
		return nil, false
	}
	return clonePrompts(prompts), true
}

func (c *Cache) storeLocal(key string, prompts []domain.Prompt) {
	if c.local == nil {
		return
	}
	c.local.SetDefault(key, clonePrompts(prompts))
}

func (c *Cache) loadRedis(ctx context.Context, key string) ([]domain.Prompt, bool) {
	if c.redis == nil || c.ttl == 0 {
		return nil, false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		// Misses and outages both fall back to the backing source.
		return nil, false
	}
	var prompts []domain.Prompt
	if err := sonic.Unmarshal(data, &prompts); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return prompts, true
}

func (c *Cache) storeRedis(ctx context.Context, key string, prompts []domain.Prompt) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(prompts)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func promptsCacheKey(sourceKey string) string {
	return "prompts:" + sourceKey
}

func clonePrompts(prompts []domain.Prompt) []domain.Prompt {
	out := make([]domain.Prompt, len(prompts))
	copy(out, prompts)
	return out
}
