package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// goCache 基于 patrickmn/go-cache 的进程内缓存
type goCache struct {
	c *gocache.Cache
}

// NewGoCache 创建本地缓存
func NewGoCache(config LocalConfig) Cache {
	exp := config.DefaultExpiration
	if exp <= 0 {
		exp = 5 * time.Minute
	}
	cleanup := config.CleanupInterval
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	return &goCache{c: gocache.New(exp, cleanup)}
}

func (g *goCache) Get(ctx context.Context, key string) (interface{}, bool) {
	return g.c.Get(key)
}

func (g *goCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	g.c.Set(key, value, expiration)
	return nil
}

func (g *goCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	if err := g.c.Add(key, value, expiration); err != nil {
		return false, nil
	}
	return true, nil
}

func (g *goCache) Delete(ctx context.Context, key string) error {
	g.c.Delete(key)
	return nil
}

func (g *goCache) Exists(ctx context.Context, key string) bool {
	_, ok := g.c.Get(key)
	return ok
}

func (g *goCache) Close() error {
	g.c.Flush()
	return nil
}
