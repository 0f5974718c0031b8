package cache

import (
	"context"
	"time"
)

// Cache 缓存接口
type Cache interface {
	// Get 获取缓存值
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set 设置缓存值
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error

	// SetNX 仅当键不存在时设置，返回是否设置成功（幂等键用）
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)

	// Delete 删除缓存
	Delete(ctx context.Context, key string) error

	// Exists 检查键是否存在
	Exists(ctx context.Context, key string) bool

	// Close 关闭缓存连接
	Close() error
}

// Config 缓存配置
type Config struct {
	// 缓存类型: "local" 或 "redis"
	Type string `json:"type" env:"CACHE_TYPE" default:"local"`

	Redis RedisConfig `json:"redis"`
	Local LocalConfig `json:"local"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `json:"addr" env:"REDIS_ADDR" default:"localhost:6379"`
	Password string `json:"password" env:"REDIS_PASSWORD"`
	DB       int    `json:"db" env:"REDIS_DB" default:"0"`
	PoolSize int    `json:"pool_size" env:"REDIS_POOL_SIZE" default:"10"`
}

// LocalConfig 本地缓存配置
type LocalConfig struct {
	DefaultExpiration time.Duration `json:"default_expiration" default:"5m"`
	CleanupInterval   time.Duration `json:"cleanup_interval" default:"10m"`
}
