package cache

import (
	"context"
	"fmt"
	"time"

	"crypto-pulse-service/internal/domain/interfaces"
	"crypto-pulse-service/internal/infrastructure/config"
	"crypto-pulse-service/internal/infrastructure/logging"

	"github.com/redis/go-redis/v9"
)

// CacheType represents the type of cache implementation
type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

// Config holds cache backend options
type Config struct {
	Type       CacheType
	MaxEntries int
	RedisAddr  string
	RedisDB    int
	Password   string
}

// ConfigFrom builds the backend options from the application config
func ConfigFrom(cacheCfg config.CacheConfig, redisCfg config.RedisConfig) Config {
	return Config{
		Type:       CacheType(cacheCfg.Backend),
		MaxEntries: cacheCfg.MaxEntries,
		RedisAddr:  redisCfg.Addr,
		RedisDB:    redisCfg.DB,
		Password:   redisCfg.Password,
	}
}

// Factory provides methods to create cache instances
type Factory struct {
	pingTimeout time.Duration
}

// NewFactory creates a new cache factory
func NewFactory() *Factory {
	return &Factory{pingTimeout: 5 * time.Second}
}

// CreateCache creates a cache backend; Redis is pinged before being returned
func (f *Factory) CreateCache(ctx context.Context, cfg Config) (interfaces.Cache, error) {
	switch cfg.Type {
	case CacheTypeMemory:
		logging.Info(ctx, "Creating memory cache", logging.Fields{
			"type":        "memory",
			"max_entries": cfg.MaxEntries,
		})
		return NewMemoryCache(cfg.MaxEntries), nil

	case CacheTypeRedis:
		logging.Info(ctx, "Creating Redis cache", logging.Fields{
			"type":     "redis",
			"addr":     cfg.RedisAddr,
			"database": cfg.RedisDB,
		})
		return f.createRedisCache(ctx, cfg)

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

func (f *Factory) createRedisCache(ctx context.Context, cfg Config) (interfaces.Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.Password,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, f.pingTimeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}

	logging.Info(ctx, "Redis connection established successfully", logging.Fields{
		"addr":     cfg.RedisAddr,
		"database": cfg.RedisDB,
	})
	return NewRedisCacheWithClient(rdb), nil
}
