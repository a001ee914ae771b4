package store

import (
	"context"
	"fmt"
	"strings"

	"crypto-pulse-service/internal/domain/interfaces"
	"crypto-pulse-service/internal/infrastructure/config"
	"crypto-pulse-service/internal/infrastructure/logging"

	"github.com/redis/go-redis/v9"
)

// New opens the backend selected by store.backend
func New(ctx context.Context, cfg config.StoreConfig, redisCfg config.RedisConfig) (interfaces.KeyValueStore, error) {
	backend := strings.ToLower(cfg.Backend)
	logging.Info(ctx, "Opening client state store", logging.Fields{"backend": backend})

	switch backend {
	case "memory":
		return NewMemoryStore(), nil
	case "bolt":
		return NewBoltStore(cfg.Path)
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to Redis at %s: %w", redisCfg.Addr, err)
		}
		return NewRedisStore(client, cfg.RedisPrefix), nil
	case "postgres":
		return NewPostgresStore(ctx, cfg.Postgres)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
	}
}
