package cache

import (
	"context"
	"testing"
	"time"

	"crypto-pulse-service/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_CreateCache(t *testing.T) {
	f := NewFactory()
	f.pingTimeout = 200 * time.Millisecond

	t.Run("memoria", func(t *testing.T) {
		c, err := f.CreateCache(context.Background(), Config{Type: CacheTypeMemory, MaxEntries: 5})
		require.NoError(t, err)
		assert.IsType(t, &MemoryCache{}, c)
	})

	t.Run("tipo desconocido", func(t *testing.T) {
		_, err := f.CreateCache(context.Background(), Config{Type: "memcached"})
		assert.EqualError(t, err, "unsupported cache type: memcached")
	})

	t.Run("redis inalcanzable falla en el ping", func(t *testing.T) {
		_, err := f.CreateCache(context.Background(), Config{Type: CacheTypeRedis, RedisAddr: "127.0.0.1:1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect to Redis at 127.0.0.1:1")
	})
}

func TestConfigFrom(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Cache.Backend = "redis"
	cfg.Redis.Addr = "redis:6379"

	got := ConfigFrom(cfg.Cache, cfg.Redis)
	assert.Equal(t, Config{Type: CacheTypeRedis, MaxEntries: 1000, RedisAddr: "redis:6379"}, got)
}
