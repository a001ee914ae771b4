package cache

import (
	"context"
	"math"
	"time"

	"crypto-pulse-service/internal/infrastructure/metrics"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheItem struct {
	value     string
	expiresAt time.Time
}

// MemoryCache es un backend en memoria acotado por LRU; las entradas
// vencidas se eliminan de forma perezosa al leerlas o en Cleanup.
type MemoryCache struct {
	items *lru.Cache[string, cacheItem]
	now   func() time.Time
}

// NewMemoryCache crea un cache en memoria con a lo sumo maxEntries claves.
// maxEntries <= 0 desactiva el límite.
func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = math.MaxInt32
	}

	items, err := lru.NewWithEvict[string, cacheItem](maxEntries, func(string, cacheItem) {
		metrics.RecordCacheOperation("evict", "success")
	})
	if err != nil {
		// sólo falla con tamaño no positivo
		panic(err)
	}

	return &MemoryCache{items: items, now: time.Now}
}

// Get obtiene un valor del cache
func (c *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	item, ok := c.items.Get(key)
	if !ok {
		return "", ErrKeyNotFound
	}

	if !c.now().Before(item.expiresAt) {
		c.items.Remove(key)
		return "", ErrKeyExpired
	}

	return item.value, nil
}

// Set almacena un valor con TTL; la clave menos usada se desaloja al superar el límite
func (c *MemoryCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	c.items.Add(key, cacheItem{value: value, expiresAt: c.now().Add(ttl)})
	metrics.UpdateCacheKeys(string(CacheTypeMemory), c.items.Len())
	return nil
}

// Delete elimina un valor del cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.items.Remove(key)
	return nil
}

// Size retorna el número de elementos, incluidos los vencidos aún no desalojados
func (c *MemoryCache) Size() int {
	return c.items.Len()
}

// Cleanup elimina todos los elementos vencidos y devuelve cuántos quitó
func (c *MemoryCache) Cleanup() int {
	now := c.now()
	removed := 0
	for _, key := range c.items.Keys() {
		if item, ok := c.items.Peek(key); ok && !now.Before(item.expiresAt) {
			c.items.Remove(key)
			removed++
		}
	}
	metrics.UpdateCacheKeys(string(CacheTypeMemory), c.items.Len())
	return removed
}
