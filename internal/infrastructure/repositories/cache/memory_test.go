package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemoryCache(maxEntries int) (*MemoryCache, *time.Time) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	c := NewMemoryCache(maxEntries)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestMemoryCache_SetGet(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"clave simple", "crypto:global", `{"data":{}}`},
		{"clave con parámetros", "crypto:chart:bitcoin:7", `{"prices":[[1,2]]}`},
		{"valor vacío", "crypto:empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestMemoryCache(10)
			ctx := context.Background()

			require.NoError(t, c.Set(ctx, tt.key, tt.value, time.Minute))
			got, err := c.Get(ctx, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestMemoryCache_GetMissing(t *testing.T) {
	c, _ := newTestMemoryCache(10)

	_, err := c.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.True(t, IsMiss(err))
}

func TestMemoryCache_LazyExpiration(t *testing.T) {
	c, now := newTestMemoryCache(10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	*now = now.Add(59 * time.Second)
	_, err := c.Get(ctx, "k")
	require.NoError(t, err)

	*now = now.Add(time.Second)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyExpired)
	assert.Equal(t, 0, c.Size(), "la clave vencida se elimina al leerla")
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestMemoryCache(2)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", "1", time.Minute))
	require.NoError(t, c.Set(ctx, "b", "2", time.Minute))
	_, err := c.Get(ctx, "a") // a pasa a ser la más reciente
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "c", "3", time.Minute))

	assert.Equal(t, 2, c.Size())
	_, err = c.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	_, err = c.Get(ctx, "a")
	assert.NoError(t, err)
}

func TestMemoryCache_Unbounded(t *testing.T) {
	c, _ := newTestMemoryCache(0)
	ctx := context.Background()

	for i := 0; i < 500; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("k%d", i), "v", time.Minute))
	}
	assert.Equal(t, 500, c.Size())
}

func TestMemoryCache_DeleteAndCleanup(t *testing.T) {
	c, now := newTestMemoryCache(10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", "v", time.Second))
	require.NoError(t, c.Set(ctx, "long", "v", time.Hour))
	require.NoError(t, c.Set(ctx, "gone", "v", time.Hour))
	require.NoError(t, c.Delete(ctx, "gone"))
	require.NoError(t, c.Delete(ctx, "never-existed"))

	*now = now.Add(2 * time.Second)
	assert.Equal(t, 1, c.Cleanup())
	assert.Equal(t, 1, c.Size())
}

func TestMemoryCache_Concurrency(t *testing.T) {
	c := NewMemoryCache(50)
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*200+i)%80)
				_ = c.Set(ctx, key, "v", time.Minute)
				_, _ = c.Get(ctx, key)
				if i%10 == 0 {
					_ = c.Delete(ctx, key)
				}
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Size(), 50)
}
