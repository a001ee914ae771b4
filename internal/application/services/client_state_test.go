package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-pulse-service/internal/domain/entities"
	"crypto-pulse-service/internal/infrastructure/repositories/store"
)

// ===== WATCHLIST =====

func TestWatchlistService(t *testing.T) {
	kv := store.NewMemoryStore()
	svc := NewWatchlistService(kv)
	ctx := context.Background()

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = svc.Add(ctx, "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, []string{"bitcoin"}, list)

	// sin duplicados
	list, err = svc.Add(ctx, " bitcoin ")
	require.NoError(t, err)
	assert.Equal(t, []string{"bitcoin"}, list)

	list, err = svc.Add(ctx, "solana")
	require.NoError(t, err)
	assert.Equal(t, []string{"bitcoin", "solana"}, list)

	ok, err := svc.Contains(ctx, "solana")
	require.NoError(t, err)
	assert.True(t, ok)

	list, err = svc.Toggle(ctx, "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, []string{"solana"}, list)

	list, err = svc.Toggle(ctx, "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, []string{"solana", "bitcoin"}, list)

	list, err = svc.Remove(ctx, "solana")
	require.NoError(t, err)
	assert.Equal(t, []string{"bitcoin"}, list)

	// persiste como arreglo JSON
	raw, err := kv.Load(ctx, WatchlistKey)
	require.NoError(t, err)
	assert.JSONEq(t, `["bitcoin"]`, string(raw))

	_, err = svc.Add(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyCoinID)
}

func TestWatchlistService_CorruptState(t *testing.T) {
	kv := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, kv.Save(ctx, WatchlistKey, []byte(`{"bitcoin":true}`)))

	svc := NewWatchlistService(kv)
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = svc.Add(ctx, "ethereum")
	require.NoError(t, err)
	assert.Equal(t, []string{"ethereum"}, list)
}

// ===== TEMA =====

func TestThemeService(t *testing.T) {
	kv := store.NewMemoryStore()
	svc := NewThemeService(kv)
	ctx := context.Background()

	theme, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.ThemeLight, theme)

	theme, err = svc.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.ThemeDark, theme)

	theme, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.ThemeDark, theme)

	theme, err = svc.Set(ctx, "LIGHT")
	require.NoError(t, err)
	assert.Equal(t, entities.ThemeLight, theme)

	_, err = svc.Set(ctx, "sepia")
	assert.ErrorIs(t, err, entities.ErrInvalidTheme)

	theme, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.ThemeLight, theme)
}

func TestThemeService_UnknownValueIsLight(t *testing.T) {
	kv := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, kv.Save(ctx, ThemeKey, []byte(`"neon"`)))

	theme, err := NewThemeService(kv).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.ThemeLight, theme)
}
