package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"crypto-pulse-service/internal/domain/interfaces"
	"crypto-pulse-service/internal/infrastructure/logging"
	"crypto-pulse-service/internal/infrastructure/repositories/store"
)

// Claves bajo las que se persiste el estado del cliente
const (
	WatchlistKey = "pulsetrack-watchlist"
	AlertsKey    = "crypto-price-alerts"
	ThemeKey     = "pulsetrack-theme"
)

// loadJSON decodes key into v. ok is false when the key is missing or its
// value is corrupt; callers then fall back to their empty state.
func loadJSON(ctx context.Context, kv interfaces.KeyValueStore, key string, v any) (ok bool, err error) {
	raw, err := kv.Load(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, v); err != nil {
		logging.Warn(ctx, "Discarding corrupt client state", logging.Fields{
			"key":   key,
			"error": err.Error(),
		})
		return false, nil
	}
	return true, nil
}

func saveJSON(ctx context.Context, kv interfaces.KeyValueStore, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := kv.Save(ctx, key, raw); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}
