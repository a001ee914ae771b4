package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"crypto-pulse-service/internal/domain/interfaces"
	"crypto-pulse-service/internal/infrastructure/logging"
	"crypto-pulse-service/internal/infrastructure/metrics"
)

// DefaultResponseTTL is how long an upstream payload is served from cache
const DefaultResponseTTL = 60 * time.Second

// envelope es lo que se guarda en el backend
type envelope struct {
	Payload   json.RawMessage `json:"payload"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// ResponseCache guarda payloads JSON del upstream junto con el momento en
// que se obtuvieron. Una entrada sólo se sirve mientras now-fetchedAt < ttl;
// errores del backend y entradas corruptas cuentan como miss.
type ResponseCache struct {
	backend interfaces.Cache
	ttl     time.Duration
	now     func() time.Time
}

// NewResponseCache creates a response cache over any backend
func NewResponseCache(backend interfaces.Cache, ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultResponseTTL
	}
	return &ResponseCache{backend: backend, ttl: ttl, now: time.Now}
}

// TTL returns the freshness window
func (rc *ResponseCache) TTL() time.Duration {
	return rc.ttl
}

// Get returns the payload stored under key while it is still fresh
func (rc *ResponseCache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	raw, err := rc.backend.Get(ctx, key)
	if err != nil {
		if IsMiss(err) {
			metrics.RecordCacheOperation("get", "miss")
			logging.Cache().Miss(ctx, key, logging.CacheOpGet)
		} else {
			metrics.RecordCacheOperation("get", "error")
			logging.Cache().CacheError(ctx, logging.CacheOpGet, key, err)
		}
		return nil, false
	}

	var entry envelope
	if err := json.Unmarshal([]byte(raw), &entry); err != nil || len(entry.Payload) == 0 {
		if err == nil {
			err = errors.New("empty payload")
		}
		metrics.RecordCacheOperation("get", "error")
		logging.Cache().CacheError(ctx, logging.CacheOpGet, key, fmt.Errorf("corrupt cache entry: %w", err))
		rc.evict(ctx, key)
		return nil, false
	}

	if rc.now().Sub(entry.FetchedAt) >= rc.ttl {
		metrics.RecordCacheOperation("get", "expired")
		logging.Cache().Miss(ctx, key, logging.CacheOpGet)
		rc.evict(ctx, key)
		return nil, false
	}

	metrics.RecordCacheOperation("get", "hit")
	logging.Cache().Hit(ctx, key, logging.CacheOpGet)
	return entry.Payload, true
}

// Set stores payload under key stamped with the current time
func (rc *ResponseCache) Set(ctx context.Context, key string, payload json.RawMessage) error {
	data, err := json.Marshal(envelope{Payload: payload, FetchedAt: rc.now()})
	if err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", key, err)
	}

	if err := rc.backend.Set(ctx, key, string(data), rc.ttl); err != nil {
		metrics.RecordCacheOperation("set", "error")
		logging.Cache().CacheError(ctx, logging.CacheOpSet, key, err)
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}

	metrics.RecordCacheOperation("set", "success")
	logging.Cache().Set(ctx, key, rc.ttl.Seconds())
	return nil
}

func (rc *ResponseCache) evict(ctx context.Context, key string) {
	if err := rc.backend.Delete(ctx, key); err != nil {
		logging.Cache().CacheError(ctx, logging.CacheOpDelete, key, err)
		return
	}
	logging.Cache().Delete(ctx, key)
}
