package interfaces

import (
	"context"
	"time"
)

// Cache es el backend clave/valor de la caché de respuestas (memoria o Redis)
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
