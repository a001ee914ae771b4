package interfaces

import "context"

// KeyValueStore persiste el estado del cliente (watchlist, alertas, tema) por clave.
// Load devuelve store.ErrNotFound cuando la clave no existe.
type KeyValueStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
