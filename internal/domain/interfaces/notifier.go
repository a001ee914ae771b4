package interfaces

import (
	"context"

	"crypto-pulse-service/internal/domain/entities"
)

// Notifier delivers a triggered alert to some sink
type Notifier interface {
	Notify(ctx context.Context, notification entities.Notification) error
}
