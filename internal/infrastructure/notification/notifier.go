package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"crypto-pulse-service/internal/domain/entities"
	"crypto-pulse-service/internal/domain/interfaces"
	"crypto-pulse-service/internal/infrastructure/logging"
	"crypto-pulse-service/internal/infrastructure/metrics"
)

var (
	_ interfaces.Notifier = (*LogNotifier)(nil)
	_ interfaces.Notifier = (*RedisNotifier)(nil)
	_ interfaces.Notifier = (*MultiNotifier)(nil)
)

// LogNotifier writes every triggered alert to the alerts log
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (LogNotifier) Notify(ctx context.Context, n entities.Notification) error {
	logging.Alerts().Info(ctx, n.Message(), logging.NewFieldBuilder().
		WithAlert(n.AlertID, n.CoinID, n.TargetPrice, n.CurrentPrice).
		WithCustomField(logging.FieldCondition, string(n.Condition)).
		Build())
	metrics.RecordNotification("log", nil)
	return nil
}

// publisher es el subconjunto de *redis.Client que usa el notifier
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisNotifier publica la notificación como JSON en un canal pub/sub
type RedisNotifier struct {
	client  publisher
	channel string
}

func NewRedisNotifier(client publisher, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

func (r *RedisNotifier) Notify(ctx context.Context, n entities.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding notification %s: %w", n.AlertID, err)
	}

	err = r.client.Publish(ctx, r.channel, payload).Err()
	metrics.RecordNotification("redis", err)
	if err != nil {
		return fmt.Errorf("publishing notification %s to %s: %w", n.AlertID, r.channel, err)
	}
	return nil
}

// MultiNotifier fans a notification out to every sink. A failing sink does
// not stop the others; all errors are joined.
type MultiNotifier struct {
	mu    sync.RWMutex
	sinks []interfaces.Notifier
}

func NewMultiNotifier(sinks ...interfaces.Notifier) *MultiNotifier {
	m := &MultiNotifier{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Add registers another sink, e.g. the websocket hub once it is running
func (m *MultiNotifier) Add(sink interfaces.Notifier) {
	if sink == nil {
		return
	}
	m.mu.Lock()
	m.sinks = append(m.sinks, sink)
	m.mu.Unlock()
}

func (m *MultiNotifier) Notify(ctx context.Context, n entities.Notification) error {
	m.mu.RLock()
	sinks := append([]interfaces.Notifier(nil), m.sinks...)
	m.mu.RUnlock()

	var errs []error
	for _, sink := range sinks {
		if err := sink.Notify(ctx, n); err != nil {
			logging.Alerts().WarnWithError(ctx, "Notification sink failed", err, logging.Fields{
				logging.FieldAlertID: n.AlertID,
			})
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
