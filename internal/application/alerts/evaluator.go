package alerts

import (
	"context"
	"time"

	"crypto-pulse-service/internal/domain/entities"
	"crypto-pulse-service/internal/infrastructure/logging"
	"crypto-pulse-service/internal/infrastructure/metrics"
)

// Evaluator checks price alerts against a price snapshot.
//
// Each alert fires at most once: already triggered alerts and coins without
// a known price are skipped. Alerts are never removed or reordered.
//
// Evaluator keeps no alert state, so at-most-once only holds if callers
// persist the returned list and serialize load, Evaluate and save for the
// same alerts. AlertService.Check does both.
type Evaluator struct {
	now func() time.Time
}

func NewEvaluator() *Evaluator {
	return &Evaluator{now: time.Now}
}

// Evaluate returns a copy of alerts with newly crossed ones flipped to
// triggered, plus one notification per alert flipped by this call.
func (e *Evaluator) Evaluate(ctx context.Context, alerts []entities.PriceAlert, prices entities.PriceSnapshot) ([]entities.PriceAlert, []entities.Notification) {
	updated := make([]entities.PriceAlert, len(alerts))
	copy(updated, alerts)

	var notifications []entities.Notification
	at := e.now()

	for i := range updated {
		alert := &updated[i]
		if alert.Triggered {
			continue
		}

		price, ok := prices[alert.CoinID]
		if !ok || price <= 0 {
			continue
		}
		if !alert.Crosses(price) {
			continue
		}

		if alert.MarkTriggered(price, at) {
			notifications = append(notifications, entities.NewNotification(*alert, price, at))
			metrics.RecordAlertTriggered(string(alert.Condition))
			logging.Alerts().AlertTriggered(ctx, alert.ID, alert.CoinID, alert.TargetPrice, price)
		}
	}

	return updated, notifications
}
