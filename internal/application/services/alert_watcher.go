package services

import (
	"context"
	"time"

	"crypto-pulse-service/internal/application/query"
	"crypto-pulse-service/internal/domain/entities"
	"crypto-pulse-service/internal/infrastructure/exchange/coingecko"
	"crypto-pulse-service/internal/infrastructure/logging"
)

// AlertWatcher keeps the top coins query alive and checks the stored
// alerts every time a new price page arrives.
type AlertWatcher struct {
	market  *MarketService
	alerts  *AlertService
	perPage int
	logger  logging.AlertLogger
}

func NewAlertWatcher(market *MarketService, alerts *AlertService, perPage int) *AlertWatcher {
	return &AlertWatcher{
		market:  market,
		alerts:  alerts,
		perPage: perPage,
		logger:  logging.Alerts(),
	}
}

// Run blocks until ctx is done or the coordinator closes
func (w *AlertWatcher) Run(ctx context.Context) error {
	sub, err := w.market.TopCoins(1, w.perPage, false)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	w.logger.Info(ctx, "Alert watcher started", logging.Fields{"per_page": w.perPage})

	var seen time.Time
	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Alert watcher stopped", nil)
			return nil
		case state, ok := <-sub.Updates():
			if !ok {
				return nil
			}
			if !state.HasData() || !state.LastUpdated.After(seen) {
				continue
			}
			seen = state.LastUpdated
			w.check(ctx, state)
		}
	}
}

func (w *AlertWatcher) check(ctx context.Context, state query.State) {
	coins, err := coingecko.DecodeMarkets(state.Data)
	if err != nil {
		w.logger.WarnWithError(ctx, "Skipping undecodable price page", err, nil)
		return
	}

	notifications, err := w.alerts.Check(ctx, entities.NewPriceSnapshot(coins))
	if err != nil {
		w.logger.ErrorWithError(ctx, "Alert check failed", err, nil)
		return
	}
	if len(notifications) > 0 {
		w.logger.Debug(ctx, "Alerts fired", logging.Fields{"count": len(notifications)})
	}
}
