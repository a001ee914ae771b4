package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"crypto-pulse-service/internal/domain/entities"
)

func TestAlertWatcher_TriggersOnNewPrices(t *testing.T) {
	market := &MockMarketData{}
	market.On("TopCoins", 1, 50, false).
		Return(`[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":51000},{"id":"ethereum","current_price":2500}]`, nil)
	svc := newTestMarketService(t, market, &MockNews{})

	notified := make(chan entities.Notification, 1)
	notifier := &MockNotifier{}
	notifier.On("Notify", mock.Anything).Run(func(args mock.Arguments) {
		notified <- args.Get(0).(entities.Notification)
	}).Return(nil).Once()

	alertsSvc, _ := newTestAlertService(notifier)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := alertsSvc.Add(ctx, bitcoinAbove(50000))
	require.NoError(t, err)
	_, err = alertsSvc.Add(ctx, AddAlertInput{
		CoinID: "ethereum", CoinName: "Ethereum", CoinSymbol: "eth",
		TargetPrice: 2000, Condition: entities.ConditionBelow,
	})
	require.NoError(t, err)

	watcher := NewAlertWatcher(svc, alertsSvc, 50)
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	select {
	case n := <-notified:
		assert.Equal(t, "bitcoin", n.CoinID)
		assert.Equal(t, 51000.0, n.CurrentPrice)
	case <-time.After(2 * time.Second):
		t.Fatal("la alerta de bitcoin no se disparó")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("el watcher no terminó tras cancelar el contexto")
	}

	active, err := alertsSvc.Active(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "ethereum", active[0].CoinID)
	notifier.AssertExpectations(t)
}
