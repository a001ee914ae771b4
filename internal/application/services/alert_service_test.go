package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"crypto-pulse-service/internal/application/alerts"
	"crypto-pulse-service/internal/domain/entities"
	"crypto-pulse-service/internal/domain/interfaces"
	"crypto-pulse-service/internal/infrastructure/repositories/store"
)

// MockNotifier implementa interfaces.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n entities.Notification) error {
	return m.Called(n).Error(0)
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestAlertService(notifier interfaces.Notifier) (*AlertService, *store.MemoryStore) {
	kv := store.NewMemoryStore()
	svc := NewAlertService(kv, alerts.NewEvaluator(), notifier)
	svc.now = func() time.Time { return fixedNow }
	return svc, kv
}

func bitcoinAbove(target float64) AddAlertInput {
	return AddAlertInput{
		CoinID:      "bitcoin",
		CoinName:    "Bitcoin",
		CoinSymbol:  "btc",
		CoinImage:   "https://assets.coingecko.com/coins/images/1/large/bitcoin.png",
		TargetPrice: target,
		Condition:   entities.ConditionAbove,
	}
}

func TestAlertService_Add(t *testing.T) {
	svc, kv := newTestAlertService(nil)
	ctx := context.Background()

	alert, err := svc.Add(ctx, bitcoinAbove(50000))
	require.NoError(t, err)

	assert.Regexp(t, `^bitcoin-[0-9a-f-]{36}$`, alert.ID)
	assert.Equal(t, fixedNow, alert.CreatedAt)
	assert.False(t, alert.Triggered)

	raw, err := kv.Load(ctx, AlertsKey)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"coinId":"bitcoin"`)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, alert.ID, list[0].ID)
}

func TestAlertService_AddInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input AddAlertInput
		cause error
	}{
		{"sin moneda", AddAlertInput{TargetPrice: 1, Condition: entities.ConditionAbove}, entities.ErrMissingCoin},
		{"precio cero", AddAlertInput{CoinID: "bitcoin", Condition: entities.ConditionBelow}, entities.ErrInvalidTargetPrice},
		{"precio negativo", AddAlertInput{CoinID: "bitcoin", TargetPrice: -5, Condition: entities.ConditionBelow}, entities.ErrInvalidTargetPrice},
		{"condición desconocida", AddAlertInput{CoinID: "bitcoin", TargetPrice: 5, Condition: "sideways"}, entities.ErrInvalidCondition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestAlertService(nil)
			_, err := svc.Add(context.Background(), tt.input)
			assert.ErrorIs(t, err, ErrInvalidAlert)
			assert.ErrorIs(t, err, tt.cause)

			list, err := svc.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestAlertService_Remove(t *testing.T) {
	svc, _ := newTestAlertService(nil)
	ctx := context.Background()

	first, err := svc.Add(ctx, bitcoinAbove(50000))
	require.NoError(t, err)
	second, err := svc.Add(ctx, bitcoinAbove(60000))
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, first.ID))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)

	assert.ErrorIs(t, svc.Remove(ctx, first.ID), ErrAlertNotFound)
}

// escenario completo: 49000 no dispara, 51000 dispara, 52000 no repite
func TestAlertService_CheckBitcoinScenario(t *testing.T) {
	notifier := &MockNotifier{}
	notifier.On("Notify", mock.MatchedBy(func(n entities.Notification) bool {
		return n.CoinID == "bitcoin" && n.CurrentPrice == 51000
	})).Return(nil).Once()

	svc, _ := newTestAlertService(notifier)
	ctx := context.Background()

	alert, err := svc.Add(ctx, bitcoinAbove(50000))
	require.NoError(t, err)

	fired, err := svc.Check(ctx, entities.PriceSnapshot{"bitcoin": 49000})
	require.NoError(t, err)
	assert.Empty(t, fired)

	fired, err = svc.Check(ctx, entities.PriceSnapshot{"bitcoin": 51000})
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, alert.ID, fired[0].AlertID)
	assert.Equal(t, "Bitcoin (BTC) is now above $50,000 at $51,000", fired[0].Message())

	fired, err = svc.Check(ctx, entities.PriceSnapshot{"bitcoin": 52000})
	require.NoError(t, err)
	assert.Empty(t, fired)

	triggered, err := svc.Triggered(ctx)
	require.NoError(t, err)
	require.Len(t, triggered, 1)
	assert.Equal(t, 51000.0, triggered[0].TriggeredPrice)

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	notifier.AssertExpectations(t)
}

func TestAlertService_CheckNotifierErrorKeepsState(t *testing.T) {
	notifier := &MockNotifier{}
	notifier.On("Notify", mock.Anything).Return(errors.New("sink down"))

	svc, _ := newTestAlertService(notifier)
	ctx := context.Background()

	_, err := svc.Add(ctx, AddAlertInput{
		CoinID: "ethereum", CoinName: "Ethereum", CoinSymbol: "eth",
		TargetPrice: 3000, Condition: entities.ConditionBelow,
	})
	require.NoError(t, err)

	fired, err := svc.Check(ctx, entities.PriceSnapshot{"ethereum": 2999.5})
	require.NoError(t, err)
	assert.Len(t, fired, 1)

	triggered, err := svc.Triggered(ctx)
	require.NoError(t, err)
	assert.Len(t, triggered, 1)
}

func TestAlertService_ClearTriggered(t *testing.T) {
	svc, _ := newTestAlertService(nil)
	ctx := context.Background()

	_, err := svc.Add(ctx, bitcoinAbove(50000))
	require.NoError(t, err)
	pending, err := svc.Add(ctx, bitcoinAbove(90000))
	require.NoError(t, err)

	_, err = svc.Check(ctx, entities.PriceSnapshot{"bitcoin": 60000})
	require.NoError(t, err)

	removed, err := svc.ClearTriggered(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pending.ID, list[0].ID)

	removed, err = svc.ClearTriggered(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestAlertService_CorruptStateIsEmpty(t *testing.T) {
	svc, kv := newTestAlertService(nil)
	ctx := context.Background()
	require.NoError(t, kv.Save(ctx, AlertsKey, []byte(`{not json`)))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAlertService_ClosedStore(t *testing.T) {
	svc, kv := newTestAlertService(nil)
	require.NoError(t, kv.Close())

	_, err := svc.List(context.Background())
	assert.ErrorIs(t, err, store.ErrClosed)
}

// Check y Add concurrentes no pierden alertas ni disparan dos veces
func TestAlertService_Concurrency(t *testing.T) {
	notifier := &MockNotifier{}
	notifier.On("Notify", mock.Anything).Return(nil)

	svc, _ := newTestAlertService(notifier)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.Add(ctx, bitcoinAbove(50000))
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := svc.Check(ctx, entities.PriceSnapshot{"bitcoin": 55000})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	_, err := svc.Check(ctx, entities.PriceSnapshot{"bitcoin": 55000})
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 10)
	for _, a := range list {
		assert.True(t, a.Triggered)
	}
	notifier.AssertNumberOfCalls(t, "Notify", 10)
}
