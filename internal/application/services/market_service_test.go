package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"crypto-pulse-service/internal/application/query"
	"crypto-pulse-service/internal/domain/entities"
	"crypto-pulse-service/internal/infrastructure/exchange/coingecko"
)

// MockMarketData implementa interfaces.MarketDataProvider con testify/mock
type MockMarketData struct {
	mock.Mock
}

func (m *MockMarketData) raw(args mock.Arguments) (json.RawMessage, error) {
	if v := args.Get(0); v != nil {
		return json.RawMessage(v.(string)), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMarketData) TopCoins(ctx context.Context, page, perPage int, sparkline bool) (json.RawMessage, error) {
	return m.raw(m.Called(page, perPage, sparkline))
}

func (m *MockMarketData) GlobalData(ctx context.Context) (json.RawMessage, error) {
	return m.raw(m.Called())
}

func (m *MockMarketData) CoinChart(ctx context.Context, coinID string, days string) (json.RawMessage, error) {
	return m.raw(m.Called(coinID, days))
}

func (m *MockMarketData) TrendingCoins(ctx context.Context) (json.RawMessage, error) {
	return m.raw(m.Called())
}

func (m *MockMarketData) SearchCoins(ctx context.Context, q string) (json.RawMessage, error) {
	return m.raw(m.Called(q))
}

func (m *MockMarketData) CoinDetails(ctx context.Context, coinID string) (json.RawMessage, error) {
	return m.raw(m.Called(coinID))
}

func (m *MockMarketData) ExchangeRates(ctx context.Context, coinID string) (json.RawMessage, error) {
	return m.raw(m.Called(coinID))
}

// MockNews implementa interfaces.NewsProvider
type MockNews struct {
	mock.Mock
}

func (m *MockNews) Latest(ctx context.Context, filter entities.NewsFilter, currencies string) ([]entities.NewsItem, error) {
	args := m.Called(filter, currencies)
	items, _ := args.Get(0).([]entities.NewsItem)
	return items, args.Error(1)
}

// Test Helper Functions
func newTestMarketService(t *testing.T, market *MockMarketData, news *MockNews) *MarketService {
	t.Helper()
	coordinator := query.NewCoordinator(query.Config{GCTime: time.Minute})
	t.Cleanup(coordinator.Close)

	svc := NewMarketService(coordinator, market, news)
	svc.options = func(resource string) query.Options {
		opts := OptionsFor(resource)
		opts.RefetchInterval = 0
		opts.RetryDelay = func(uint) time.Duration { return time.Millisecond }
		return opts
	}
	return svc
}

func settle(t *testing.T, sub *query.Subscription) query.State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	state, err := sub.WaitSettled(ctx)
	require.NoError(t, err)
	return state
}

// ===== OPCIONES POR RECURSO =====

func TestOptionsFor(t *testing.T) {
	tests := []struct {
		resource   string
		staleTime  time.Duration
		refetch    time.Duration
		retryCount int
	}{
		{ResourceCoins, 2 * time.Minute, 2 * time.Minute, 2},
		{ResourceGlobal, 2 * time.Minute, 2 * time.Minute, 2},
		{ResourceChart, 5 * time.Minute, 0, 3},
		{ResourceTrending, 5 * time.Minute, 0, 2},
		{ResourceSearch, 2 * time.Minute, 0, 0},
		{ResourceDetails, time.Minute, 0, 0},
		{ResourceRates, 2 * time.Minute, 0, 0},
		{ResourceNews, 5 * time.Minute, 5 * time.Minute, 0},
	}

	for _, tt := range tests {
		t.Run(tt.resource, func(t *testing.T) {
			opts := OptionsFor(tt.resource)
			assert.Equal(t, tt.staleTime, opts.StaleTime)
			assert.Equal(t, tt.refetch, opts.RefetchInterval)
			assert.Equal(t, tt.retryCount, opts.RetryCount)
		})
	}

	assert.Equal(t, 10*time.Minute, OptionsFor(ResourceChart).GCTime)
	assert.Equal(t, 2*time.Second, OptionsFor(ResourceChart).RetryDelay(0))
}

// ===== QUERIES DE MERCADO =====

func TestMarketService_TopCoinsNormalizesPaging(t *testing.T) {
	market := &MockMarketData{}
	market.On("TopCoins", 1, 100, false).Return(`[{"id":"bitcoin","current_price":65000}]`, nil).Once()
	svc := newTestMarketService(t, market, &MockNews{})

	sub, err := svc.TopCoins(0, 999, false)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	state := settle(t, sub)
	assert.Equal(t, "crypto:coins:1:100:false", sub.Key())
	assert.Equal(t, query.StatusSuccess, state.Status)
	assert.JSONEq(t, `[{"id":"bitcoin","current_price":65000}]`, string(state.Data))
	market.AssertExpectations(t)
}

func TestMarketService_SubscribersShareFetch(t *testing.T) {
	market := &MockMarketData{}
	market.On("GlobalData").Return(`{"data":{"active_cryptocurrencies":1}}`, nil).Once()
	svc := newTestMarketService(t, market, &MockNews{})

	subs := make([]*query.Subscription, 5)
	for i := range subs {
		sub, err := svc.Global()
		require.NoError(t, err)
		defer sub.Unsubscribe()
		subs[i] = sub
	}
	for _, sub := range subs {
		assert.Equal(t, query.StatusSuccess, settle(t, sub).Status)
	}
	market.AssertNumberOfCalls(t, "GlobalData", 1)
}

func TestMarketService_Search(t *testing.T) {
	t.Run("un carácter no consulta y queda idle", func(t *testing.T) {
		market := &MockMarketData{}
		svc := newTestMarketService(t, market, &MockNews{})

		sub, err := svc.Search("b")
		require.NoError(t, err)
		defer sub.Unsubscribe()

		state := sub.State()
		assert.Equal(t, query.StatusIdle, state.Status)
		assert.False(t, state.IsFetching)
		assert.ErrorIs(t, sub.Refetch(), query.ErrQueryDisabled)
		market.AssertNotCalled(t, "SearchCoins", mock.Anything)
	})

	t.Run("dos caracteres consultan y se ordenan por cercanía", func(t *testing.T) {
		market := &MockMarketData{}
		market.On("SearchCoins", "bt").Return(`[
			{"id":"bitcoin-cash","name":"Bitcoin Cash","symbol":"BCH","market_cap_rank":15},
			{"id":"bitcoin","name":"Bitcoin","symbol":"BTC","market_cap_rank":1},
			{"id":"bittensor","name":"Bittensor","symbol":"TAO","market_cap_rank":30}
		]`, nil).Once()
		svc := newTestMarketService(t, market, &MockNews{})

		sub, err := svc.Search("  BT ")
		require.NoError(t, err)
		defer sub.Unsubscribe()

		state := settle(t, sub)
		require.Equal(t, query.StatusSuccess, state.Status)
		assert.Equal(t, "crypto:search:bt", sub.Key())

		var coins []entities.SearchCoin
		require.NoError(t, json.Unmarshal(state.Data, &coins))
		require.NotEmpty(t, coins)
		assert.Equal(t, "bitcoin", coins[0].ID)
		market.AssertExpectations(t)
	})
}

func TestMarketService_ChartWithoutIDIsDisabled(t *testing.T) {
	market := &MockMarketData{}
	svc := newTestMarketService(t, market, &MockNews{})

	sub, err := svc.Chart("", "")
	require.NoError(t, err)
	defer sub.Unsubscribe()

	assert.Equal(t, query.StatusIdle, sub.State().Status)
	assert.Equal(t, "crypto:chart::7", sub.Key())
	market.AssertNotCalled(t, "CoinChart", mock.Anything, mock.Anything)
}

func TestMarketService_ChartRejectsInvalidRange(t *testing.T) {
	market := &MockMarketData{}
	market.On("CoinChart", "a:b", "7").Return(`{"prices":[]}`, nil).Maybe()
	market.On("CoinChart", "a", "7").Return(`{"prices":[]}`, nil).Maybe()
	svc := newTestMarketService(t, market, &MockNews{})

	sub, err := svc.Chart("a", "b:7")
	assert.ErrorIs(t, err, ErrInvalidDays)
	assert.Nil(t, sub)

	// ids con ":" no colisionan con otro par id/rango
	first, err := svc.Chart("a:b", "7")
	require.NoError(t, err)
	defer first.Unsubscribe()
	second, err := svc.Chart("a", "7")
	require.NoError(t, err)
	defer second.Unsubscribe()
	assert.NotEqual(t, first.Key(), second.Key())
	market.AssertNotCalled(t, "CoinChart", mock.Anything, "b:7")
}

func TestMarketService_PermanentErrorsSkipRetry(t *testing.T) {
	market := &MockMarketData{}
	market.On("CoinDetails", "bitcoin").
		Return(nil, fmt.Errorf("%w: expected object", coingecko.ErrMalformedPayload)).Once()
	svc := newTestMarketService(t, market, &MockNews{})

	sub, err := svc.Details("bitcoin")
	require.NoError(t, err)
	defer sub.Unsubscribe()

	state := settle(t, sub)
	assert.Equal(t, query.StatusError, state.Status)
	assert.ErrorIs(t, state.Err, coingecko.ErrMalformedPayload)
	market.AssertNumberOfCalls(t, "CoinDetails", 1)
}

func TestMarketService_TransientErrorRetries(t *testing.T) {
	market := &MockMarketData{}
	market.On("TrendingCoins").Return(nil, coingecko.ErrRateLimited).Times(2)
	market.On("TrendingCoins").Return(`[{"item":{"id":"pepe"}}]`, nil).Once()
	svc := newTestMarketService(t, market, &MockNews{})

	sub, err := svc.Trending()
	require.NoError(t, err)
	defer sub.Unsubscribe()

	state := settle(t, sub)
	assert.Equal(t, query.StatusSuccess, state.Status)
	market.AssertNumberOfCalls(t, "TrendingCoins", 3)
}

func TestMarketService_News(t *testing.T) {
	news := &MockNews{}
	news.On("Latest", entities.NewsFilterHot, "BTC,ETH").
		Return([]entities.NewsItem{{ID: 1, Title: "Bitcoin sube"}}, nil).Once()
	svc := newTestMarketService(t, &MockMarketData{}, news)

	sub, err := svc.News(entities.NewsFilterHot, " btc,eth ")
	require.NoError(t, err)
	defer sub.Unsubscribe()

	state := settle(t, sub)
	assert.Equal(t, "news:list:hot:BTC%2CETH", sub.Key())

	var items []entities.NewsItem
	require.NoError(t, json.Unmarshal(state.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Bitcoin sube", items[0].Title)
}

func TestMarketService_SubscribeByName(t *testing.T) {
	market := &MockMarketData{}
	market.On("CoinChart", "ethereum", "30").Return(`{"prices":[[1,2]]}`, nil).Once()
	market.On("ExchangeRates", "bitcoin").Return(`{"usd":65000}`, nil).Once()
	svc := newTestMarketService(t, market, &MockNews{})

	chart, err := svc.Subscribe(ResourceChart, map[string]string{"id": "ethereum", "days": "30"})
	require.NoError(t, err)
	defer chart.Unsubscribe()
	assert.Equal(t, "crypto:chart:ethereum:30", chart.Key())
	assert.Equal(t, query.StatusSuccess, settle(t, chart).Status)

	rates, err := svc.Subscribe(ResourceRates, map[string]string{"id": "bitcoin"})
	require.NoError(t, err)
	defer rates.Unsubscribe()
	assert.Equal(t, query.StatusSuccess, settle(t, rates).Status)

	_, err = svc.Subscribe("portfolio", nil)
	assert.ErrorIs(t, err, ErrUnknownResource)
}

func TestPermanentOnInvalid(t *testing.T) {
	boom := errors.New("boom")
	fetch := permanentOnInvalid(func(ctx context.Context) (json.RawMessage, error) {
		return nil, boom
	})
	_, err := fetch(context.Background())
	assert.ErrorIs(t, err, boom)

	fetch = permanentOnInvalid(func(ctx context.Context) (json.RawMessage, error) {
		return nil, coingecko.ErrInvalidArgument
	})
	_, err = fetch(context.Background())
	assert.ErrorIs(t, err, coingecko.ErrInvalidArgument)
}
