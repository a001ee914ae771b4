package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-pulse-service/internal/infrastructure/config"
	"crypto-pulse-service/internal/infrastructure/ratelimit"
	"crypto-pulse-service/internal/infrastructure/repositories/cache"
)

// Test Helper Functions
type upstream struct {
	server *httptest.Server
	calls  atomic.Int32

	mu      sync.Mutex
	lastURL *http.Request
}

func newUpstream(t *testing.T, handler http.HandlerFunc) *upstream {
	t.Helper()
	u := &upstream{}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)
		u.mu.Lock()
		u.lastURL = r
		u.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) lastRequest() *http.Request {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastURL
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	throttler := ratelimit.NewThrottler(ratelimit.ThrottlerConfig{
		MinInterval: 0,
		Cooldown:    10 * time.Millisecond,
		Timeout:     2 * time.Second,
	})
	responses := cache.NewResponseCache(cache.NewMemoryCache(100), time.Minute)
	return NewClient(throttler, responses, config.CoinGeckoConfig{
		BaseURL:      baseURL,
		VsCurrencies: []string{"usd", "eur"},
	})
}

// ===== CASOS DE ÉXITO =====

func TestClient_TopCoins_ParamsAndCache(t *testing.T) {
	up := newUpstream(t, jsonHandler(http.StatusOK, `[{"id":"bitcoin","current_price":50000}]`))
	client := newTestClient(t, up.server.URL)
	ctx := context.Background()

	first, err := client.TopCoins(ctx, 2, 50, true)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"bitcoin","current_price":50000}]`, string(first))

	req := up.lastRequest()
	require.NotNil(t, req)
	assert.Equal(t, "/coins/markets", req.URL.Path)
	q := req.URL.Query()
	assert.Equal(t, "usd", q.Get("vs_currency"))
	assert.Equal(t, "market_cap_desc", q.Get("order"))
	assert.Equal(t, "50", q.Get("per_page"))
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "true", q.Get("sparkline"))

	second, err := client.TopCoins(ctx, 2, 50, true)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), up.calls.Load(), "la segunda llamada debe servirse desde caché")

	// otros parámetros no colisionan
	_, err = client.TopCoins(ctx, 2, 50, false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), up.calls.Load())
}

func TestClient_TrendingAndSearch_ExtractCoins(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/trending":
			_, _ = w.Write([]byte(`{"coins":[{"item":{"id":"pepe","name":"Pepe","score":0}}],"nfts":[]}`))
		case "/search":
			assert.Equal(t, "btc", r.URL.Query().Get("query"))
			_, _ = w.Write([]byte(`{"coins":[{"id":"bitcoin","name":"Bitcoin","symbol":"BTC"}],"exchanges":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	client := newTestClient(t, up.server.URL)
	ctx := context.Background()

	trending, err := client.TrendingCoins(ctx)
	require.NoError(t, err)
	coins, err := DecodeTrending(trending)
	require.NoError(t, err)
	require.Len(t, coins, 1)
	assert.Equal(t, "pepe", coins[0].Item.ID)

	results, err := client.SearchCoins(ctx, "  BTC ")
	require.NoError(t, err)
	found, err := DecodeSearch(results)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "bitcoin", found[0].ID)
}

func TestClient_ExchangeRates(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "usd,eur", r.URL.Query().Get("vs_currencies"))
		if r.URL.Query().Get("ids") == "bitcoin" {
			_, _ = w.Write([]byte(`{"bitcoin":{"usd":50000,"eur":46000}}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})
	client := newTestClient(t, up.server.URL)
	ctx := context.Background()

	raw, err := client.ExchangeRates(ctx, "bitcoin")
	require.NoError(t, err)
	rates, err := DecodeRates(raw)
	require.NoError(t, err)
	assert.Equal(t, Rates{"usd": 50000, "eur": 46000}, rates)

	unknown, err := client.ExchangeRates(ctx, "not-a-coin")
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(unknown))
}

func TestClient_CoinDetailsAndChart_Paths(t *testing.T) {
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/coins/bitcoin":
			q := r.URL.Query()
			for _, p := range []string{"localization", "tickers", "community_data", "developer_data"} {
				assert.Equal(t, "false", q.Get(p), p)
			}
			_, _ = w.Write([]byte(`{"id":"bitcoin","market_data":{"current_price":{"usd":50000}}}`))
		case "/coins/bitcoin/market_chart":
			assert.Equal(t, "7", r.URL.Query().Get("days"))
			_, _ = w.Write([]byte(`{"prices":[[1700000000000,50000]],"market_caps":[],"total_volumes":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	client := newTestClient(t, up.server.URL)
	ctx := context.Background()

	details, err := client.CoinDetails(ctx, "bitcoin")
	require.NoError(t, err)
	var d CoinDetails
	require.NoError(t, json.Unmarshal(details, &d))
	assert.Equal(t, 50000.0, d.MarketData.CurrentPrice["usd"])

	chart, err := client.CoinChart(ctx, "bitcoin", "")
	require.NoError(t, err)
	var c MarketChart
	require.NoError(t, json.Unmarshal(chart, &c))
	require.Len(t, c.Prices, 1)
	assert.Equal(t, 50000.0, c.Prices[0][1])
}

func TestClient_ConcurrentRequestsCoalesce(t *testing.T) {
	release := make(chan struct{})
	up := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{"data":{"markets":900}}`))
	})
	client := newTestClient(t, up.server.URL)

	var wg sync.WaitGroup
	results := make([]json.RawMessage, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload, err := client.GlobalData(context.Background())
			assert.NoError(t, err)
			results[i] = payload
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), up.calls.Load())
	for _, r := range results {
		assert.JSONEq(t, `{"data":{"markets":900}}`, string(r))
	}
}

// ===== CASOS DE ERROR =====

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantErr   error
		wantCalls int32
	}{
		{"500 es error de status", http.StatusInternalServerError, `{"error":"boom"}`, ErrUpstreamStatus, 1},
		{"404 es error de status", http.StatusNotFound, `{}`, ErrUpstreamStatus, 1},
		{"429 reintenta una vez y falla", http.StatusTooManyRequests, `{}`, ErrRateLimited, 2},
		{"JSON inválido", http.StatusOK, `not json`, ErrMalformedPayload, 1},
		{"forma inesperada", http.StatusOK, `{"coins":[]}`, ErrMalformedPayload, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := newUpstream(t, jsonHandler(tt.status, tt.body))
			client := newTestClient(t, up.server.URL)

			_, err := client.TopCoins(context.Background(), 1, 10, false)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantCalls, up.calls.Load())

			// los errores nunca se cachean
			_, err = client.TopCoins(context.Background(), 1, 10, false)
			assert.Error(t, err)
			assert.Equal(t, tt.wantCalls*2, up.calls.Load())
		})
	}
}

type failingFetcher struct{ err error }

func (f failingFetcher) Get(ctx context.Context, url string) (*http.Response, error) {
	return nil, f.err
}

func TestClient_NetworkFailureWrapsCause(t *testing.T) {
	client := NewClient(failingFetcher{err: context.DeadlineExceeded}, nil, config.CoinGeckoConfig{BaseURL: "http://example.invalid"})

	_, err := client.GlobalData(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClient_InvalidArguments(t *testing.T) {
	client := NewClient(failingFetcher{err: errors.New("should not be called")}, nil, config.CoinGeckoConfig{})
	ctx := context.Background()

	_, err := client.CoinDetails(ctx, " ")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = client.CoinChart(ctx, "", "7")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = client.CoinChart(ctx, "bitcoin", "b:7")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = client.ExchangeRates(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = client.SearchCoins(ctx, "   ")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestValidDays(t *testing.T) {
	for _, days := range []string{"1", "7", "14", "30", "90", "180", "365", "max"} {
		assert.True(t, ValidDays(days), days)
	}
	for _, days := range []string{"", "0", "2", "MAX", "7:1", "-1"} {
		assert.False(t, ValidDays(days), days)
	}
}

func TestKeys_DeterministicAndDistinct(t *testing.T) {
	assert.Equal(t, "crypto:coins:1:100:false", KeyTopCoins(1, 100, false))
	assert.Equal(t, "crypto:chart:bitcoin:7", KeyChart("bitcoin", "7"))
	assert.NotEqual(t, KeyChart("bitcoin", "7"), KeyChart("bitcoin", "30"))
	assert.NotEqual(t, KeyChart("a:b", "7"), KeyChart("a", "b:7"))
	assert.NotEqual(t, KeyDetails("a:b"), KeyDetails("a%3Ab"))
	assert.Equal(t, KeySearch("BTC"), KeySearch(" btc "))
	assert.Equal(t, "crypto:rates:ethereum", KeyRates("ethereum"))
	assert.Equal(t, "crypto:details:ethereum", KeyDetails("ethereum"))
	assert.Equal(t, "crypto:global", KeyGlobal())
	assert.Equal(t, "crypto:trending", KeyTrending())
}
