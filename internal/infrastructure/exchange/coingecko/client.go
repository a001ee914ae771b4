package coingecko

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"crypto-pulse-service/internal/domain/interfaces"
	"crypto-pulse-service/internal/infrastructure/config"
	"crypto-pulse-service/internal/infrastructure/logging"
	"crypto-pulse-service/internal/infrastructure/repositories/cache"
)

const (
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	DefaultDays    = "7"
	MaxPerPage     = 250

	maxBodyBytes = 8 << 20
)

var _ interfaces.MarketDataProvider = (*Client)(nil)

// Client reads market data from CoinGecko. Every call first checks the
// response cache; misses for the same key are coalesced so only one
// request reaches the throttled fetcher.
type Client struct {
	fetcher      interfaces.HTTPFetcher
	cache        *cache.ResponseCache
	group        singleflight.Group
	baseURL      string
	vsCurrencies []string
}

// NewClient builds a client over a shared fetcher. responseCache may be nil.
func NewClient(fetcher interfaces.HTTPFetcher, responseCache *cache.ResponseCache, cfg config.CoinGeckoConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	vs := cfg.VsCurrencies
	if len(vs) == 0 {
		vs = config.DefaultVsCurrencies
	}
	return &Client{
		fetcher:      fetcher,
		cache:        responseCache,
		baseURL:      baseURL,
		vsCurrencies: append([]string(nil), vs...),
	}
}

// TopCoins returns a /coins/markets page ordered by market cap
func (c *Client) TopCoins(ctx context.Context, page, perPage int, sparkline bool) (json.RawMessage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > MaxPerPage {
		perPage = 100
	}

	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))
	params.Set("sparkline", strconv.FormatBool(sparkline))

	return c.cached(ctx, KeyTopCoins(page, perPage, sparkline), func(ctx context.Context) (json.RawMessage, error) {
		body, err := c.getJSON(ctx, "/coins/markets", params)
		if err != nil {
			return nil, err
		}
		return expectArray(body, "/coins/markets")
	})
}

func (c *Client) GlobalData(ctx context.Context) (json.RawMessage, error) {
	return c.cached(ctx, KeyGlobal(), func(ctx context.Context) (json.RawMessage, error) {
		body, err := c.getJSON(ctx, "/global", nil)
		if err != nil {
			return nil, err
		}
		return expectObject(body, "/global")
	})
}

func (c *Client) CoinChart(ctx context.Context, coinID string, days string) (json.RawMessage, error) {
	if err := requireID(coinID); err != nil {
		return nil, err
	}
	if days == "" {
		days = DefaultDays
	}
	if !ValidDays(days) {
		return nil, fmt.Errorf("%w: unsupported days %q", ErrInvalidArgument, days)
	}

	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("days", days)
	path := "/coins/" + url.PathEscape(coinID) + "/market_chart"

	return c.cached(ctx, KeyChart(coinID, days), func(ctx context.Context) (json.RawMessage, error) {
		body, err := c.getJSON(ctx, path, params)
		if err != nil {
			return nil, err
		}
		return expectObject(body, path)
	})
}

// TrendingCoins returns the .coins array of /search/trending
func (c *Client) TrendingCoins(ctx context.Context) (json.RawMessage, error) {
	return c.cached(ctx, KeyTrending(), func(ctx context.Context) (json.RawMessage, error) {
		body, err := c.getJSON(ctx, "/search/trending", nil)
		if err != nil {
			return nil, err
		}
		return extractCoins(body, "/search/trending")
	})
}

// SearchCoins returns the .coins array of /search
func (c *Client) SearchCoins(ctx context.Context, query string) (json.RawMessage, error) {
	query = NormalizeQuery(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", ErrInvalidArgument)
	}

	params := url.Values{}
	params.Set("query", query)

	return c.cached(ctx, KeySearch(query), func(ctx context.Context) (json.RawMessage, error) {
		body, err := c.getJSON(ctx, "/search", params)
		if err != nil {
			return nil, err
		}
		return extractCoins(body, "/search")
	})
}

func (c *Client) CoinDetails(ctx context.Context, coinID string) (json.RawMessage, error) {
	if err := requireID(coinID); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("localization", "false")
	params.Set("tickers", "false")
	params.Set("community_data", "false")
	params.Set("developer_data", "false")
	path := "/coins/" + url.PathEscape(coinID)

	return c.cached(ctx, KeyDetails(coinID), func(ctx context.Context) (json.RawMessage, error) {
		body, err := c.getJSON(ctx, path, params)
		if err != nil {
			return nil, err
		}
		return expectObject(body, path)
	})
}

// ExchangeRates returns the coin price in every configured vs_currency.
// An id unknown upstream yields an empty object.
func (c *Client) ExchangeRates(ctx context.Context, coinID string) (json.RawMessage, error) {
	if err := requireID(coinID); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("ids", coinID)
	params.Set("vs_currencies", strings.Join(c.vsCurrencies, ","))

	return c.cached(ctx, KeyRates(coinID), func(ctx context.Context) (json.RawMessage, error) {
		body, err := c.getJSON(ctx, "/simple/price", params)
		if err != nil {
			return nil, err
		}

		var byID map[string]json.RawMessage
		if err := json.Unmarshal(body, &byID); err != nil {
			return nil, fmt.Errorf("%w: /simple/price: %v", ErrMalformedPayload, err)
		}
		rates, ok := byID[coinID]
		if !ok || isNull(rates) {
			return json.RawMessage(`{}`), nil
		}
		return expectObject(rates, "/simple/price")
	})
}

// cached serves key from the response cache or runs fetch once for all
// concurrent callers, storing the result on success.
func (c *Client) cached(ctx context.Context, key string, fetch func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	if c.cache != nil {
		if payload, ok := c.cache.Get(ctx, key); ok {
			return payload, nil
		}
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		payload, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if c.cache != nil {
			// a failed write only costs a future miss
			_ = c.cache.Set(ctx, key, payload)
		}
		return payload, nil
	})
	if shared {
		logging.Debug(ctx, "Coalesced market data request", logging.Fields{
			logging.FieldCacheKey: key,
		})
	}
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	resp, err := c.fetcher.Get(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRequestFailed, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrRequestFailed, path, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, path)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: %s returned %d", ErrUpstreamStatus, path, resp.StatusCode)
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: %s is not valid JSON", ErrMalformedPayload, path)
	}
	return json.RawMessage(body), nil
}

func requireID(coinID string) error {
	if strings.TrimSpace(coinID) == "" {
		return fmt.Errorf("%w: empty coin id", ErrInvalidArgument)
	}
	return nil
}

func extractCoins(body json.RawMessage, path string) (json.RawMessage, error) {
	var envelope struct {
		Coins json.RawMessage `json:"coins"`
	}
	if _, err := expectObject(body, path); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, path, err)
	}
	if len(envelope.Coins) == 0 || isNull(envelope.Coins) {
		return json.RawMessage(`[]`), nil
	}
	return expectArray(envelope.Coins, path)
}

func expectArray(body json.RawMessage, path string) (json.RawMessage, error) {
	if firstByte(body) != '[' {
		return nil, fmt.Errorf("%w: %s: expected array", ErrMalformedPayload, path)
	}
	return body, nil
}

func expectObject(body json.RawMessage, path string) (json.RawMessage, error) {
	if firstByte(body) != '{' {
		return nil, fmt.Errorf("%w: %s: expected object", ErrMalformedPayload, path)
	}
	return body, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func firstByte(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}
