package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"crypto-pulse-service/internal/application/query"
	"crypto-pulse-service/internal/domain/entities"
	"crypto-pulse-service/internal/domain/interfaces"
	"crypto-pulse-service/internal/infrastructure/exchange/coingecko"
)

const (
	scopeCrypto = "crypto"
	scopeNews   = "news"

	ResourceCoins    = "coins"
	ResourceGlobal   = "global"
	ResourceChart    = "chart"
	ResourceTrending = "trending"
	ResourceSearch   = "search"
	ResourceDetails  = "details"
	ResourceRates    = "rates"
	ResourceNews     = "news"

	DefaultPerPage = 100
)

// resourceOptions are the per resource freshness and retry policies
var resourceOptions = map[string]query.Options{
	ResourceCoins:    {StaleTime: 2 * time.Minute, RefetchInterval: 2 * time.Minute, RetryCount: 2, RetryDelay: query.ExponentialDelay(time.Second, 30*time.Second)},
	ResourceGlobal:   {StaleTime: 2 * time.Minute, RefetchInterval: 2 * time.Minute, RetryCount: 2, RetryDelay: query.ExponentialDelay(time.Second, 30*time.Second)},
	ResourceChart:    {StaleTime: 5 * time.Minute, RetryCount: 3, RetryDelay: query.ExponentialDelay(2*time.Second, 30*time.Second), GCTime: 10 * time.Minute},
	ResourceTrending: {StaleTime: 5 * time.Minute, RetryCount: 2, RetryDelay: query.ExponentialDelay(time.Second, 30*time.Second)},
	ResourceSearch:   {StaleTime: 2 * time.Minute},
	ResourceDetails:  {StaleTime: time.Minute},
	ResourceRates:    {StaleTime: 2 * time.Minute},
	ResourceNews:     {StaleTime: 5 * time.Minute, RefetchInterval: 5 * time.Minute},
}

// OptionsFor returns the query options of resource
func OptionsFor(resource string) query.Options {
	return resourceOptions[resource]
}

// MarketService exposes every market and news read as a shared query.
// Callers own the returned subscription and must Unsubscribe it.
type MarketService struct {
	coordinator *query.Coordinator
	market      interfaces.MarketDataProvider
	news        interfaces.NewsProvider
	options     func(resource string) query.Options
}

func NewMarketService(coordinator *query.Coordinator, market interfaces.MarketDataProvider, news interfaces.NewsProvider) *MarketService {
	return &MarketService{
		coordinator: coordinator,
		market:      market,
		news:        news,
		options:     OptionsFor,
	}
}

// TopCoins follows the market cap ranking. Out of range pagination falls
// back to page 1 with 100 rows.
func (s *MarketService) TopCoins(page, perPage int, sparkline bool) (*query.Subscription, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > coingecko.MaxPerPage {
		perPage = DefaultPerPage
	}
	d := query.NewDescriptor(scopeCrypto, ResourceCoins, strconv.Itoa(page), strconv.Itoa(perPage), strconv.FormatBool(sparkline))
	return s.subscribe(d, ResourceCoins, true, func(ctx context.Context) (json.RawMessage, error) {
		return s.market.TopCoins(ctx, page, perPage, sparkline)
	})
}

func (s *MarketService) Global() (*query.Subscription, error) {
	d := query.NewDescriptor(scopeCrypto, ResourceGlobal)
	return s.subscribe(d, ResourceGlobal, true, s.market.GlobalData)
}

func (s *MarketService) Chart(coinID, days string) (*query.Subscription, error) {
	if days == "" {
		days = coingecko.DefaultDays
	}
	if !coingecko.ValidDays(days) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDays, days)
	}
	d := query.NewDescriptor(scopeCrypto, ResourceChart, coinID, days)
	return s.subscribe(d, ResourceChart, coinID != "", func(ctx context.Context) (json.RawMessage, error) {
		return s.market.CoinChart(ctx, coinID, days)
	})
}

func (s *MarketService) Trending() (*query.Subscription, error) {
	d := query.NewDescriptor(scopeCrypto, ResourceTrending)
	return s.subscribe(d, ResourceTrending, true, s.market.TrendingCoins)
}

// Search stays idle until the query has at least MinSearchLength characters.
// Results are re-ranked locally by closeness to the query.
func (s *MarketService) Search(text string) (*query.Subscription, error) {
	normalized := coingecko.NormalizeQuery(text)
	d := query.NewDescriptor(scopeCrypto, ResourceSearch, normalized)
	return s.subscribe(d, ResourceSearch, SearchEnabled(normalized), func(ctx context.Context) (json.RawMessage, error) {
		raw, err := s.market.SearchCoins(ctx, normalized)
		if err != nil {
			return nil, err
		}
		coins, err := coingecko.DecodeSearch(raw)
		if err != nil {
			return nil, err
		}
		return json.Marshal(RankSearchResults(normalized, coins))
	})
}

func (s *MarketService) Details(coinID string) (*query.Subscription, error) {
	d := query.NewDescriptor(scopeCrypto, ResourceDetails, coinID)
	return s.subscribe(d, ResourceDetails, coinID != "", func(ctx context.Context) (json.RawMessage, error) {
		return s.market.CoinDetails(ctx, coinID)
	})
}

func (s *MarketService) Rates(coinID string) (*query.Subscription, error) {
	d := query.NewDescriptor(scopeCrypto, ResourceRates, coinID)
	return s.subscribe(d, ResourceRates, coinID != "", func(ctx context.Context) (json.RawMessage, error) {
		return s.market.ExchangeRates(ctx, coinID)
	})
}

// News returns the feed for filter; currencies is a comma separated list of codes
func (s *MarketService) News(filter entities.NewsFilter, currencies string) (*query.Subscription, error) {
	currencies = strings.ToUpper(strings.TrimSpace(currencies))
	d := query.NewDescriptor(scopeNews, "list", string(filter), currencies)
	return s.subscribe(d, ResourceNews, true, func(ctx context.Context) (json.RawMessage, error) {
		items, err := s.news.Latest(ctx, filter, currencies)
		if err != nil {
			return nil, err
		}
		return json.Marshal(items)
	})
}

// Subscribe resolves a descriptor sent by a websocket client
func (s *MarketService) Subscribe(resource string, params map[string]string) (*query.Subscription, error) {
	switch resource {
	case ResourceCoins:
		page, _ := strconv.Atoi(params["page"])
		perPage, _ := strconv.Atoi(params["perPage"])
		return s.TopCoins(page, perPage, params["sparkline"] == "true")
	case ResourceGlobal:
		return s.Global()
	case ResourceChart:
		return s.Chart(params["id"], params["days"])
	case ResourceTrending:
		return s.Trending()
	case ResourceSearch:
		return s.Search(params["q"])
	case ResourceDetails:
		return s.Details(params["id"])
	case ResourceRates:
		return s.Rates(params["id"])
	case ResourceNews:
		return s.News(entities.ParseNewsFilter(params["filter"]), params["currencies"])
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, resource)
	}
}

func (s *MarketService) subscribe(d query.Descriptor, resource string, enabled bool, fetch query.FetchFunc) (*query.Subscription, error) {
	opts := s.options(resource)
	opts.Disabled = !enabled
	return s.coordinator.Subscribe(d, permanentOnInvalid(fetch), opts)
}

// permanentOnInvalid stops retries for requests that can never succeed
func permanentOnInvalid(fetch query.FetchFunc) query.FetchFunc {
	return func(ctx context.Context) (json.RawMessage, error) {
		data, err := fetch(ctx)
		if err != nil && (errors.Is(err, coingecko.ErrInvalidArgument) || errors.Is(err, coingecko.ErrMalformedPayload)) {
			return nil, retry.Unrecoverable(err)
		}
		return data, err
	}
}
