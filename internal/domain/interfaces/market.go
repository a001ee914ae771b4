package interfaces

import (
	"context"
	"encoding/json"

	"crypto-pulse-service/internal/domain/entities"
)

// MarketDataProvider expone los endpoints de mercado como payloads JSON opacos
type MarketDataProvider interface {
	TopCoins(ctx context.Context, page, perPage int, sparkline bool) (json.RawMessage, error)
	GlobalData(ctx context.Context) (json.RawMessage, error)
	CoinChart(ctx context.Context, coinID string, days string) (json.RawMessage, error)
	TrendingCoins(ctx context.Context) (json.RawMessage, error)
	SearchCoins(ctx context.Context, query string) (json.RawMessage, error)
	CoinDetails(ctx context.Context, coinID string) (json.RawMessage, error)
	ExchangeRates(ctx context.Context, coinID string) (json.RawMessage, error)
}

// NewsProvider returns the latest headlines for a feed filter
type NewsProvider interface {
	Latest(ctx context.Context, filter entities.NewsFilter, currencies string) ([]entities.NewsItem, error)
}
