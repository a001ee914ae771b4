package coingecko

import (
	"encoding/json"
	"fmt"

	"crypto-pulse-service/internal/domain/entities"
)

// Typed views over the raw payloads. The API serves the raw JSON untouched;
// these are only decoded where the service needs to read a field.

// GlobalResponse is the /global envelope
type GlobalResponse struct {
	Data GlobalMarket `json:"data"`
}

type GlobalMarket struct {
	ActiveCryptocurrencies          int                `json:"active_cryptocurrencies"`
	Markets                         int                `json:"markets"`
	TotalMarketCap                  map[string]float64 `json:"total_market_cap"`
	TotalVolume                     map[string]float64 `json:"total_volume"`
	MarketCapPercentage             map[string]float64 `json:"market_cap_percentage"`
	MarketCapChangePercentage24hUSD float64            `json:"market_cap_change_percentage_24h_usd"`
	UpdatedAt                       int64              `json:"updated_at"`
}

// MarketChart holds [timestamp_ms, value] pairs
type MarketChart struct {
	Prices       [][2]float64 `json:"prices"`
	MarketCaps   [][2]float64 `json:"market_caps"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// TrendingCoin is one element of /search/trending .coins
type TrendingCoin struct {
	Item struct {
		ID            string  `json:"id"`
		CoinID        int     `json:"coin_id"`
		Name          string  `json:"name"`
		Symbol        string  `json:"symbol"`
		MarketCapRank int     `json:"market_cap_rank"`
		Thumb         string  `json:"thumb"`
		Small         string  `json:"small"`
		Large         string  `json:"large"`
		Slug          string  `json:"slug"`
		PriceBTC      float64 `json:"price_btc"`
		Score         int     `json:"score"`
	} `json:"item"`
}

// CoinDetails is the subset of /coins/{id} the converter and alerts read
type CoinDetails struct {
	ID         string `json:"id"`
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	Image      struct {
		Thumb string `json:"thumb"`
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"image"`
	MarketData struct {
		CurrentPrice map[string]float64 `json:"current_price"`
	} `json:"market_data"`
}

// Rates maps a vs_currency code to the coin price in that currency
type Rates map[string]float64

func DecodeMarkets(raw json.RawMessage) ([]entities.MarketCoin, error) {
	var coins []entities.MarketCoin
	if err := json.Unmarshal(raw, &coins); err != nil {
		return nil, fmt.Errorf("%w: markets: %v", ErrMalformedPayload, err)
	}
	return coins, nil
}

func DecodeSearch(raw json.RawMessage) ([]entities.SearchCoin, error) {
	var coins []entities.SearchCoin
	if err := json.Unmarshal(raw, &coins); err != nil {
		return nil, fmt.Errorf("%w: search: %v", ErrMalformedPayload, err)
	}
	return coins, nil
}

func DecodeRates(raw json.RawMessage) (Rates, error) {
	rates := Rates{}
	if err := json.Unmarshal(raw, &rates); err != nil {
		return nil, fmt.Errorf("%w: rates: %v", ErrMalformedPayload, err)
	}
	return rates, nil
}

func DecodeTrending(raw json.RawMessage) ([]TrendingCoin, error) {
	var coins []TrendingCoin
	if err := json.Unmarshal(raw, &coins); err != nil {
		return nil, fmt.Errorf("%w: trending: %v", ErrMalformedPayload, err)
	}
	return coins, nil
}
