package entities

// MarketCoin is the subset of a /coins/markets row the service reads.
// The full upstream payload is served untouched to clients.
type MarketCoin struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	Image                    string  `json:"image"`
	CurrentPrice             float64 `json:"current_price"`
	MarketCap                float64 `json:"market_cap"`
	MarketCapRank            int     `json:"market_cap_rank"`
	TotalVolume              float64 `json:"total_volume"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
}

// SearchCoin es un resultado de /search
type SearchCoin struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank *int   `json:"market_cap_rank"`
	Thumb         string `json:"thumb"`
	Large         string `json:"large"`
}

// PriceSnapshot maps coin id to USD price
type PriceSnapshot map[string]float64

// NewPriceSnapshot extracts the current prices of a market page
func NewPriceSnapshot(coins []MarketCoin) PriceSnapshot {
	snapshot := make(PriceSnapshot, len(coins))
	for _, c := range coins {
		if c.ID != "" && c.CurrentPrice > 0 {
			snapshot[c.ID] = c.CurrentPrice
		}
	}
	return snapshot
}
