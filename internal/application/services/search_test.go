package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-pulse-service/internal/domain/entities"
)

func rank(n int) *int { return &n }

func TestSearchEnabled(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"", false},
		{"b", false},
		{" b ", false},
		{"bt", true},
		{"ñu", true},
		{"bitcoin", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SearchEnabled(tt.query), "query %q", tt.query)
	}
}

func TestRankSearchResults(t *testing.T) {
	coins := []entities.SearchCoin{
		{ID: "wrapped-bitcoin", Name: "Wrapped Bitcoin", Symbol: "WBTC", MarketCapRank: rank(17)},
		{ID: "bitcoin-cash", Name: "Bitcoin Cash", Symbol: "BCH", MarketCapRank: rank(15)},
		{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC", MarketCapRank: rank(1)},
		{ID: "bitcoin-gold", Name: "Bitcoin Gold", Symbol: "BTG"},
	}

	got := RankSearchResults("bitcoin", coins)
	ids := make([]string, len(got))
	for i, c := range got {
		ids[i] = c.ID
	}

	// coincidencia exacta primero, luego prefijos por ranking, luego contenidos
	assert.Equal(t, []string{"bitcoin", "bitcoin-cash", "bitcoin-gold", "wrapped-bitcoin"}, ids)
	assert.Len(t, coins, 4)
	assert.Empty(t, RankSearchResults("btc", nil))
}

func TestFilterCoins(t *testing.T) {
	coins := []entities.MarketCoin{
		{ID: "bitcoin", Name: "Bitcoin", Symbol: "btc"},
		{ID: "ethereum", Name: "Ethereum", Symbol: "eth"},
		{ID: "solana", Name: "Solana", Symbol: "sol"},
	}

	assert.Equal(t, coins, FilterCoins(coins, "  "))

	got := FilterCoins(coins, "ETH")
	require.Len(t, got, 1)
	assert.Equal(t, "ethereum", got[0].ID)

	assert.Empty(t, FilterCoins(coins, "zzz"))
}

func TestFilterCoinsRaw(t *testing.T) {
	raw := json.RawMessage(`[
		{"id":"bitcoin","name":"Bitcoin","symbol":"btc","sparkline_in_7d":{"price":[1,2]}},
		{"id":"solana","name":"Solana","symbol":"sol"}
	]`)

	got, err := FilterCoinsRaw(raw, "sol")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"solana","name":"Solana","symbol":"sol"}]`, string(got))

	got, err = FilterCoinsRaw(raw, "")
	require.NoError(t, err)
	assert.Equal(t, string(raw), string(got))

	_, err = FilterCoinsRaw(json.RawMessage(`{"oops":1}`), "btc")
	assert.Error(t, err)
}
