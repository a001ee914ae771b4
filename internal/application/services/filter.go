package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"crypto-pulse-service/internal/domain/entities"
)

// coinIndex implements fuzzy.Source over "name symbol" in lowercase
type coinIndex struct {
	coins []entities.MarketCoin
	keys  []string
}

func newCoinIndex(coins []entities.MarketCoin) *coinIndex {
	keys := make([]string, len(coins))
	for i, c := range coins {
		keys[i] = strings.ToLower(c.Name + " " + c.Symbol)
	}
	return &coinIndex{coins: coins, keys: keys}
}

func (idx *coinIndex) String(i int) string { return idx.keys[i] }

func (idx *coinIndex) Len() int { return len(idx.coins) }

// FilterCoins narrows a market page to coins whose name or symbol fuzzily
// matches term, best match first. An empty term returns coins unchanged.
func FilterCoins(coins []entities.MarketCoin, term string) []entities.MarketCoin {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return coins
	}

	matches := fuzzy.FindFrom(term, newCoinIndex(coins))
	out := make([]entities.MarketCoin, 0, len(matches))
	for _, m := range matches {
		out = append(out, coins[m.Index])
	}
	return out
}

// FilterCoinsRaw applies FilterCoins to a raw /coins/markets payload and
// keeps every upstream field of the surviving rows.
func FilterCoinsRaw(raw json.RawMessage, term string) (json.RawMessage, error) {
	if strings.TrimSpace(term) == "" {
		return raw, nil
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decoding coin rows: %w", err)
	}
	coins := make([]entities.MarketCoin, len(rows))
	for i, row := range rows {
		if err := json.Unmarshal(row, &coins[i]); err != nil {
			return nil, fmt.Errorf("decoding coin row %d: %w", i, err)
		}
	}

	matches := fuzzy.FindFrom(strings.ToLower(strings.TrimSpace(term)), newCoinIndex(coins))
	kept := make([]json.RawMessage, 0, len(matches))
	for _, m := range matches {
		kept = append(kept, rows[m.Index])
	}
	return json.Marshal(kept)
}
