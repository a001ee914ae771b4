package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"crypto-pulse-service/internal/application/query"
	"crypto-pulse-service/internal/infrastructure/exchange/coingecko"
)

// Conversion is the result of converting an amount of a coin
type Conversion struct {
	From        string          `json:"from"`
	To          string          `json:"to"`
	Amount      decimal.Decimal `json:"amount"`
	Rate        decimal.Decimal `json:"rate"`
	Result      decimal.Decimal `json:"result"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

// Converter multiplies an amount by the coin's rate in the target currency.
// Rates come from the shared rates query of the coin.
type Converter struct {
	market *MarketService
}

func NewConverter(market *MarketService) *Converter {
	return &Converter{market: market}
}

// Convert waits for the rates of from until ctx expires. Stale rates are
// used when the refresh fails.
func (c *Converter) Convert(ctx context.Context, from, to, amount string) (Conversion, error) {
	from = strings.ToLower(strings.TrimSpace(from))
	to = strings.ToLower(strings.TrimSpace(to))
	if from == "" {
		return Conversion{}, ErrEmptyCoinID
	}

	value, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Conversion{}, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if value.IsNegative() {
		return Conversion{}, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, value)
	}

	sub, err := c.market.Rates(from)
	if err != nil {
		return Conversion{}, err
	}
	defer sub.Unsubscribe()

	state, err := sub.WaitSettled(ctx)
	if err != nil && !state.HasData() {
		return Conversion{}, err
	}
	if !state.HasData() {
		if state.Status == query.StatusError {
			return Conversion{}, fmt.Errorf("%w: %w", ErrRateUnavailable, state.Err)
		}
		return Conversion{}, ErrRateUnavailable
	}

	rates, err := coingecko.DecodeRates(state.Data)
	if err != nil {
		return Conversion{}, err
	}
	rate, ok := rates[to]
	if !ok || rate <= 0 {
		return Conversion{}, fmt.Errorf("%w: %s to %s", ErrRateUnavailable, from, to)
	}

	r := decimal.NewFromFloat(rate)
	return Conversion{
		From:        from,
		To:          to,
		Amount:      value,
		Rate:        r,
		Result:      value.Mul(r),
		LastUpdated: state.LastUpdated,
	}, nil
}
