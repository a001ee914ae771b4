package entities

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AlertCondition indica la dirección del cruce de precio que dispara la alerta
type AlertCondition string

const (
	ConditionAbove AlertCondition = "above"
	ConditionBelow AlertCondition = "below"
)

var (
	ErrInvalidCondition   = errors.New("invalid alert condition")
	ErrInvalidTargetPrice = errors.New("target price must be positive")
	ErrMissingCoin        = errors.New("alert coin id is required")
)

// ParseAlertCondition normaliza la condición recibida desde la API
func ParseAlertCondition(raw string) (AlertCondition, error) {
	switch AlertCondition(strings.ToLower(strings.TrimSpace(raw))) {
	case ConditionAbove:
		return ConditionAbove, nil
	case ConditionBelow:
		return ConditionBelow, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCondition, raw)
	}
}

// PriceAlert is a user defined threshold on a coin's USD price.
// Triggered only ever moves from false to true.
type PriceAlert struct {
	ID             string         `json:"id"`
	CoinID         string         `json:"coinId"`
	CoinName       string         `json:"coinName"`
	CoinSymbol     string         `json:"coinSymbol"`
	CoinImage      string         `json:"coinImage"`
	TargetPrice    float64        `json:"targetPrice"`
	Condition      AlertCondition `json:"condition"`
	CreatedAt      time.Time      `json:"createdAt"`
	Triggered      bool           `json:"triggered"`
	TriggeredAt    *time.Time     `json:"triggeredAt,omitempty"`
	TriggeredPrice float64        `json:"triggeredPrice,omitempty"`
}

// Validate verifica que la alerta pueda evaluarse
func (a *PriceAlert) Validate() error {
	if strings.TrimSpace(a.CoinID) == "" {
		return ErrMissingCoin
	}
	if a.TargetPrice <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidTargetPrice, a.TargetPrice)
	}
	if a.Condition != ConditionAbove && a.Condition != ConditionBelow {
		return fmt.Errorf("%w: %q", ErrInvalidCondition, a.Condition)
	}
	return nil
}

// Crosses reports whether price satisfies the alert condition.
// Equality counts as a cross in both directions.
func (a *PriceAlert) Crosses(price float64) bool {
	switch a.Condition {
	case ConditionAbove:
		return price >= a.TargetPrice
	case ConditionBelow:
		return price <= a.TargetPrice
	default:
		return false
	}
}

// MarkTriggered flips the alert. Returns false if it was already triggered.
func (a *PriceAlert) MarkTriggered(price float64, at time.Time) bool {
	if a.Triggered {
		return false
	}
	a.Triggered = true
	a.TriggeredAt = &at
	a.TriggeredPrice = price
	return true
}
