package entities

import (
	"fmt"
	"strings"
	"time"

	"crypto-pulse-service/pkg/utils"
)

// Notification is emitted once per alert when it triggers
type Notification struct {
	AlertID      string         `json:"alertId"`
	CoinID       string         `json:"coinId"`
	CoinName     string         `json:"coinName"`
	CoinSymbol   string         `json:"coinSymbol"`
	Condition    AlertCondition `json:"condition"`
	TargetPrice  float64        `json:"targetPrice"`
	CurrentPrice float64        `json:"currentPrice"`
	TriggeredAt  time.Time      `json:"triggeredAt"`
}

// NewNotification construye la notificación a partir de una alerta disparada
func NewNotification(alert PriceAlert, price float64, at time.Time) Notification {
	return Notification{
		AlertID:      alert.ID,
		CoinID:       alert.CoinID,
		CoinName:     alert.CoinName,
		CoinSymbol:   alert.CoinSymbol,
		Condition:    alert.Condition,
		TargetPrice:  alert.TargetPrice,
		CurrentPrice: price,
		TriggeredAt:  at,
	}
}

// Message renders the human readable text shown to the user
func (n Notification) Message() string {
	return fmt.Sprintf("%s (%s) is now %s %s at %s",
		n.CoinName, strings.ToUpper(n.CoinSymbol), n.Condition,
		utils.FormatPrice(n.TargetPrice), utils.FormatPrice(n.CurrentPrice))
}
