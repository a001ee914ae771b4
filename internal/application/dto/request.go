package dto

import (
	"errors"
	"strings"

	"crypto-pulse-service/internal/application/services"
	"crypto-pulse-service/internal/domain/entities"
)

// CreateAlertRequest es el cuerpo de POST /alerts
// @Description New price alert
type CreateAlertRequest struct {
	CoinID      string  `json:"coinId" example:"bitcoin" validate:"required"`
	CoinName    string  `json:"coinName" example:"Bitcoin"`
	CoinSymbol  string  `json:"coinSymbol" example:"btc"`
	CoinImage   string  `json:"coinImage" example:"https://assets.coingecko.com/coins/images/1/large/bitcoin.png"`
	TargetPrice float64 `json:"targetPrice" example:"50000" validate:"required,gt=0"`
	Condition   string  `json:"condition" example:"above" enums:"above,below"`
}

// ToInput valida el request y lo convierte al input del servicio
func (r *CreateAlertRequest) ToInput() (services.AddAlertInput, error) {
	if strings.TrimSpace(r.CoinID) == "" {
		return services.AddAlertInput{}, errors.New("coinId is required")
	}
	condition, err := entities.ParseAlertCondition(r.Condition)
	if err != nil {
		return services.AddAlertInput{}, err
	}

	name := r.CoinName
	if name == "" {
		name = r.CoinID
	}
	return services.AddAlertInput{
		CoinID:      strings.TrimSpace(r.CoinID),
		CoinName:    name,
		CoinSymbol:  r.CoinSymbol,
		CoinImage:   r.CoinImage,
		TargetPrice: r.TargetPrice,
		Condition:   condition,
	}, nil
}

// SetThemeRequest es el cuerpo de PUT /theme
type SetThemeRequest struct {
	Theme string `json:"theme" example:"dark" enums:"light,dark"`
}

// ClientMessage is a frame sent by a websocket client
type ClientMessage struct {
	Type     string            `json:"type" example:"subscribe" enums:"subscribe,unsubscribe,refetch"`
	ID       string            `json:"id" example:"chart-1"`
	Resource string            `json:"resource,omitempty" example:"chart"`
	Params   map[string]string `json:"params,omitempty"`
}

// ServerMessage is a frame pushed to websocket clients
type ServerMessage struct {
	Type    string                 `json:"type" example:"state" enums:"state,alert,error"`
	ID      string                 `json:"id,omitempty" example:"chart-1"`
	State   *QueryResponse         `json:"state,omitempty"`
	Alert   *entities.Notification `json:"alert,omitempty"`
	Message string                 `json:"message,omitempty"`
	Error   string                 `json:"error,omitempty"`
}
