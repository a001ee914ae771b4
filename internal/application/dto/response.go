package dto

import (
	"encoding/json"
	"time"

	"crypto-pulse-service/internal/domain/entities"
)

// QueryResponse is the envelope every market endpoint returns
// @Description Snapshot of a shared market query
type QueryResponse struct {
	Key          string          `json:"key" example:"crypto:chart:bitcoin:7"`                             // Query descriptor key
	Status       string          `json:"status" example:"success" enums:"idle,loading,success,error"`     // Lifecycle phase
	Data         json.RawMessage `json:"data" swaggertype:"object"`                                       // Upstream payload, null until the first success
	IsLoading    bool            `json:"isLoading" example:"false"`                                       // First fetch running without data
	IsFetching   bool            `json:"isFetching" example:"false"`                                      // Any fetch running
	Error        *string         `json:"error" example:"coingecko: rate limited"`                          // Last error, null after a success
	LastUpdated  *time.Time      `json:"lastUpdated,omitempty" example:"2024-05-01T12:00:00Z"`             // Time of the last success
	FailureCount int             `json:"failureCount,omitempty" example:"0"`                               // Failed attempts of the last fetch
}

// AlertListResponse lists alerts with the active/triggered split
// @Description Price alerts of the user
type AlertListResponse struct {
	Alerts    []entities.PriceAlert `json:"alerts"`
	Active    int                   `json:"active" example:"2"`
	Triggered int                   `json:"triggered" example:"1"`
}

// ClearTriggeredResponse reporta cuántas alertas disparadas se eliminaron
type ClearTriggeredResponse struct {
	Removed int `json:"removed" example:"1"`
}

// WatchlistResponse is the ordered list of watched coin ids
// @Description Watchlist of the user
type WatchlistResponse struct {
	Coins []string `json:"coins" example:"bitcoin,ethereum"`
}

// WatchlistContainsResponse answers a membership test
type WatchlistContainsResponse struct {
	CoinID  string `json:"coinId" example:"bitcoin"`
	Watched bool   `json:"watched" example:"true"`
}

// ThemeResponse is the persisted display preference
// @Description Theme preference
type ThemeResponse struct {
	Theme  string `json:"theme" example:"dark" enums:"light,dark"`
	IsDark bool   `json:"isDark" example:"true"`
}

// ConversionResponse is the result of /convert
// @Description Amount converted at the current rate
type ConversionResponse struct {
	From        string    `json:"from" example:"bitcoin"`
	To          string    `json:"to" example:"usd"`
	Amount      string    `json:"amount" example:"0.5"`
	Rate        string    `json:"rate" example:"65000.5"`
	Result      string    `json:"result" example:"32500.25"`
	LastUpdated time.Time `json:"lastUpdated" example:"2024-05-01T12:00:00Z"`
}

// ErrorResponse represents a standard error response for endpoints
// @Description Standard error response for endpoints
type ErrorResponse struct {
	Error   string `json:"error" example:"INVALID_PARAMETER" validate:"required"`       // Main error message
	Message string `json:"message,omitempty" example:"target price must be positive"` // Detailed error description
	Code    string `json:"code,omitempty" example:"400"`                                // HTTP error code or internal code
}

// HealthResponse represents the health check response with service status
// @Description Health check response with service status
type HealthResponse struct {
	Status    string            `json:"status" example:"healthy" validate:"required" enums:"healthy,degraded,unhealthy"` // Overall service status
	Timestamp time.Time         `json:"timestamp" example:"2023-12-01T10:30:00Z" validate:"required"`                    // When the health check was performed
	Services  map[string]string `json:"services,omitempty" example:"cache:healthy,store:healthy"`                        // Individual service statuses
}

// NewErrorResponse creates a new error response
func NewErrorResponse(error string, message string) *ErrorResponse {
	return &ErrorResponse{
		Error:   error,
		Message: message,
	}
}

// NewErrorResponseWithCode creates an error response with code
func NewErrorResponseWithCode(error string, message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:   error,
		Message: message,
		Code:    code,
	}
}

// NewHealthResponse creates a health check response
func NewHealthResponse(status string, services map[string]string) *HealthResponse {
	return &HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  services,
	}
}
