package dto

import (
	"crypto-pulse-service/internal/application/query"
	"crypto-pulse-service/internal/application/services"
	"crypto-pulse-service/internal/domain/entities"
)

// ToQueryResponse convierte el estado de una query al envelope de la API
func ToQueryResponse(state query.State) *QueryResponse {
	resp := &QueryResponse{
		Key:          state.Key,
		Status:       string(state.Status),
		Data:         state.Data,
		IsLoading:    state.IsLoading(),
		IsFetching:   state.IsFetching,
		FailureCount: state.FailureCount,
	}
	if len(resp.Data) == 0 {
		resp.Data = nil
	}
	if msg := state.ErrorMessage(); msg != "" {
		resp.Error = &msg
	}
	if !state.LastUpdated.IsZero() {
		at := state.LastUpdated
		resp.LastUpdated = &at
	}
	return resp
}

// ToAlertListResponse cuenta activas y disparadas sin reordenar la lista
func ToAlertListResponse(alerts []entities.PriceAlert) *AlertListResponse {
	resp := &AlertListResponse{Alerts: alerts}
	if resp.Alerts == nil {
		resp.Alerts = []entities.PriceAlert{}
	}
	for _, a := range alerts {
		if a.Triggered {
			resp.Triggered++
		} else {
			resp.Active++
		}
	}
	return resp
}

func ToThemeResponse(theme entities.Theme) *ThemeResponse {
	return &ThemeResponse{Theme: string(theme), IsDark: theme == entities.ThemeDark}
}

func ToConversionResponse(c services.Conversion) *ConversionResponse {
	return &ConversionResponse{
		From:        c.From,
		To:          c.To,
		Amount:      c.Amount.String(),
		Rate:        c.Rate.String(),
		Result:      c.Result.String(),
		LastUpdated: c.LastUpdated,
	}
}
