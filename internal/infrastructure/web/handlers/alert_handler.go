package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"crypto-pulse-service/internal/application/dto"
	"crypto-pulse-service/internal/application/services"
	"crypto-pulse-service/internal/domain/entities"
)

// AlertHandler expone el CRUD de alertas de precio
type AlertHandler struct {
	alerts *services.AlertService
}

func NewAlertHandler(alerts *services.AlertService) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// ListAlerts godoc
// @Summary List price alerts
// @Tags alerts
// @Produce json
// @Param status query string false "Only active or triggered alerts" Enums(active, triggered)
// @Success 200 {object} dto.AlertListResponse
// @Router /api/v1/alerts [get]
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		list []entities.PriceAlert
		err  error
	)
	switch status := r.URL.Query().Get("status"); status {
	case "":
		list, err = h.alerts.List(ctx)
	case "active":
		list, err = h.alerts.Active(ctx)
	case "triggered":
		list, err = h.alerts.Triggered(ctx)
	default:
		writeErrorResponse(ctx, w, http.StatusBadRequest, "INVALID_PARAMETER", "status must be active or triggered")
		return
	}
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSONResponse(ctx, w, http.StatusOK, dto.ToAlertListResponse(list))
}

// CreateAlert godoc
// @Summary Create a price alert
// @Tags alerts
// @Accept json
// @Produce json
// @Param alert body dto.CreateAlertRequest true "Alert"
// @Success 201 {object} entities.PriceAlert
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/alerts [post]
func (h *AlertHandler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dto.CreateAlertRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeErrorResponse(ctx, w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	input, err := req.ToInput()
	if err != nil {
		writeErrorResponse(ctx, w, http.StatusBadRequest, "INVALID_PARAMETER", err.Error())
		return
	}

	alert, err := h.alerts.Add(ctx, input)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(ctx, w, http.StatusCreated, alert)
}

// DeleteAlert godoc
// @Summary Remove a price alert
// @Tags alerts
// @Param id path string true "Alert id"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/alerts/{id} [delete]
func (h *AlertHandler) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	if err := h.alerts.Remove(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearTriggered godoc
// @Summary Remove every triggered alert
// @Tags alerts
// @Produce json
// @Success 200 {object} dto.ClearTriggeredResponse
// @Router /api/v1/alerts/triggered [delete]
func (h *AlertHandler) ClearTriggered(w http.ResponseWriter, r *http.Request) {
	removed, err := h.alerts.ClearTriggered(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSONResponse(r.Context(), w, http.StatusOK, dto.ClearTriggeredResponse{Removed: removed})
}
