package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"crypto-pulse-service/internal/application/dto"
	"crypto-pulse-service/internal/application/query"
	"crypto-pulse-service/internal/application/services"
	"crypto-pulse-service/internal/domain/entities"
	"crypto-pulse-service/internal/infrastructure/exchange/coingecko"
	"crypto-pulse-service/internal/infrastructure/logging"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 64 << 10

// writeJSONResponse writes a JSON response preserving the request context
func writeJSONResponse(ctx context.Context, w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.ErrorWithError(ctx, "Failed to encode JSON response", err, logging.Fields{
			"status_code": statusCode,
		})
	}
}

// writeErrorResponse writes an error response
func writeErrorResponse(ctx context.Context, w http.ResponseWriter, statusCode int, errorCode, message string) {
	writeJSONResponse(ctx, w, statusCode, dto.NewErrorResponse(errorCode, message))
}

// writeServiceError maps a service error to status and error code
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	status, code := classifyError(err)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithError(ctx, "Request failed", err, logging.Fields{"error_code": code})
	}
	writeErrorResponse(ctx, w, status, code, err.Error())
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidAlert),
		errors.Is(err, entities.ErrInvalidCondition),
		errors.Is(err, entities.ErrInvalidTheme),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrEmptyCoinID),
		errors.Is(err, services.ErrInvalidDays),
		errors.Is(err, services.ErrUnknownResource):
		return http.StatusBadRequest, "INVALID_PARAMETER"
	case errors.Is(err, services.ErrAlertNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, services.ErrRateUnavailable):
		return http.StatusUnprocessableEntity, "RATE_UNAVAILABLE"
	case errors.Is(err, coingecko.ErrRateLimited):
		return http.StatusServiceUnavailable, "UPSTREAM_RATE_LIMITED"
	case errors.Is(err, coingecko.ErrUpstreamStatus),
		errors.Is(err, coingecko.ErrRequestFailed),
		errors.Is(err, coingecko.ErrMalformedPayload):
		return http.StatusBadGateway, "UPSTREAM_ERROR"
	case errors.Is(err, query.ErrClosed):
		return http.StatusServiceUnavailable, "SHUTTING_DOWN"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// decodeJSONBody decodes a bounded JSON body into v
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
