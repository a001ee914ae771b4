package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"crypto-pulse-service/internal/application/dto"
	"crypto-pulse-service/internal/infrastructure/logging"
)

// ReadinessCheck reports whether a dependency can serve traffic
type ReadinessCheck func(ctx context.Context) error

// HealthHandler maneja los endpoints de health check
type HealthHandler struct {
	checks  map[string]ReadinessCheck
	timeout time.Duration
}

// NewHealthHandler crea una nueva instancia del health handler
func NewHealthHandler(checks map[string]ReadinessCheck) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

// Health godoc
// @Summary Basic health check
// @Description Verifies that the service is running correctly. Responds quickly without checking external dependencies.
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} dto.HealthResponse "Service is running correctly"
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	services := map[string]string{
		"service": "running",
	}

	response := dto.NewHealthResponse("healthy", services)
	writeJSONResponse(r.Context(), w, http.StatusOK, response)
}

// Ready godoc
// @Summary Complete readiness check
// @Description Verifies that the service is ready to receive traffic, including the client state store and the response cache backend.
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} dto.HealthResponse "Service is ready to receive traffic"
// @Failure 503 {object} dto.HealthResponse "Service is not ready - dependencies are failing"
// @Router /ready [get]
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	services := map[string]string{"service": "ready"}
	ready := true
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			ready = false
			services[name] = "error: " + err.Error()
			logging.WarnWithError(ctx, "Readiness check failed", err, logging.Fields{"dependency": name})
			continue
		}
		services[name] = "ready"
	}

	if !ready {
		writeJSONResponse(r.Context(), w, http.StatusServiceUnavailable, dto.NewHealthResponse("unhealthy", services))
		return
	}
	writeJSONResponse(r.Context(), w, http.StatusOK, dto.NewHealthResponse("ready", services))
}
