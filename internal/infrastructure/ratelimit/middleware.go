package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"

	"crypto-pulse-service/internal/infrastructure/config"
	"crypto-pulse-service/internal/infrastructure/logging"
	"crypto-pulse-service/internal/infrastructure/metrics"
)

// RateLimitMiddleware limita las requests entrantes por cliente
type RateLimitMiddleware struct {
	limiter   *RateLimiterCollection
	skipPaths map[string]bool
	enabled   bool
}

// NewRateLimitMiddleware creates the middleware from configuration
func NewRateLimitMiddleware(cfg config.RateLimitConfig) *RateLimitMiddleware {
	rlm := &RateLimitMiddleware{
		skipPaths: map[string]bool{
			"/health":  true,
			"/ready":   true,
			"/metrics": true,
		},
		enabled: cfg.Enabled,
	}
	if cfg.Enabled {
		rlm.limiter = NewRateLimiterCollection(cfg.Capacity, cfg.RefillRate)
	}
	return rlm
}

// Handler returns the HTTP middleware handler
func (rlm *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rlm.enabled || rlm.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		clientID := getClientID(r)
		allowed := rlm.limiter.Allow(clientID)
		remaining := rlm.limiter.Tokens(clientID)

		metrics.RecordRateLimitResult(allowed)
		metrics.UpdateRateLimitTokens(clientID, float64(remaining))

		if !allowed {
			logging.Security().RateLimitExceeded(r.Context(), clientID, r.URL.Path)
			writeRateLimitError(w)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		next.ServeHTTP(w, r)
	})
}

// getClientID prefers proxy headers and falls back to the remote address
func getClientID(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeRateLimitError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusTooManyRequests)

	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   "RATE_LIMIT_EXCEEDED",
		"message": "Rate limit exceeded. Please slow down your requests.",
		"code":    http.StatusTooManyRequests,
	})
}

// Stats returns rate limiting statistics
func (rlm *RateLimitMiddleware) Stats() map[string]interface{} {
	if rlm.limiter == nil {
		return map[string]interface{}{"enabled": false}
	}
	stats := rlm.limiter.Stats()
	stats["enabled"] = rlm.enabled
	return stats
}
