package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crypto-pulse-service/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucket_Allow(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		requests int
		expected []bool
	}{
		{
			name:     "básico - bucket lleno permite requests hasta capacidad",
			capacity: 3,
			requests: 5,
			expected: []bool{true, true, true, false, false},
		},
		{
			name:     "capacidad 1 - solo permite 1 request",
			capacity: 1,
			requests: 3,
			expected: []bool{true, false, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Now()
			tb := newTokenBucketWithClock(tt.capacity, 1, func() time.Time { return now })

			results := make([]bool, tt.requests)
			for i := range results {
				results[i] = tb.Allow()
			}
			assert.Equal(t, tt.expected, results)
		})
	}
}

func TestTokenBucket_RefillsOverTime(t *testing.T) {
	now := time.Now()
	tb := newTokenBucketWithClock(2, 2, func() time.Time { return now })

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	now = now.Add(250 * time.Millisecond)
	assert.False(t, tb.Allow(), "medio token todavía no alcanza")

	now = now.Add(250 * time.Millisecond)
	assert.True(t, tb.Allow())

	now = now.Add(time.Hour)
	assert.Equal(t, 2, tb.Tokens(), "nunca supera la capacidad")
}

func TestRateLimiterCollection_CleanupInactiveClients(t *testing.T) {
	now := time.Now()
	rlc := NewRateLimiterCollection(5, 1)
	rlc.now = func() time.Time { return now }

	rlc.Allow("10.0.0.1")
	now = now.Add(time.Hour)
	rlc.Allow("10.0.0.2")

	assert.Equal(t, 1, rlc.Stats()["total_clients"])
}

func TestRateLimitMiddleware(t *testing.T) {
	mw := NewRateLimitMiddleware(config.RateLimitConfig{Enabled: true, Capacity: 1, RefillRate: 1})
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	request := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "192.168.1.10:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, request("/api/v1/global").Code)
	blocked := request("/api/v1/global")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "1", blocked.Header().Get("Retry-After"))

	// health nunca se limita
	assert.Equal(t, http.StatusOK, request("/health").Code)
}

func TestGetClientID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[::1]:8080"
	assert.Equal(t, "::1", getClientID(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", getClientID(req))
}
