package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"crypto-pulse-service/internal/infrastructure/logging"
)

// ResponseWriter wrapper to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.statusCode == 0 {
		rw.statusCode = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Hijack lets the /ws upgrade pass through the middleware
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// RequestTracingMiddleware adds request tracing and structured logging
func RequestTracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Reuse the caller's request ID when present
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}

		// Create context with request ID and start time
		startTime := time.Now()
		ctx := logging.WithRequestID(r.Context(), requestID)
		ctx = logging.WithStartTime(ctx, startTime)

		// Add request ID to response headers (useful for debugging)
		w.Header().Set("X-Request-ID", requestID)

		// Wrap response writer to capture status code
		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     0,
		}

		// Extract request information
		method := r.Method
		path := r.URL.Path
		userAgent := r.Header.Get("User-Agent")
		remoteIP := getClientIP(r)
		ctx = logging.WithRemoteIP(ctx, remoteIP)

		// Log request start
		logging.Debug(ctx, "HTTP request started", logging.Fields{
			"http_method":    method,
			"http_path":      path,
			"user_agent":     userAgent,
			"remote_ip":      remoteIP,
			"content_length": r.ContentLength,
		})

		// Process request with enriched context
		r = r.WithContext(ctx)
		next.ServeHTTP(wrapped, r)

		// Calculate response time
		duration := time.Since(startTime)
		durationMs := float64(duration.Nanoseconds()) / 1e6

		// Log request completion
		if wrapped.statusCode == 0 {
			wrapped.statusCode = http.StatusOK
		}
		logging.HTTP().RequestCompleted(ctx, method, path, wrapped.statusCode, durationMs)
	})
}
