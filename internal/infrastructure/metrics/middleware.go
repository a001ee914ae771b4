package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"
)

// HTTPMetricsMiddleware collects HTTP metrics for Prometheus
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriterMetrics{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		RecordHTTPRequest(r.Method, normalizePath(r.URL.Path), wrapped.statusCode, time.Since(start).Seconds(), wrapped.written)
	})
}

type responseWriterMetrics struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriterMetrics) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriterMetrics) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Hijack lets the /ws upgrade pass through the middleware
func (rw *responseWriterMetrics) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// normalizePath collapses coin ids and other dynamic segments to keep label cardinality bounded
func normalizePath(path string) string {
	if path == "/" {
		return "/"
	}
	path = strings.TrimSuffix(path, "/")

	switch path {
	case "/health", "/ready", "/metrics", "/ws":
		return path
	}

	if strings.HasPrefix(path, "/swagger") {
		return "/swagger"
	}

	rest, ok := strings.CutPrefix(path, "/api/v1/")
	if !ok {
		return "/unknown"
	}

	segments := strings.Split(rest, "/")
	switch segments[0] {
	case "coins":
		switch len(segments) {
		case 1:
			return "/api/v1/coins"
		case 2:
			return "/api/v1/coins/{id}"
		default:
			return "/api/v1/coins/{id}/" + segments[2]
		}
	case "watchlist":
		switch {
		case len(segments) == 1:
			return "/api/v1/watchlist"
		case len(segments) >= 3 && segments[2] == "toggle":
			return "/api/v1/watchlist/{id}/toggle"
		default:
			return "/api/v1/watchlist/{id}"
		}
	case "alerts":
		switch {
		case len(segments) == 1:
			return "/api/v1/alerts"
		case segments[1] == "triggered":
			return "/api/v1/alerts/triggered"
		default:
			return "/api/v1/alerts/{id}"
		}
	case "theme":
		if len(segments) >= 2 && segments[1] == "toggle" {
			return "/api/v1/theme/toggle"
		}
		return "/api/v1/theme"
	case "global", "trending", "search", "news", "convert":
		return "/api/v1/" + segments[0]
	default:
		return "/api/v1/*"
	}
}
