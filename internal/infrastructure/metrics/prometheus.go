package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crypto_pulse"

// HTTP
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			// handlers may wait on a query up to server.query_wait
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		},
		[]string{"method", "path"},
	)

	HTTPResponseSizeBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   []float64{100, 1000, 10000, 100000, 1000000},
		},
		[]string{"method", "path"},
	)
)

// Upstream (CoinGecko / CryptoPanic)
var (
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of upstream API requests by endpoint and status",
		},
		[]string{"service", "endpoint", "status_code"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream API request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
		[]string{"service", "endpoint"},
	)

	UpstreamRateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_rate_limited_total",
			Help:      "Number of 429 responses received from the upstream API",
		},
		[]string{"endpoint"},
	)

	ThrottleWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "throttle_wait_seconds",
			Help:      "Time a request waited for its throttle slot",
			Buckets:   []float64{0, 0.1, 0.5, 1.0, 1.5, 3.0, 6.0, 12.0, 30.0},
		},
	)

	NewsFallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "news_fallback_total",
			Help:      "Times the local news dataset was served instead of CryptoPanic",
		},
		[]string{"reason"}, // reason: no_api_key/request_failed
	)
)

// Response cache
var (
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of cache operations",
		},
		[]string{"operation", "result"}, // operation: get/set/delete, result: hit/miss/expired/success/error
	)

	CacheKeys = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_keys",
			Help:      "Number of keys currently in cache",
		},
		[]string{"cache_type"},
	)
)

// Query coordinator
var (
	QueryFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_fetches_total",
			Help:      "Completed query fetches by resource and result",
		},
		[]string{"resource", "result"}, // result: success/error/dropped
	)

	QueryFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_fetch_duration_seconds",
			Help:      "Query fetch duration including retries",
			Buckets:   []float64{0.01, 0.1, 0.5, 1.0, 2.0, 5.0, 15.0, 30.0, 60.0},
		},
		[]string{"resource"},
	)

	QueryRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_retries_total",
			Help:      "Query fetch retry attempts",
		},
		[]string{"resource", "attempt"},
	)

	ActiveQueries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_queries",
			Help:      "Queries currently held in the coordinator registry",
		},
	)

	QuerySubscribers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "query_subscribers",
			Help:      "Live subscribers per resource",
		},
		[]string{"resource"},
	)
)

// Alerts y WebSocket
var (
	AlertsTriggeredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_triggered_total",
			Help:      "Price alerts that crossed their target",
		},
		[]string{"condition"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications delivered per sink",
		},
		[]string{"sink", "result"},
	)

	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected WebSocket clients",
		},
	)

	WebSocketDrops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "websocket_drops_total",
			Help:      "Outgoing WebSocket messages dropped because the client buffer was full",
		},
		[]string{"type"},
	)
)

// Rate limiting entrante
var (
	RateLimitRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_requests_total",
			Help:      "Total number of requests processed by rate limiter",
		},
		[]string{"result"}, // result: allowed/blocked
	)

	RateLimitTokensRemaining = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rate_limit_tokens_remaining",
			Help:      "Number of tokens remaining in rate limiter buckets",
		},
		[]string{"client_id"},
	)
)

// Aplicación
var (
	ApplicationInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "application_info",
			Help:      "Application information",
		},
		[]string{"version", "build_time", "go_version"},
	)

	UptimeSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Application uptime in seconds",
		},
	)
)

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, path string, statusCode int, duration float64, responseSize int64) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	if responseSize > 0 {
		HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}

// RecordUpstreamCall records an upstream API call; statusCode 0 means transport error
func RecordUpstreamCall(service, endpoint string, statusCode int, duration float64) {
	UpstreamRequestsTotal.WithLabelValues(service, endpoint, strconv.Itoa(statusCode)).Inc()
	UpstreamRequestDuration.WithLabelValues(service, endpoint).Observe(duration)
}

// RecordUpstreamRateLimited counts a 429 from the upstream API
func RecordUpstreamRateLimited(endpoint string) {
	UpstreamRateLimitedTotal.WithLabelValues(endpoint).Inc()
}

// RecordThrottleWait records how long a caller waited for its slot
func RecordThrottleWait(seconds float64) {
	ThrottleWaitSeconds.Observe(seconds)
}

// RecordNewsFallback cuenta cuándo se sirvieron noticias locales
func RecordNewsFallback(reason string) {
	NewsFallbackTotal.WithLabelValues(reason).Inc()
}

// RecordCacheOperation records cache operation metrics
func RecordCacheOperation(operation, result string) {
	CacheOperationsTotal.WithLabelValues(operation, result).Inc()
}

// UpdateCacheKeys updates the number of keys held by a cache backend
func UpdateCacheKeys(cacheType string, keys int) {
	CacheKeys.WithLabelValues(cacheType).Set(float64(keys))
}

// RecordQueryFetch records the outcome of one query fetch cycle
func RecordQueryFetch(resource, result string, duration float64) {
	QueryFetchesTotal.WithLabelValues(resource, result).Inc()
	QueryFetchDuration.WithLabelValues(resource).Observe(duration)
}

// RecordQueryRetry records a retry attempt of a query fetch
func RecordQueryRetry(resource string, attempt uint) {
	QueryRetriesTotal.WithLabelValues(resource, strconv.FormatUint(uint64(attempt), 10)).Inc()
}

// UpdateActiveQueries sets the registry size
func UpdateActiveQueries(n int) {
	ActiveQueries.Set(float64(n))
}

// AddQuerySubscribers adjusts the subscriber gauge of a resource by delta
func AddQuerySubscribers(resource string, delta int) {
	QuerySubscribers.WithLabelValues(resource).Add(float64(delta))
}

// RecordAlertTriggered counts a triggered alert
func RecordAlertTriggered(condition string) {
	AlertsTriggeredTotal.WithLabelValues(condition).Inc()
}

// RecordNotification records a notification delivery attempt
func RecordNotification(sink string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	NotificationsTotal.WithLabelValues(sink, result).Inc()
}

// UpdateWebSocketClients sets the connected client gauge
func UpdateWebSocketClients(n int) {
	WebSocketClients.Set(float64(n))
}

// RecordWebSocketDrop incrementa contador de descartes por buffer lleno
func RecordWebSocketDrop(messageType string) {
	WebSocketDrops.WithLabelValues(messageType).Inc()
}

// RecordRateLimitResult records rate limiting results
func RecordRateLimitResult(allowed bool) {
	result := "blocked"
	if allowed {
		result = "allowed"
	}
	RateLimitRequestsTotal.WithLabelValues(result).Inc()
}

// UpdateRateLimitTokens updates remaining tokens gauge
func UpdateRateLimitTokens(clientID string, tokens float64) {
	RateLimitTokensRemaining.WithLabelValues(clientID).Set(tokens)
}

// SetApplicationInfo sets application information
func SetApplicationInfo(version, buildTime, goVersion string) {
	ApplicationInfo.WithLabelValues(version, buildTime, goVersion).Set(1)
}

// UpdateUptime updates application uptime
func UpdateUptime(seconds float64) {
	UptimeSeconds.Set(seconds)
}
