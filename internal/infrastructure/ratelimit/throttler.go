package ratelimit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"crypto-pulse-service/internal/infrastructure/logging"
	"crypto-pulse-service/internal/infrastructure/metrics"
)

// Límites conservadores del plan público de CoinGecko
const (
	DefaultMinInterval       = 1500 * time.Millisecond
	DefaultRateLimitCooldown = 5 * time.Second
)

// ThrottlerConfig configura el espaciado entre requests al upstream
type ThrottlerConfig struct {
	Service     string
	MinInterval time.Duration
	Cooldown    time.Duration
	Timeout     time.Duration
}

// Throttler serializa todas las requests a un mismo upstream: entre dos
// requests consecutivas pasan al menos MinInterval, y un 429 provoca una
// espera de Cooldown y exactamente un reintento.
type Throttler struct {
	mu          sync.Mutex
	lastRequest time.Time

	client      *http.Client
	service     string
	minInterval time.Duration
	cooldown    time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewThrottler crea un Throttler con su propio http.Client
func NewThrottler(cfg ThrottlerConfig) *Throttler {
	if cfg.MinInterval < 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultRateLimitCooldown
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Service == "" {
		cfg.Service = "coingecko"
	}

	return &Throttler{
		client:      &http.Client{Timeout: cfg.Timeout},
		service:     cfg.Service,
		minInterval: cfg.MinInterval,
		cooldown:    cfg.Cooldown,
		now:         time.Now,
		sleep:       sleepContext,
	}
}

// WithHTTPClient reemplaza el cliente HTTP (tests con httptest)
func (t *Throttler) WithHTTPClient(client *http.Client) *Throttler {
	t.client = client
	return t
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// reserve toma el siguiente slot libre y duerme hasta que llegue.
// lastRequest se actualiza antes de soltar el lock, así dos callers
// concurrentes nunca obtienen el mismo slot. Si el ctx se cancela antes
// de llegar al slot, éste se libera para el siguiente caller.
func (t *Throttler) reserve(ctx context.Context) (time.Time, error) {
	t.mu.Lock()
	now := t.now()
	prev := t.lastRequest
	slot := now
	if next := prev.Add(t.minInterval); !prev.IsZero() && now.Before(next) {
		slot = next
	}
	t.lastRequest = slot
	t.mu.Unlock()

	wait := slot.Sub(now)
	metrics.RecordThrottleWait(wait.Seconds())

	var err error
	if wait <= 0 {
		err = ctx.Err()
	} else {
		err = t.sleep(ctx, wait)
	}
	if err != nil {
		t.release(slot, prev)
	}
	return slot, err
}

// release devuelve un slot no usado. Sólo se puede deshacer la última
// reserva; si otro caller ya encadenó la suya, el hueco se mantiene.
func (t *Throttler) release(slot, prev time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastRequest.Equal(slot) {
		t.lastRequest = prev
	}
}

// Get realiza un GET respetando el espaciado mínimo. La segunda respuesta
// tras un 429 se devuelve tal cual, incluso si vuelve a ser 429.
func (t *Throttler) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	endpoint := endpointOf(rawURL)

	resp, err := t.attempt(ctx, rawURL, endpoint)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		return resp, nil
	}

	drain(resp)
	metrics.RecordUpstreamRateLimited(endpoint)
	logging.ExternalAPI().Throttled(ctx, t.service, endpoint, t.cooldown)

	if err := t.sleep(ctx, t.cooldown); err != nil {
		return nil, err
	}
	return t.attempt(ctx, rawURL, endpoint)
}

func (t *Throttler) attempt(ctx context.Context, rawURL, endpoint string) (*http.Response, error) {
	if _, err := t.reserve(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	logging.ExternalAPI().RequestStarted(ctx, t.service, endpoint, http.MethodGet)
	start := time.Now()
	resp, err := t.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		metrics.RecordUpstreamCall(t.service, endpoint, 0, duration.Seconds())
		logging.ExternalAPI().RequestFailed(ctx, t.service, endpoint, 0, err, float64(duration.Milliseconds()))
		return nil, err
	}

	metrics.RecordUpstreamCall(t.service, endpoint, resp.StatusCode, duration.Seconds())
	logging.ExternalAPI().RequestCompleted(ctx, t.service, endpoint, resp.StatusCode, float64(duration.Milliseconds()))
	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

// endpointOf keeps only the path, with coin ids collapsed, so metric labels stay bounded
func endpointOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "unknown"
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] == "coins" && segments[i+1] != "markets" {
			segments[i+1] = "{id}"
		}
	}
	return "/" + strings.Join(segments, "/")
}
