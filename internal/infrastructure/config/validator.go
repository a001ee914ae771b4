package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validator valida la configuración cargada
type Validator struct{}

// NewValidator crea una nueva instancia del validador
func NewValidator() *Validator {
	return &Validator{}
}

// Validate valida toda la configuración
func (v *Validator) Validate(config *Config) error {
	if err := v.validateServer(config.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if err := v.validateCache(config.Cache, config.Redis); err != nil {
		return fmt.Errorf("cache config validation failed: %w", err)
	}

	if err := v.validateUpstream(config.Upstream); err != nil {
		return fmt.Errorf("upstream config validation failed: %w", err)
	}

	if err := v.validateQuery(config.Query); err != nil {
		return fmt.Errorf("query config validation failed: %w", err)
	}

	if err := v.validateStore(config.Store, config.Redis); err != nil {
		return fmt.Errorf("store config validation failed: %w", err)
	}

	if err := v.validateAlerts(config.Alerts, config.Redis); err != nil {
		return fmt.Errorf("alerts config validation failed: %w", err)
	}

	if err := v.validateRateLimit(config.RateLimit); err != nil {
		return fmt.Errorf("rate limit config validation failed: %w", err)
	}

	if err := v.validateLogging(config.Logging); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}

	return nil
}

// validateServer valida la configuración del servidor
func (v *Validator) validateServer(config ServerConfig) error {
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("invalid port: %d, must be between 1-65535", config.Port)
	}

	if config.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got: %v", config.ShutdownTimeout)
	}

	if config.ShutdownTimeout > 5*time.Minute {
		return fmt.Errorf("shutdown_timeout too long: %v, max 5 minutes", config.ShutdownTimeout)
	}

	if config.QueryWait <= 0 {
		return fmt.Errorf("query_wait must be positive, got: %v", config.QueryWait)
	}

	return nil
}

// validateCache valida la caché de respuestas
func (v *Validator) validateCache(config CacheConfig, redis RedisConfig) error {
	validBackends := []string{"memory", "redis"}
	if !contains(validBackends, config.Backend) {
		return fmt.Errorf("invalid cache backend: %s, must be one of: %v", config.Backend, validBackends)
	}

	if err := v.validateTTL(config.TTL); err != nil {
		return err
	}

	if config.MaxEntries < 0 {
		return fmt.Errorf("cache max_entries cannot be negative, got: %d", config.MaxEntries)
	}

	if config.Backend == "redis" {
		return v.validateRedis(redis)
	}

	return nil
}

// validateTTL rechaza TTLs que vaciarían la caché o servirían datos muy viejos
func (v *Validator) validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %v", ttl)
	}

	if ttl < time.Second {
		return fmt.Errorf("cache TTL too short: %v, min 1s", ttl)
	}

	if ttl > time.Hour {
		return fmt.Errorf("cache TTL too long: %v, max 1 hour", ttl)
	}

	return nil
}

// validateRedis valida la configuración de Redis
func (v *Validator) validateRedis(config RedisConfig) error {
	if config.Addr == "" {
		return fmt.Errorf("redis addr cannot be empty")
	}

	if !strings.Contains(config.Addr, ":") {
		return fmt.Errorf("invalid redis addr format: %s, expected host:port", config.Addr)
	}

	if config.DB < 0 || config.DB > 15 {
		return fmt.Errorf("invalid redis DB: %d, must be between 0-15", config.DB)
	}

	return nil
}

// validateUpstream valida las APIs externas y el throttle
func (v *Validator) validateUpstream(config UpstreamConfig) error {
	cg := config.CoinGecko
	if err := v.validateURL(cg.BaseURL, "coingecko base_url"); err != nil {
		return err
	}

	if cg.Timeout <= 0 {
		return fmt.Errorf("coingecko timeout must be positive, got: %v", cg.Timeout)
	}

	if cg.MinInterval < 0 {
		return fmt.Errorf("coingecko min_interval cannot be negative, got: %v", cg.MinInterval)
	}

	if cg.RateLimitCooldown <= 0 {
		return fmt.Errorf("coingecko rate_limit_cooldown must be positive, got: %v", cg.RateLimitCooldown)
	}

	if len(cg.VsCurrencies) == 0 {
		return fmt.Errorf("coingecko vs_currencies cannot be empty")
	}

	cp := config.CryptoPanic
	if err := v.validateURL(cp.BaseURL, "cryptopanic base_url"); err != nil {
		return err
	}

	if cp.MaxResults <= 0 {
		return fmt.Errorf("cryptopanic max_results must be positive, got: %d", cp.MaxResults)
	}

	return nil
}

// validateQuery valida los valores por defecto de reintentos
func (v *Validator) validateQuery(config QueryConfig) error {
	if config.RetryCount < 0 || config.RetryCount > 10 {
		return fmt.Errorf("query retry_count must be between 0-10, got: %d", config.RetryCount)
	}

	if config.RetryBaseDelay <= 0 {
		return fmt.Errorf("query retry_base_delay must be positive, got: %v", config.RetryBaseDelay)
	}

	if config.MaxRetryDelay < config.RetryBaseDelay {
		return fmt.Errorf("query max_retry_delay (%v) should not be less than retry_base_delay (%v)", config.MaxRetryDelay, config.RetryBaseDelay)
	}

	if config.GCTime < 0 {
		return fmt.Errorf("query gc_time cannot be negative, got: %v", config.GCTime)
	}

	return nil
}

// validateStore valida el backend de persistencia del estado del cliente
func (v *Validator) validateStore(config StoreConfig, redis RedisConfig) error {
	validBackends := []string{"memory", "bolt", "redis", "postgres"}
	if !contains(validBackends, config.Backend) {
		return fmt.Errorf("invalid store backend: %s, must be one of: %v", config.Backend, validBackends)
	}

	switch strings.ToLower(config.Backend) {
	case "bolt":
		if config.Path == "" {
			return fmt.Errorf("store path cannot be empty for bolt backend")
		}
	case "redis":
		return v.validateRedis(redis)
	case "postgres":
		pg := config.Postgres
		if pg.Host == "" || pg.Name == "" || pg.User == "" {
			return fmt.Errorf("postgres host, name and user are required")
		}
		if pg.Port <= 0 || pg.Port > 65535 {
			return fmt.Errorf("invalid postgres port: %d", pg.Port)
		}
	}

	return nil
}

func (v *Validator) validateAlerts(config AlertsConfig, redis RedisConfig) error {
	if config.WatchEnabled && (config.WatchPerPage <= 0 || config.WatchPerPage > 250) {
		return fmt.Errorf("alerts watch_per_page must be between 1-250, got: %d", config.WatchPerPage)
	}

	if config.RedisNotify {
		if config.Channel == "" {
			return fmt.Errorf("alerts channel cannot be empty when redis_notify is enabled")
		}
		return v.validateRedis(redis)
	}

	return nil
}

// validateRateLimit valida la configuración de rate limiting
func (v *Validator) validateRateLimit(config RateLimitConfig) error {
	if config.Enabled {
		if config.Capacity <= 0 {
			return fmt.Errorf("rate_limit capacity must be positive when enabled, got: %d", config.Capacity)
		}

		if config.RefillRate <= 0 {
			return fmt.Errorf("rate_limit refill_rate must be positive when enabled, got: %d", config.RefillRate)
		}

		if config.Capacity > 10000 {
			return fmt.Errorf("rate_limit capacity too high: %d, max 10000", config.Capacity)
		}

		if config.RefillRate > 1000 {
			return fmt.Errorf("rate_limit refill_rate too high: %d, max 1000", config.RefillRate)
		}
	}

	return nil
}

// validateLogging valida la configuración de logging
func (v *Validator) validateLogging(config LoggingConfig) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, strings.ToLower(config.Level)) {
		return fmt.Errorf("invalid log level: %s, must be one of: %v", config.Level, validLevels)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, strings.ToLower(config.Format)) {
		return fmt.Errorf("invalid log format: %s, must be one of: %v", config.Format, validFormats)
	}

	return nil
}

// validateURL valida que una URL sea válida para HTTP/HTTPS
func (v *Validator) validateURL(rawURL, fieldName string) error {
	if rawURL == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid %s: %s, error: %v", fieldName, rawURL, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("invalid %s scheme: %s, must be http or https", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s must have a host", fieldName)
	}

	return nil
}

// contains verifica si un slice contiene un elemento
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
