package config

import (
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Redis       RedisConfig       `yaml:"redis" mapstructure:"redis"`
	Upstream    UpstreamConfig    `yaml:"upstream" mapstructure:"upstream"`
	Query       QueryConfig       `yaml:"query" mapstructure:"query"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Alerts      AlertsConfig      `yaml:"alerts" mapstructure:"alerts"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" mapstructure:"rate_limit"`
	Auth        AuthConfig        `yaml:"auth" mapstructure:"auth"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
	Development DevelopmentConfig `yaml:"development" mapstructure:"development"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" mapstructure:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	// QueryWait bounds how long an HTTP handler waits for a query without data to settle
	QueryWait time.Duration `yaml:"query_wait" mapstructure:"query_wait"`
}

// CacheConfig contains response cache configuration
type CacheConfig struct {
	Backend    string        `yaml:"backend" mapstructure:"backend"`
	TTL        time.Duration `yaml:"ttl" mapstructure:"ttl"`
	MaxEntries int           `yaml:"max_entries" mapstructure:"max_entries"`
}

// RedisConfig is shared by every Redis backed component
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// UpstreamConfig groups the third-party APIs
type UpstreamConfig struct {
	CoinGecko   CoinGeckoConfig   `yaml:"coingecko" mapstructure:"coingecko"`
	CryptoPanic CryptoPanicConfig `yaml:"cryptopanic" mapstructure:"cryptopanic"`
}

// CoinGeckoConfig contains the market data API settings and its throttle
type CoinGeckoConfig struct {
	BaseURL           string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MinInterval       time.Duration `yaml:"min_interval" mapstructure:"min_interval"`
	RateLimitCooldown time.Duration `yaml:"rate_limit_cooldown" mapstructure:"rate_limit_cooldown"`
	VsCurrencies      []string      `yaml:"vs_currencies" mapstructure:"vs_currencies"`
}

// CryptoPanicConfig contains the news API settings
type CryptoPanicConfig struct {
	BaseURL    string        `yaml:"base_url" mapstructure:"base_url"`
	APIKey     string        `yaml:"api_key" mapstructure:"api_key"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxResults int           `yaml:"max_results" mapstructure:"max_results"`
}

// QueryConfig contiene los valores por defecto del coordinador de queries
type QueryConfig struct {
	RetryCount     int           `yaml:"retry_count" mapstructure:"retry_count"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay" mapstructure:"retry_base_delay"`
	MaxRetryDelay  time.Duration `yaml:"max_retry_delay" mapstructure:"max_retry_delay"`
	GCTime         time.Duration `yaml:"gc_time" mapstructure:"gc_time"`
}

// StoreConfig selects where client state (watchlist, alerts, theme) is persisted
type StoreConfig struct {
	Backend     string         `yaml:"backend" mapstructure:"backend"`
	Path        string         `yaml:"path" mapstructure:"path"`
	RedisPrefix string         `yaml:"redis_prefix" mapstructure:"redis_prefix"`
	Postgres    PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	User            string        `yaml:"user" mapstructure:"user"`
	Password        string        `yaml:"password" mapstructure:"password"`
	Name            string        `yaml:"name" mapstructure:"name"`
	SSLMode         string        `yaml:"ssl_mode" mapstructure:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// AlertsConfig contains the alert watcher and notification sink settings
type AlertsConfig struct {
	WatchEnabled bool   `yaml:"watch_enabled" mapstructure:"watch_enabled"`
	WatchPerPage int    `yaml:"watch_per_page" mapstructure:"watch_per_page"`
	RedisNotify  bool   `yaml:"redis_notify" mapstructure:"redis_notify"`
	Channel      string `yaml:"channel" mapstructure:"channel"`
}

// RateLimitConfig contains inbound rate limiting configuration
type RateLimitConfig struct {
	Enabled    bool `yaml:"enabled" mapstructure:"enabled"`
	Capacity   int  `yaml:"capacity" mapstructure:"capacity"`
	RefillRate int  `yaml:"refill_rate" mapstructure:"refill_rate"`
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	Enabled     bool     `yaml:"enabled" mapstructure:"enabled,string"`
	APIKey      string   `yaml:"api_key" mapstructure:"api_key"`
	HeaderName  string   `yaml:"header_name" mapstructure:"header_name"`
	UnauthPaths []string `yaml:"unauth_paths" mapstructure:"unauth_paths"`
}

// LoggingConfig contains logging system configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DevelopmentConfig contiene configuraciones para desarrollo
type DevelopmentConfig struct {
	DebugMode bool `yaml:"debug_mode" mapstructure:"debug_mode"`
}

// DefaultVsCurrencies is the currency list requested by /simple/price
var DefaultVsCurrencies = []string{
	"usd", "eur", "gbp", "jpy", "aud", "cad", "chf", "cny", "inr", "btc", "eth",
	"mxn", "brl", "sek", "nok", "dkk", "pln", "try", "rub", "krw", "sgd", "hkd",
	"thb", "idr", "php", "myr", "aed", "sar", "zar", "xau", "xag", "sats",
}

// GetDefaultConfig returns the default configuration
func GetDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 30 * time.Second,
			QueryWait:       10 * time.Second,
		},
		Cache: CacheConfig{
			Backend:    "memory",
			TTL:        60 * time.Second,
			MaxEntries: 1000,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
		},
		Upstream: UpstreamConfig{
			CoinGecko: CoinGeckoConfig{
				BaseURL:           "https://api.coingecko.com/api/v3",
				Timeout:           10 * time.Second,
				MinInterval:       1500 * time.Millisecond,
				RateLimitCooldown: 5 * time.Second,
				VsCurrencies:      append([]string(nil), DefaultVsCurrencies...),
			},
			CryptoPanic: CryptoPanicConfig{
				BaseURL:    "https://cryptopanic.com/api/v1",
				APIKey:     "",
				Timeout:    10 * time.Second,
				MaxResults: 8,
			},
		},
		Query: QueryConfig{
			RetryCount:     3,
			RetryBaseDelay: time.Second,
			MaxRetryDelay:  30 * time.Second,
			GCTime:         5 * time.Minute,
		},
		Store: StoreConfig{
			Backend:     "bolt",
			Path:        "data/crypto-pulse.db",
			RedisPrefix: "crypto-pulse:state:",
			Postgres: PostgresConfig{
				Host:            "localhost",
				Port:            5432,
				User:            "postgres",
				Name:            "crypto_pulse",
				SSLMode:         "disable",
				MaxOpenConns:    10,
				MaxIdleConns:    5,
				ConnMaxLifetime: 30 * time.Minute,
			},
		},
		Alerts: AlertsConfig{
			WatchEnabled: true,
			WatchPerPage: 100,
			RedisNotify:  false,
			Channel:      "crypto-pulse:alerts",
		},
		RateLimit: RateLimitConfig{
			Enabled:    true,
			Capacity:   100,
			RefillRate: 10,
		},
		Auth: AuthConfig{
			Enabled:     false, // Disabled by default
			APIKey:      "",
			HeaderName:  "X-API-Key",
			UnauthPaths: []string{"/health", "/ready", "/metrics", "/swagger/", "/docs"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Development: DevelopmentConfig{
			DebugMode: false,
		},
	}
}
