package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Loader handles configuration loading using Viper
type Loader struct {
	v       *viper.Viper
	envFile string
}

// NewLoader creates a new configuration loader instance
func NewLoader() *Loader {
	return &Loader{
		v:       viper.New(),
		envFile: ".env",
	}
}

// WithEnvFile cambia el archivo .env que se carga antes de leer variables
func (l *Loader) WithEnvFile(path string) *Loader {
	l.envFile = path
	return l
}

// Load loads configuration from .env, files and environment variables
func (l *Loader) Load() (*Config, error) {
	// 1. .env never overrides variables already present in the environment
	if err := l.loadEnvFile(); err != nil {
		return nil, err
	}

	// 2. Configure Viper
	l.setupViper()

	// 3. Read configuration
	if err := l.v.ReadInConfig(); err != nil {
		// If config.yaml doesn't exist, use only env vars and defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 4. Unmarshal onto the defaults
	config := GetDefaultConfig()
	if err := l.v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	l.overrideWithEnvVars(config)

	return config, nil
}

func (l *Loader) loadEnvFile() error {
	if l.envFile == "" {
		return nil
	}
	if err := godotenv.Load(l.envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", l.envFile, err)
	}
	return nil
}

// setupViper configures Viper to read files and env vars
func (l *Loader) setupViper() {
	l.v.SetConfigName("config")
	l.v.SetConfigType("yaml")

	l.v.AddConfigPath("./configs")
	l.v.AddConfigPath("../configs") // For when running from cmd/
	l.v.AddConfigPath(".")
	l.v.AddConfigPath("/etc/crypto-pulse")

	// CRYPTO_PULSE_SERVER_PORT -> server.port
	l.v.AutomaticEnv()
	l.v.SetEnvPrefix("CRYPTO_PULSE")
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	l.bindEnvVars()
}

// bindEnvVars maps short environment variable names to configuration keys
func (l *Loader) bindEnvVars() {
	envMappings := map[string]string{
		"server.port":                            "PORT",
		"server.query_wait":                      "QUERY_WAIT",
		"cache.backend":                          "CACHE_BACKEND",
		"cache.ttl":                              "CACHE_TTL",
		"cache.max_entries":                      "CACHE_MAX_ENTRIES",
		"redis.addr":                             "REDIS_ADDR",
		"redis.password":                         "REDIS_PASSWORD",
		"redis.db":                               "REDIS_DB",
		"upstream.coingecko.base_url":            "COINGECKO_BASE_URL",
		"upstream.coingecko.min_interval":        "COINGECKO_MIN_INTERVAL",
		"upstream.coingecko.rate_limit_cooldown": "COINGECKO_RATE_LIMIT_COOLDOWN",
		"upstream.cryptopanic.api_key":           "CRYPTOPANIC_API_KEY",
		"upstream.cryptopanic.base_url":          "CRYPTOPANIC_BASE_URL",
		"store.backend":                          "STORE_BACKEND",
		"store.path":                             "STORE_PATH",
		"store.postgres.host":                    "POSTGRES_HOST",
		"store.postgres.port":                    "POSTGRES_PORT",
		"store.postgres.user":                    "POSTGRES_USER",
		"store.postgres.password":                "POSTGRES_PASSWORD",
		"store.postgres.name":                    "POSTGRES_DB",
		"alerts.watch_enabled":                   "ALERTS_WATCH_ENABLED",
		"alerts.redis_notify":                    "ALERTS_REDIS_NOTIFY",
		"logging.level":                          "LOG_LEVEL",
		"logging.format":                         "LOG_FORMAT",
		"rate_limit.capacity":                    "RATE_LIMIT_CAPACITY",
		"rate_limit.refill_rate":                 "RATE_LIMIT_REFILL_RATE",
		"rate_limit.enabled":                     "RATE_LIMIT_ENABLED",
		"auth.enabled":                           "AUTH_ENABLED",
		"auth.api_key":                           "API_KEY",
	}

	for configKey, envVar := range envMappings {
		_ = l.v.BindEnv(configKey, envVar)
	}
}

// overrideWithEnvVars maneja casos especiales de env vars
func (l *Loader) overrideWithEnvVars(config *Config) {
	// VS_CURRENCIES como string separado por comas
	if raw := os.Getenv("VS_CURRENCIES"); raw != "" {
		var currencies []string
		for _, c := range strings.Split(raw, ",") {
			c = strings.TrimSpace(strings.ToLower(c))
			if c != "" {
				currencies = append(currencies, c)
			}
		}
		if len(currencies) > 0 {
			config.Upstream.CoinGecko.VsCurrencies = currencies
		}
	}

	if debugMode := os.Getenv("DEBUG_MODE"); debugMode == "true" || debugMode == "1" {
		config.Development.DebugMode = true
	}
}

// LoadForEnvironment loads specific configuration for an environment
func (l *Loader) LoadForEnvironment(environment string) (*Config, error) {
	config, err := l.Load()
	if err != nil {
		return nil, err
	}

	if environment == "" {
		return config, nil
	}

	l.v.SetConfigName(fmt.Sprintf("config.%s", environment))
	if err := l.v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to merge environment config: %w", err)
		}
	}

	if err := l.v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal merged config: %w", err)
	}
	l.overrideWithEnvVars(config)

	return config, nil
}

// GetEnvironment determina el entorno actual desde ENV vars
func GetEnvironment() string {
	env := strings.ToLower(os.Getenv("ENV"))
	if env == "" {
		env = strings.ToLower(os.Getenv("ENVIRONMENT"))
	}
	if env == "" {
		env = "development"
	}
	return env
}
