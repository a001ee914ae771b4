package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test from an empty directory so no real config.yaml is picked up
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoader_DefaultsWithoutConfigFile(t *testing.T) {
	chdirTemp(t)

	cfg, err := NewLoader().Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 1500*time.Millisecond, cfg.Upstream.CoinGecko.MinInterval)
	assert.Equal(t, 5*time.Second, cfg.Upstream.CoinGecko.RateLimitCooldown)
	assert.Equal(t, "bolt", cfg.Store.Backend)
}

func TestLoader_ReadsYAMLFile(t *testing.T) {
	dir := chdirTemp(t)
	yaml := []byte(`
server:
  port: 9090
cache:
  ttl: 45s
  max_entries: 50
upstream:
  coingecko:
    min_interval: 2s
store:
  backend: memory
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	cfg, err := NewLoader().Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 45*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 50, cfg.Cache.MaxEntries)
	assert.Equal(t, 2*time.Second, cfg.Upstream.CoinGecko.MinInterval)
	assert.Equal(t, "memory", cfg.Store.Backend)
	// untouched sections keep their defaults
	assert.Equal(t, "https://api.coingecko.com/api/v3", cfg.Upstream.CoinGecko.BaseURL)
}

func TestLoader_EnvVarsOverrideDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PORT", "7070")
	t.Setenv("CRYPTOPANIC_API_KEY", "secret")
	t.Setenv("VS_CURRENCIES", "USD, eur ,,btc")

	cfg, err := NewLoader().Load()

	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "secret", cfg.Upstream.CryptoPanic.APIKey)
	assert.Equal(t, []string{"usd", "eur", "btc"}, cfg.Upstream.CoinGecko.VsCurrencies)
}

func TestLoader_DotEnvFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.env"), []byte("STORE_BACKEND=redis\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("STORE_BACKEND") })

	cfg, err := NewLoader().WithEnvFile(filepath.Join(dir, "test.env")).Load()

	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Store.Backend)
}

func TestLoader_MissingDotEnvIsIgnored(t *testing.T) {
	chdirTemp(t)

	_, err := NewLoader().WithEnvFile("does-not-exist.env").Load()

	assert.NoError(t, err)
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("ENVIRONMENT", "")
	assert.Equal(t, "development", GetEnvironment())

	t.Setenv("ENVIRONMENT", "Production")
	assert.Equal(t, "production", GetEnvironment())

	t.Setenv("ENV", "staging")
	assert.Equal(t, "staging", GetEnvironment())
}
