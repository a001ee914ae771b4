package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"crypto-pulse-service/internal/application/alerts"
	"crypto-pulse-service/internal/application/query"
	"crypto-pulse-service/internal/application/services"
	"crypto-pulse-service/internal/domain/interfaces"
	"crypto-pulse-service/internal/infrastructure/config"
	"crypto-pulse-service/internal/infrastructure/exchange/coingecko"
	"crypto-pulse-service/internal/infrastructure/logging"
	"crypto-pulse-service/internal/infrastructure/metrics"
	"crypto-pulse-service/internal/infrastructure/news/cryptopanic"
	"crypto-pulse-service/internal/infrastructure/notification"
	"crypto-pulse-service/internal/infrastructure/ratelimit"
	"crypto-pulse-service/internal/infrastructure/repositories/cache"
	"crypto-pulse-service/internal/infrastructure/repositories/store"
	"crypto-pulse-service/internal/infrastructure/web/handlers"
	"crypto-pulse-service/internal/infrastructure/web/realtime"
	"crypto-pulse-service/internal/infrastructure/web/server"
)

const (
	serviceName = "crypto-pulse-service"
	version     = "1.0.0"
)

var buildTime = "unknown"

// @title Crypto Pulse Service API
// @version 1.0
// @description Cached and throttled CoinGecko market data, price alerts and user preferences.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func main() {
	log.Println("Starting Crypto Pulse Service...")

	cfg, err := config.NewLoader().LoadForEnvironment(config.GetEnvironment())
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	loggerConfig := logging.NewConfig(serviceName, version, config.GetEnvironment()).
		WithLevel(logging.LogLevelFromString(cfg.Logging.Level)).
		WithFormat(logging.LogFormatFromString(cfg.Logging.Format)).
		WithSource(cfg.Development.DebugMode)
	if err := logging.InitializeGlobalLoggers(loggerConfig); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	ctx := logging.WithRequestID(context.Background(), logging.GenerateRequestID())
	logging.Info(ctx, "Initializing service components", logging.Fields{
		"environment": config.GetEnvironment(),
		"cache":       cfg.Cache.Backend,
		"store":       cfg.Store.Backend,
	})

	metrics.SetApplicationInfo(version, buildTime, runtime.Version())
	startedAt := time.Now()

	// Response cache shared by every upstream client
	backend, err := cache.NewFactory().CreateCache(ctx, cache.ConfigFrom(cfg.Cache, cfg.Redis))
	if err != nil {
		logging.ErrorWithError(ctx, "Failed to create cache", err, nil)
		os.Exit(1)
	}
	if closer, ok := backend.(io.Closer); ok {
		defer closer.Close()
	}
	responseCache := cache.NewResponseCache(backend, cfg.Cache.TTL)

	// One throttled fetcher per upstream host
	gecko := cfg.Upstream.CoinGecko
	market := coingecko.NewClient(ratelimit.NewThrottler(ratelimit.ThrottlerConfig{
		Service:     "coingecko",
		MinInterval: gecko.MinInterval,
		Cooldown:    gecko.RateLimitCooldown,
		Timeout:     gecko.Timeout,
	}), responseCache, gecko)

	newsCfg := cfg.Upstream.CryptoPanic
	news := cryptopanic.NewClient(ratelimit.NewThrottler(ratelimit.ThrottlerConfig{
		Service:     "cryptopanic",
		MinInterval: time.Second,
		Timeout:     newsCfg.Timeout,
	}), newsCfg)

	coordinator := query.NewCoordinator(query.Config{
		RetryCount:     cfg.Query.RetryCount,
		RetryBaseDelay: cfg.Query.RetryBaseDelay,
		MaxRetryDelay:  cfg.Query.MaxRetryDelay,
		GCTime:         cfg.Query.GCTime,
	})
	defer coordinator.Close()

	kv, err := store.New(ctx, cfg.Store, cfg.Redis)
	if err != nil {
		logging.ErrorWithError(ctx, "Failed to open client state store", err, nil)
		os.Exit(1)
	}
	defer kv.Close()

	marketService := services.NewMarketService(coordinator, market, news)
	hub := realtime.NewHub(marketService)

	sinks := []interfaces.Notifier{notification.NewLogNotifier(), hub}
	if cfg.Alerts.RedisNotify {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		sinks = append(sinks, notification.NewRedisNotifier(rdb, cfg.Alerts.Channel))
	}
	alertService := services.NewAlertService(kv, alerts.NewEvaluator(), notification.NewMultiNotifier(sinks...))

	routes := server.Routes{
		Market:      handlers.NewMarketHandler(marketService, services.NewConverter(marketService), cfg.Server.QueryWait),
		Alerts:      handlers.NewAlertHandler(alertService),
		Preferences: handlers.NewPreferencesHandler(services.NewWatchlistService(kv), services.NewThemeService(kv)),
		Health:      handlers.NewHealthHandler(readinessChecks(kv, backend)),
		Hub:         hub,
	}
	srv := server.NewServer(server.NewRouter(routes, cfg.Auth, cfg.RateLimit), cfg.Server.Port)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	if cfg.Alerts.WatchEnabled {
		watcher := services.NewAlertWatcher(marketService, alertService, cfg.Alerts.WatchPerPage)
		go func() {
			if err := watcher.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				logging.ErrorWithError(runCtx, "Alert watcher stopped", err, nil)
			}
		}()
	}
	go reportUptime(runCtx, startedAt)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	logging.Info(ctx, "Crypto Pulse Service is running", logging.Fields{
		"port":          cfg.Server.Port,
		"alert_watcher": cfg.Alerts.WatchEnabled,
		"redis_notify":  cfg.Alerts.RedisNotify,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logging.Info(ctx, "Shutting down server", logging.Fields{"signal": sig.String()})
	case err := <-serverErr:
		if err != nil {
			logging.ErrorWithError(ctx, "HTTP server failed", err, nil)
		}
	}

	stop()
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logging.ErrorWithError(ctx, "Server forced to shutdown", err, nil)
	}

	logging.Info(ctx, "Server exited", nil)
}

// readinessChecks covers the client state store and, when it can be
// pinged, the response cache backend.
func readinessChecks(kv interfaces.KeyValueStore, backend interfaces.Cache) map[string]handlers.ReadinessCheck {
	checks := map[string]handlers.ReadinessCheck{
		"store": func(ctx context.Context) error {
			_, err := kv.Load(ctx, services.ThemeKey)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			return nil
		},
	}
	if pinger, ok := backend.(interface{ Ping(context.Context) error }); ok {
		checks["cache"] = func(ctx context.Context) error {
			if err := pinger.Ping(ctx); err != nil {
				return fmt.Errorf("cache ping: %w", err)
			}
			return nil
		}
	}
	return checks
}

func reportUptime(ctx context.Context, startedAt time.Time) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateUptime(time.Since(startedAt).Seconds())
		}
	}
}
