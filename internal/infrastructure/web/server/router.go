package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "crypto-pulse-service/docs"
	"crypto-pulse-service/internal/infrastructure/config"
	"crypto-pulse-service/internal/infrastructure/metrics"
	"crypto-pulse-service/internal/infrastructure/ratelimit"
	"crypto-pulse-service/internal/infrastructure/web/handlers"
	"crypto-pulse-service/internal/infrastructure/web/middleware"
	"crypto-pulse-service/internal/infrastructure/web/realtime"
)

// Routes groups the handlers mounted by NewRouter
type Routes struct {
	Market      *handlers.MarketHandler
	Alerts      *handlers.AlertHandler
	Preferences *handlers.PreferencesHandler
	Health      *handlers.HealthHandler
	Hub         *realtime.Hub
}

// NewRouter builds the gorilla/mux router with the middleware chain
// tracing -> logging -> metrics -> cors -> auth -> rate limit.
func NewRouter(routes Routes, auth config.AuthConfig, rateLimit config.RateLimitConfig) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", routes.Health.Health).Methods(http.MethodGet)
	r.HandleFunc("/ready", routes.Health.Ready).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler())
	r.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.HandleFunc("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
	if routes.Hub != nil {
		r.HandleFunc("/ws", routes.Hub.ServeWS).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	m := routes.Market
	api.HandleFunc("/coins", m.GetCoins).Methods(http.MethodGet)
	api.HandleFunc("/coins/{id}", m.GetCoinDetails).Methods(http.MethodGet)
	api.HandleFunc("/coins/{id}/chart", m.GetChart).Methods(http.MethodGet)
	api.HandleFunc("/coins/{id}/rates", m.GetRates).Methods(http.MethodGet)
	api.HandleFunc("/global", m.GetGlobal).Methods(http.MethodGet)
	api.HandleFunc("/trending", m.GetTrending).Methods(http.MethodGet)
	api.HandleFunc("/search", m.Search).Methods(http.MethodGet)
	api.HandleFunc("/news", m.GetNews).Methods(http.MethodGet)
	api.HandleFunc("/convert", m.Convert).Methods(http.MethodGet)

	a := routes.Alerts
	api.HandleFunc("/alerts", a.ListAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts", a.CreateAlert).Methods(http.MethodPost)
	api.HandleFunc("/alerts/triggered", a.ClearTriggered).Methods(http.MethodDelete)
	api.HandleFunc("/alerts/{id}", a.DeleteAlert).Methods(http.MethodDelete)

	p := routes.Preferences
	api.HandleFunc("/watchlist", p.GetWatchlist).Methods(http.MethodGet)
	api.HandleFunc("/watchlist/{id}", p.IsWatched).Methods(http.MethodGet)
	api.HandleFunc("/watchlist/{id}", p.AddToWatchlist).Methods(http.MethodPost)
	api.HandleFunc("/watchlist/{id}", p.RemoveFromWatchlist).Methods(http.MethodDelete)
	api.HandleFunc("/watchlist/{id}/toggle", p.ToggleWatchlist).Methods(http.MethodPost)
	api.HandleFunc("/theme", p.GetTheme).Methods(http.MethodGet)
	api.HandleFunc("/theme", p.SetTheme).Methods(http.MethodPut)
	api.HandleFunc("/theme/toggle", p.ToggleTheme).Methods(http.MethodPost)

	// Apply middleware, outermost last
	var h http.Handler = r
	h = ratelimit.NewRateLimitMiddleware(rateLimit).Handler(h)
	h = middleware.NewAuthMiddleware(auth).Handler(h)
	h = middleware.CORSMiddleware(h)
	h = metrics.HTTPMetricsMiddleware(h)
	h = middleware.LoggingMiddleware(h)
	h = middleware.RequestTracingMiddleware(h)
	return h
}
