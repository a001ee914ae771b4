package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"crypto-pulse-service/internal/application/dto"
	"crypto-pulse-service/internal/application/query"
	"crypto-pulse-service/internal/application/services"
	"crypto-pulse-service/internal/domain/entities"
	"crypto-pulse-service/internal/infrastructure/exchange/coingecko"
	"crypto-pulse-service/internal/infrastructure/logging"
)

// DefaultQueryWait is used when no wait is configured
const DefaultQueryWait = 3 * time.Second

// MarketHandler serves the market queries as request/response snapshots.
// Each request subscribes, waits up to wait for a settled state and
// unsubscribes; the query stays cached for the next caller.
type MarketHandler struct {
	market    *services.MarketService
	converter *services.Converter
	wait      time.Duration
}

// NewMarketHandler creates a new instance of the market handler
func NewMarketHandler(market *services.MarketService, converter *services.Converter, wait time.Duration) *MarketHandler {
	if wait <= 0 {
		wait = DefaultQueryWait
	}
	return &MarketHandler{market: market, converter: converter, wait: wait}
}

// GetCoins godoc
// @Summary Top coins by market cap
// @Description Returns one page of /coins/markets. The optional q parameter filters the page locally by name or symbol.
// @Tags market
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Rows per page (1-250)" default(100)
// @Param sparkline query bool false "Include 7 day sparkline" default(false)
// @Param q query string false "Local fuzzy filter"
// @Param refresh query bool false "Force a refetch"
// @Success 200 {object} dto.QueryResponse
// @Failure 502 {object} dto.QueryResponse "Upstream failed and no data is cached"
// @Router /api/v1/coins [get]
func (h *MarketHandler) GetCoins(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	page, _ := strconv.Atoi(params.Get("page"))
	perPage, _ := strconv.Atoi(params.Get("per_page"))
	sparkline, _ := strconv.ParseBool(params.Get("sparkline"))

	sub, err := h.market.TopCoins(page, perPage, sparkline)

	var transform func(json.RawMessage) (json.RawMessage, error)
	if term := params.Get("q"); term != "" {
		transform = func(raw json.RawMessage) (json.RawMessage, error) {
			return services.FilterCoinsRaw(raw, term)
		}
	}
	h.serveQuery(w, r, sub, err, transform)
}

// GetGlobal godoc
// @Summary Global market statistics
// @Tags market
// @Produce json
// @Success 200 {object} dto.QueryResponse
// @Router /api/v1/global [get]
func (h *MarketHandler) GetGlobal(w http.ResponseWriter, r *http.Request) {
	sub, err := h.market.Global()
	h.serveQuery(w, r, sub, err, nil)
}

// GetCoinDetails godoc
// @Summary Coin details
// @Tags market
// @Produce json
// @Param id path string true "Coin id" example(bitcoin)
// @Success 200 {object} dto.QueryResponse
// @Router /api/v1/coins/{id} [get]
func (h *MarketHandler) GetCoinDetails(w http.ResponseWriter, r *http.Request) {
	sub, err := h.market.Details(mux.Vars(r)["id"])
	h.serveQuery(w, r, sub, err, nil)
}

// GetChart godoc
// @Summary Price history of a coin
// @Tags market
// @Produce json
// @Param id path string true "Coin id" example(bitcoin)
// @Param days query string false "Days of history (1, 7, 14, 30, 90, 180, 365, max)" default(7)
// @Success 200 {object} dto.QueryResponse
// @Router /api/v1/coins/{id}/chart [get]
func (h *MarketHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	sub, err := h.market.Chart(mux.Vars(r)["id"], r.URL.Query().Get("days"))
	h.serveQuery(w, r, sub, err, nil)
}

// GetRates godoc
// @Summary Exchange rates of a coin
// @Tags market
// @Produce json
// @Param id path string true "Coin id" example(bitcoin)
// @Success 200 {object} dto.QueryResponse
// @Router /api/v1/coins/{id}/rates [get]
func (h *MarketHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	sub, err := h.market.Rates(mux.Vars(r)["id"])
	h.serveQuery(w, r, sub, err, nil)
}

// GetTrending godoc
// @Summary Trending coins
// @Tags market
// @Produce json
// @Success 200 {object} dto.QueryResponse
// @Router /api/v1/trending [get]
func (h *MarketHandler) GetTrending(w http.ResponseWriter, r *http.Request) {
	sub, err := h.market.Trending()
	h.serveQuery(w, r, sub, err, nil)
}

// Search godoc
// @Summary Search coins
// @Description Queries shorter than two characters are not sent upstream and return status idle.
// @Tags market
// @Produce json
// @Param q query string true "Search text" example(bitcoin)
// @Success 200 {object} dto.QueryResponse
// @Router /api/v1/search [get]
func (h *MarketHandler) Search(w http.ResponseWriter, r *http.Request) {
	sub, err := h.market.Search(r.URL.Query().Get("q"))
	h.serveQuery(w, r, sub, err, nil)
}

// GetNews godoc
// @Summary Latest crypto news
// @Description Falls back to a fixed set of headlines when the news provider is unavailable.
// @Tags news
// @Produce json
// @Param filter query string false "Feed filter" Enums(all, rising, hot, bullish, bearish)
// @Param currencies query string false "Comma separated currency codes" example(BTC,ETH)
// @Success 200 {object} dto.QueryResponse
// @Router /api/v1/news [get]
func (h *MarketHandler) GetNews(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	sub, err := h.market.News(entities.ParseNewsFilter(params.Get("filter")), params.Get("currencies"))
	h.serveQuery(w, r, sub, err, nil)
}

// Convert godoc
// @Summary Convert an amount of a coin
// @Tags market
// @Produce json
// @Param from query string true "Coin id" example(bitcoin)
// @Param to query string false "Target currency" default(usd)
// @Param amount query string false "Amount to convert" default(1)
// @Success 200 {object} dto.ConversionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse "No rate for the pair"
// @Router /api/v1/convert [get]
func (h *MarketHandler) Convert(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	to := params.Get("to")
	if to == "" {
		to = "usd"
	}
	amount := params.Get("amount")
	if amount == "" {
		amount = "1"
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.wait)
	defer cancel()

	conversion, err := h.converter.Convert(ctx, params.Get("from"), to, amount)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSONResponse(r.Context(), w, http.StatusOK, dto.ToConversionResponse(conversion))
}

func (h *MarketHandler) serveQuery(w http.ResponseWriter, r *http.Request, sub *query.Subscription, err error, transform func(json.RawMessage) (json.RawMessage, error)) {
	ctx := r.Context()
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	defer sub.Unsubscribe()

	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		if err := sub.Refetch(); err != nil && !errors.Is(err, query.ErrQueryDisabled) {
			writeServiceError(ctx, w, err)
			return
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, h.wait)
	state, err := sub.WaitSettled(waitCtx)
	cancel()

	switch {
	case err == nil, errors.Is(err, context.DeadlineExceeded):
	case ctx.Err() != nil:
		// client went away
		return
	default:
		writeServiceError(ctx, w, fmt.Errorf("%w: %w", query.ErrClosed, err))
		return
	}

	if transform != nil && state.HasData() {
		data, err := transform(state.Data)
		if err != nil {
			writeServiceError(ctx, w, fmt.Errorf("%w: %w", coingecko.ErrMalformedPayload, err))
			return
		}
		state.Data = data
	}

	status := http.StatusOK
	if state.Status == query.StatusError && !state.HasData() {
		status, _ = classifyError(state.Err)
		logging.Debug(ctx, "Query failed without cached data", logging.Fields{
			"key":   state.Key,
			"error": state.ErrorMessage(),
		})
	}
	writeJSONResponse(ctx, w, status, dto.ToQueryResponse(state))
}
