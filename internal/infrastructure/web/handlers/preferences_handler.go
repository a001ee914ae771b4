package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"crypto-pulse-service/internal/application/dto"
	"crypto-pulse-service/internal/application/services"
	"crypto-pulse-service/internal/domain/entities"
)

// PreferencesHandler serves the watchlist and the theme preference
type PreferencesHandler struct {
	watchlist *services.WatchlistService
	theme     *services.ThemeService
}

func NewPreferencesHandler(watchlist *services.WatchlistService, theme *services.ThemeService) *PreferencesHandler {
	return &PreferencesHandler{watchlist: watchlist, theme: theme}
}

// GetWatchlist godoc
// @Summary Watched coins
// @Tags watchlist
// @Produce json
// @Success 200 {object} dto.WatchlistResponse
// @Router /api/v1/watchlist [get]
func (h *PreferencesHandler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	list, err := h.watchlist.List(r.Context())
	h.writeWatchlist(w, r, list, err)
}

// IsWatched godoc
// @Summary Whether a coin is watched
// @Tags watchlist
// @Produce json
// @Param id path string true "Coin id"
// @Success 200 {object} dto.WatchlistContainsResponse
// @Router /api/v1/watchlist/{id} [get]
func (h *PreferencesHandler) IsWatched(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ok, err := h.watchlist.Contains(r.Context(), id)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSONResponse(r.Context(), w, http.StatusOK, dto.WatchlistContainsResponse{CoinID: id, Watched: ok})
}

// AddToWatchlist godoc
// @Summary Watch a coin
// @Tags watchlist
// @Produce json
// @Param id path string true "Coin id"
// @Success 200 {object} dto.WatchlistResponse
// @Router /api/v1/watchlist/{id} [post]
func (h *PreferencesHandler) AddToWatchlist(w http.ResponseWriter, r *http.Request) {
	list, err := h.watchlist.Add(r.Context(), mux.Vars(r)["id"])
	h.writeWatchlist(w, r, list, err)
}

// RemoveFromWatchlist godoc
// @Summary Stop watching a coin
// @Tags watchlist
// @Produce json
// @Param id path string true "Coin id"
// @Success 200 {object} dto.WatchlistResponse
// @Router /api/v1/watchlist/{id} [delete]
func (h *PreferencesHandler) RemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	list, err := h.watchlist.Remove(r.Context(), mux.Vars(r)["id"])
	h.writeWatchlist(w, r, list, err)
}

// ToggleWatchlist godoc
// @Summary Toggle a coin in the watchlist
// @Tags watchlist
// @Produce json
// @Param id path string true "Coin id"
// @Success 200 {object} dto.WatchlistResponse
// @Router /api/v1/watchlist/{id}/toggle [post]
func (h *PreferencesHandler) ToggleWatchlist(w http.ResponseWriter, r *http.Request) {
	list, err := h.watchlist.Toggle(r.Context(), mux.Vars(r)["id"])
	h.writeWatchlist(w, r, list, err)
}

// GetTheme godoc
// @Summary Theme preference
// @Tags theme
// @Produce json
// @Success 200 {object} dto.ThemeResponse
// @Router /api/v1/theme [get]
func (h *PreferencesHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.theme.Get(r.Context())
	h.writeTheme(w, r, theme, err)
}

// SetTheme godoc
// @Summary Set the theme preference
// @Tags theme
// @Accept json
// @Produce json
// @Param theme body dto.SetThemeRequest true "Theme"
// @Success 200 {object} dto.ThemeResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/theme [put]
func (h *PreferencesHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req dto.SetThemeRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeErrorResponse(r.Context(), w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	theme, err := h.theme.Set(r.Context(), entities.Theme(req.Theme))
	h.writeTheme(w, r, theme, err)
}

// ToggleTheme godoc
// @Summary Switch between light and dark
// @Tags theme
// @Produce json
// @Success 200 {object} dto.ThemeResponse
// @Router /api/v1/theme/toggle [post]
func (h *PreferencesHandler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.theme.Toggle(r.Context())
	h.writeTheme(w, r, theme, err)
}

func (h *PreferencesHandler) writeWatchlist(w http.ResponseWriter, r *http.Request, list []string, err error) {
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSONResponse(r.Context(), w, http.StatusOK, dto.WatchlistResponse{Coins: list})
}

func (h *PreferencesHandler) writeTheme(w http.ResponseWriter, r *http.Request, theme entities.Theme, err error) {
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSONResponse(r.Context(), w, http.StatusOK, dto.ToThemeResponse(theme))
}
