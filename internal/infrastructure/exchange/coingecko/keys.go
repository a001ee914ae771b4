package coingecko

import (
	"fmt"
	"net/url"
	"strings"
)

// Cache keys encode the endpoint and every parameter that changes the result.
// Free text parameters are escaped so ":" inside them cannot collide.

func KeyTopCoins(page, perPage int, sparkline bool) string {
	return fmt.Sprintf("crypto:coins:%d:%d:%t", page, perPage, sparkline)
}

func KeyGlobal() string {
	return "crypto:global"
}

func KeyChart(coinID, days string) string {
	return "crypto:chart:" + url.QueryEscape(coinID) + ":" + url.QueryEscape(days)
}

func KeyTrending() string {
	return "crypto:trending"
}

// KeySearch normaliza la query para que "BTC " y "btc" compartan entrada
func KeySearch(query string) string {
	return "crypto:search:" + url.QueryEscape(NormalizeQuery(query))
}

func KeyDetails(coinID string) string {
	return "crypto:details:" + url.QueryEscape(coinID)
}

func KeyRates(coinID string) string {
	return "crypto:rates:" + url.QueryEscape(coinID)
}

// NormalizeQuery trims and lowercases free text search input
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// chartDays are the history ranges the market_chart endpoint accepts
var chartDays = map[string]bool{
	"1": true, "7": true, "14": true, "30": true, "90": true, "180": true, "365": true, "max": true,
}

// ValidDays reports whether days is an accepted chart range
func ValidDays(days string) bool {
	return chartDays[days]
}
