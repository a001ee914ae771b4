package interfaces

import (
	"context"
	"net/http"
)

// HTTPFetcher performs GET requests against an upstream API.
// A single instance is shared by every market data call so throttling is global.
type HTTPFetcher interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}
