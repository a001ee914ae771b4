package cryptopanic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"crypto-pulse-service/internal/domain/entities"
	"crypto-pulse-service/internal/domain/interfaces"
	"crypto-pulse-service/internal/infrastructure/config"
	"crypto-pulse-service/internal/infrastructure/logging"
	"crypto-pulse-service/internal/infrastructure/metrics"
)

const (
	DefaultBaseURL    = "https://cryptopanic.com/api/v1"
	DefaultMaxResults = 8
)

var (
	ErrNewsStatus  = errors.New("cryptopanic returned non-2xx status")
	ErrNewsPayload = errors.New("malformed cryptopanic payload")
)

var _ interfaces.NewsProvider = (*Client)(nil)

type postsResponse struct {
	Count    int                 `json:"count"`
	Next     *string             `json:"next"`
	Previous *string             `json:"previous"`
	Results  []entities.NewsItem `json:"results"`
}

// Client reads the CryptoPanic posts feed. Without an API key, or when the
// feed fails, it answers with FallbackNews instead of an error.
type Client struct {
	fetcher    interfaces.HTTPFetcher
	baseURL    string
	apiKey     string
	maxResults int
	now        func() time.Time
}

func NewClient(fetcher interfaces.HTTPFetcher, cfg config.CryptoPanicConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Client{
		fetcher:    fetcher,
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		maxResults: maxResults,
		now:        time.Now,
	}
}

// HasAPIKey reports whether live news can be requested
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// Latest returns up to maxResults posts for filter, optionally restricted to
// a comma separated list of currency codes. Only a cancelled context is
// returned as an error.
func (c *Client) Latest(ctx context.Context, filter entities.NewsFilter, currencies string) ([]entities.NewsItem, error) {
	if !c.HasAPIKey() {
		metrics.RecordNewsFallback("no_api_key")
		return FallbackNews(c.now()), nil
	}

	items, err := c.fetch(ctx, filter, currencies)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		metrics.RecordNewsFallback("upstream_error")
		logging.ExternalAPI().WarnWithError(ctx, "News feed unavailable, serving fallback", err, logging.Fields{
			logging.FieldExternalService: "cryptopanic",
		})
		return FallbackNews(c.now()), nil
	}
	return items, nil
}

func (c *Client) fetch(ctx context.Context, filter entities.NewsFilter, currencies string) ([]entities.NewsItem, error) {
	params := url.Values{}
	params.Set("auth_token", c.apiKey)
	params.Set("public", "true")
	if filter != "" && filter != entities.NewsFilterAll {
		params.Set("filter", string(filter))
	}
	if currencies = strings.TrimSpace(currencies); currencies != "" {
		params.Set("currencies", strings.ToUpper(currencies))
	}

	resp, err := c.fetcher.Get(ctx, c.baseURL+"/posts/?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("requesting news: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %d", ErrNewsStatus, resp.StatusCode)
	}

	var body postsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNewsPayload, err)
	}

	items := body.Results
	if len(items) > c.maxResults {
		items = items[:c.maxResults]
	}
	if items == nil {
		items = []entities.NewsItem{}
	}
	return items, nil
}
