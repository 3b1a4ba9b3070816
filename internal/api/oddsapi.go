package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// DefaultOddsAPIBaseURL is The Odds API v4 sports endpoint.
const DefaultOddsAPIBaseURL = "https://api.the-odds-api.com/v4/sports"

// OddsAPIClient fetches odds from The Odds API v4.
type OddsAPIClient struct {
	client  *RateLimitedClient
	apiKey  string
	baseURL string
	regions string
	markets string
}

// OddsAPIConfig configures NewOddsAPIClient. Zero values fall back to defaults.
type OddsAPIConfig struct {
	APIKey            string
	BaseURL           string
	Regions           string
	Markets           string
	RequestsPerMinute int
	Timeout           time.Duration
	MaxRetries        int
}

// NewOddsAPIClient creates a new The Odds API client
func NewOddsAPIClient(cfg OddsAPIConfig) *OddsAPIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOddsAPIBaseURL
	}
	if cfg.Regions == "" {
		cfg.Regions = "us"
	}
	if cfg.Markets == "" {
		cfg.Markets = "h2h,spreads,totals"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &OddsAPIClient{
		client:  NewRateLimitedClient(cfg.RequestsPerMinute, cfg.Timeout, cfg.MaxRetries),
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		regions: cfg.Regions,
		markets: cfg.Markets,
	}
}

// GetOdds fetches every event for sport with h2h, spread and total quotes in
// American format.
func (c *OddsAPIClient) GetOdds(ctx context.Context, sport string) ([]Event, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("regions", c.regions)
	params.Set("markets", c.markets)
	params.Set("oddsFormat", "american")

	endpoint := fmt.Sprintf("%s/%s/odds/?%s", c.baseURL, url.PathEscape(sport), params.Encode())

	body, err := c.client.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s odds: %v", ErrUpstreamFeed, sport, err)
	}

	var events []Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("%w: parsing %s odds: %v", ErrUpstreamFeed, sport, err)
	}

	return events, nil
}
