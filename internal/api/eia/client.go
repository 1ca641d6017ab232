// Package eia fetches historical energy-commodity spot prices from the EIA
// open-data API.
package eia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	platformhttp "github.com/enerquant/backtest/internal/platform/http"
	"github.com/enerquant/backtest/models"
)

var _ models.PriceClient = (*Client)(nil)

// Client is the EIA API client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *platformhttp.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new EIA client
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
}

// seriesResponse mirrors the EIA v2 series payload
type seriesResponse struct {
	Response struct {
		Data []struct {
			Period string  `json:"period"`
			Value  float64 `json:"value"`
		} `json:"data"`
		Total json.Number `json:"total"`
	} `json:"response"`
	Error string `json:"error,omitempty"`
}

// NewClient creates a new EIA API client
func NewClient(options ClientOptions) *Client {
	if options.BaseURL == "" {
		options.BaseURL = "https://api.eia.gov/v2"
	}

	return &Client{
		apiKey:  options.APIKey,
		baseURL: options.BaseURL,
		httpClient: platformhttp.NewClient(platformhttp.ClientOptions{
			Timeout:         options.RequestTimeout,
			RequestsPerSec:  options.RequestsPerSec,
			MaxRetryTimeout: options.MaxRetryTimeout,
		}),
		logger: log.With().Str("component", "eia_client").Logger(),
	}
}

// GetPrices fetches the most recent count daily observations of a series
// (e.g. a WTI or Henry Hub spot series) and returns them in ascending time
// order.
func (c *Client) GetPrices(ctx context.Context, seriesID string, count int) ([]models.PricePoint, error) {
	url := fmt.Sprintf(
		"%s/seriesid/%s?api_key=%s&sort[0][column]=period&sort[0][direction]=desc&length=%d",
		c.baseURL, seriesID, c.apiKey, count,
	)

	c.logger.Debug().Str("series", seriesID).Int("count", count).Msg("Fetching prices")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var parsed seriesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if parsed.Error != "" {
		c.logger.Error().Str("response", parsed.Error).Msg("EIA API error")
		return nil, fmt.Errorf("EIA API error: %s", parsed.Error)
	}
	if len(parsed.Response.Data) == 0 {
		return nil, fmt.Errorf("no data returned for series %s", seriesID)
	}

	prices := make([]models.PricePoint, 0, len(parsed.Response.Data))
	for _, row := range parsed.Response.Data {
		ts, err := parsePeriod(row.Period)
		if err != nil {
			return nil, fmt.Errorf("parsing period %q: %w", row.Period, err)
		}
		prices = append(prices, models.PricePoint{Timestamp: ts, Price: row.Value})
	}

	sort.Slice(prices, func(i, j int) bool {
		return prices[i].Timestamp.Before(prices[j].Timestamp)
	})

	return prices, nil
}

// parsePeriod handles the daily and monthly period formats the API emits
func parsePeriod(period string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if ts, err := time.Parse(layout, period); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported period format")
}
