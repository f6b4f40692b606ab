// Package sales fetches daily per-SKU sales history from the internal
// sales reporting API.
package sales

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/stockops/skucast/internal/platform/http"
	"github.com/stockops/skucast/models"
)

const dayLayout = "2006-01-02"

// Client is the sales history API client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new sales client
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new sales history API client
func NewClient(options ClientOptions) *Client {
	httpOpts := httpClient.ClientOptions{
		Timeout:         options.RequestTimeout,
		RequestsPerSec:  options.RequestsPerSec,
		MaxRetryTimeout: options.MaxRetryTimeout,
	}

	if httpOpts.Timeout == 0 {
		httpOpts.Timeout = 30 * time.Second
	}
	if httpOpts.RequestsPerSec == 0 {
		httpOpts.RequestsPerSec = 5
	}

	return &Client{
		apiKey:     options.APIKey,
		baseURL:    strings.TrimRight(options.BaseURL, "/"),
		httpClient: httpClient.NewClient(httpOpts),
		logger:     log.With().Str("component", "sales_client").Logger(),
	}
}

// GetDailySales fetches daily sales rows for every SKU over the last days.
func (c *Client) GetDailySales(ctx context.Context, days int) ([]models.SalesRecord, error) {
	return c.fetch(ctx, nil, days)
}

// GetDailySalesForSKUs fetches daily sales rows for the given SKUs over the
// last days.
func (c *Client) GetDailySalesForSKUs(ctx context.Context, skus []string, days int) ([]models.SalesRecord, error) {
	return c.fetch(ctx, skus, days)
}

func (c *Client) fetch(ctx context.Context, skus []string, days int) ([]models.SalesRecord, error) {
	params := url.Values{}
	params.Set("days", fmt.Sprintf("%d", days))
	params.Set("apikey", c.apiKey)
	if len(skus) > 0 {
		params.Set("sku_ids", strings.Join(skus, ","))
	}
	endpoint := fmt.Sprintf("%s/daily_sales?%s", c.baseURL, params.Encode())

	c.logger.Debug().Int("days", days).Int("skus", len(skus)).Msg("Fetching sales history")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
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

	var data models.SalesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Msg("Error parsing JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	if data.Status == "error" {
		c.logger.Error().Str("response", string(body)).Msg("Sales API error")
		return nil, fmt.Errorf("sales API error: %s", string(body))
	}
	if len(data.Values) == 0 {
		c.logger.Warn().Msg("No sales rows in response")
		return nil, fmt.Errorf("empty data returned")
	}

	var records []models.SalesRecord
	for _, v := range data.Values {
		day, err := time.Parse(dayLayout, v.Day)
		if err != nil {
			return nil, fmt.Errorf("parsing day %q for sku %s: %w", v.Day, v.SKU, err)
		}
		records = append(records, models.SalesRecord{
			SKU:   v.SKU,
			Day:   day,
			Qty:   v.Qty,
			Price: v.Price,
		})
	}

	// Oldest first per SKU so rolling windows see history in order.
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].SKU != records[j].SKU {
			return records[i].SKU < records[j].SKU
		}
		return records[i].Day.Before(records[j].Day)
	})

	c.logger.Debug().Int("count", len(records)).Msg("Fetched sales rows")
	return records, nil
}
