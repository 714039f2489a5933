package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"priceoracle/internal/httpx"
)

const (
	baseURL = "https://api.coingecko.com/api/v3"
	// A one-day range is a few hundred samples; anything near this is garbage.
	maxBodyBytes = 8 << 20
)

// Client is a client for the CoinGecko public API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpx.HTTPClient
	header     http.Header
}

// Option is a configuration option for the CoinGecko client.
type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(httpClient httpx.HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewClient creates a CoinGecko client. key may be empty for the keyless tier.
func NewClient(key string, options ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		apiKey:     key,
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	for _, option := range options {
		option(c)
	}
	if c.baseURL == "" {
		c.baseURL = baseURL
	}
	return c
}

// PricePoint is one sample of the market chart.
type PricePoint struct {
	Time  time.Time
	Price float64
}

type marketChartResponse struct {
	Prices *[][]json.Number `json:"prices"`
	Error  json.RawMessage  `json:"error"`
	Status *struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
}

// MarketChartRange retrieves the price samples of coinID quoted in
// vsCurrency between from and to. Points are returned oldest first.
func (c *Client) MarketChartRange(ctx context.Context, coinID, vsCurrency string, from, to time.Time) ([]PricePoint, error) {
	params := url.Values{}
	params.Add("vs_currency", vsCurrency)
	params.Add("from", strconv.FormatInt(from.Unix(), 10))
	params.Add("to", strconv.FormatInt(to.Unix(), 10))
	if c.apiKey != "" {
		params.Add("x_cg_demo_api_key", c.apiKey)
	}

	fullURL := fmt.Sprintf("%s/coins/%s/market_chart/range?%s", c.baseURL, url.PathEscape(coinID), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = c.header.Clone()
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch market chart: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned non-200 status: %d", resp.StatusCode)
	}

	var raw marketChartResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return raw.points()
}

func (r marketChartResponse) points() ([]PricePoint, error) {
	if len(r.Error) > 0 && string(r.Error) != "null" {
		return nil, fmt.Errorf("provider error: %s", string(r.Error))
	}
	if r.Status != nil && r.Status.ErrorCode != 0 {
		return nil, fmt.Errorf("provider error %d: %s", r.Status.ErrorCode, r.Status.ErrorMessage)
	}
	if r.Prices == nil {
		return nil, errors.New("failed to decode response: missing prices")
	}

	// [[1704153600000, 44187.14], ...]
	points := make([]PricePoint, 0, len(*r.Prices))
	for i, row := range *r.Prices {
		if len(row) != 2 {
			return nil, fmt.Errorf("failed to decode response: prices[%d] has %d fields, want 2", i, len(row))
		}
		ms, err := row[0].Int64()
		if err != nil {
			f, ferr := row[0].Float64()
			if ferr != nil {
				return nil, fmt.Errorf("failed to decode response: prices[%d] timestamp: %w", i, err)
			}
			ms = int64(f)
		}
		price, err := row[1].Float64()
		if err != nil {
			return nil, fmt.Errorf("failed to decode response: prices[%d] price: %w", i, err)
		}
		points = append(points, PricePoint{Time: time.UnixMilli(ms).UTC(), Price: price})
	}
	return points, nil
}
