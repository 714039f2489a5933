package alphavantage

import (
	"fmt"
	"net/http"

	"priceoracle/internal/httpx"
)

const (
	baseURL           = "https://www.alphavantage.co"
	defaultOutputSize = OutputSizeCompact
)

// Output sizes accepted by the TIME_SERIES_DAILY function. Compact returns
// the latest 100 trading days; full requires a premium key.
const (
	OutputSizeCompact = "compact"
	OutputSizeFull    = "full"
)

// Client is a client for the Alpha Vantage API.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// apiKey is passed as the apikey query parameter.
	apiKey string
	// outputSize selects between the last 100 rows and the full history.
	outputSize string
	// httpClient is the HTTP client.
	httpClient httpx.HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
}

// Option is a configuration option for the Alpha Vantage client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient httpx.HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithOutputSize sets the outputsize query parameter.
func WithOutputSize(size string) Option {
	return func(c *Client) {
		c.outputSize = size
	}
}

// NewClient creates a new Alpha Vantage API client.
func NewClient(key string, options ...Option) (*Client, error) {
	var client = &Client{
		baseURL:    baseURL,
		apiKey:     key,
		outputSize: defaultOutputSize,
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	for _, option := range options {
		option(client)
	}
	switch client.outputSize {
	case OutputSizeCompact, OutputSizeFull:
	default:
		return nil, fmt.Errorf("invalid output size %q", client.outputSize)
	}
	if client.baseURL == "" {
		client.baseURL = baseURL
	}
	return client, nil
}
