package alphavantage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

const (
	timeSeriesKey = "Time Series (Daily)"
	dateLayout    = "2006-01-02"
	maxBodyBytes  = 32 << 20
)

// DailyBar is one row of the TIME_SERIES_DAILY series. Date is the exchange
// local trading day.
type DailyBar struct {
	Date   string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// TimeSeriesDaily retrieves the daily series for symbol, anchored at start.
// Rows are returned newest first. An empty series is not an error here.
func (c *Client) TimeSeriesDaily(ctx context.Context, symbol string, start time.Time, opts ...Option) ([]DailyBar, error) {
	var override = &Client{
		baseURL:    c.baseURL,
		apiKey:     c.apiKey,
		outputSize: c.outputSize,
		httpClient: c.httpClient,
		header:     c.header.Clone(),
	}
	for _, opt := range opts {
		opt(override)
	}

	query := url.Values{}
	query.Set("function", "TIME_SERIES_DAILY")
	query.Set("symbol", symbol)
	query.Set("outputsize", override.outputSize)
	query.Set("start", strconv.FormatInt(start.Unix(), 10))
	if override.apiKey != "" {
		query.Set("apikey", override.apiKey)
	}

	endpoint := fmt.Sprintf("%s/query?%s", override.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = override.header

	res, err := override.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusForbidden, http.StatusUnauthorized:
		return nil, fmt.Errorf("unauthorized")

	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("rate limited")

	default:
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return decodeTimeSeriesDaily(body)
}

// decodeTimeSeriesDaily validates the payload shape. Alpha Vantage answers
// 200 with an "Error Message", "Note" or "Information" envelope when the
// symbol is unknown or the key is throttled.
func decodeTimeSeriesDaily(body []byte) ([]DailyBar, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("decoding response: invalid JSON")
	}
	doc := gjson.ParseBytes(body)
	if doc.IsArray() && len(doc.Array()) == 0 {
		return []DailyBar{}, nil
	}
	if !doc.IsObject() {
		return nil, fmt.Errorf("decoding response: expected object, got %s", doc.Type)
	}

	var series gjson.Result
	var providerMsg string
	doc.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case timeSeriesKey:
			series = value
		case "Error Message", "Note", "Information":
			providerMsg = value.String()
		}
		return true
	})
	if providerMsg != "" {
		return nil, fmt.Errorf("provider error: %s", providerMsg)
	}
	if !series.Exists() {
		return nil, fmt.Errorf("decoding response: missing %q", timeSeriesKey)
	}
	if !series.IsObject() {
		return nil, fmt.Errorf("decoding response: %q is %s, want object", timeSeriesKey, series.Type)
	}

	bars := []DailyBar{}
	var decodeErr error
	series.ForEach(func(date, row gjson.Result) bool {
		// {
		//   "1. open": "620.0000",
		//   "2. high": "630.1500",
		//   "3. low": "555.0100",
		//   "4. close": "560.2700",
		//   "5. volume": "1951211"
		// }
		bar, err := decodeDailyBar(date.String(), row)
		if err != nil {
			decodeErr = fmt.Errorf("decoding row %s: %w", date.String(), err)
			return false
		}
		bars = append(bars, bar)
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date > bars[j].Date })
	return bars, nil
}

func decodeDailyBar(date string, row gjson.Result) (DailyBar, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return DailyBar{}, fmt.Errorf("date: %w", err)
	}
	if !row.IsObject() {
		return DailyBar{}, fmt.Errorf("expected object, got %s", row.Type)
	}

	fields := make(map[string]gjson.Result, 5)
	row.ForEach(func(key, value gjson.Result) bool {
		fields[key.String()] = value
		return true
	})

	bar := DailyBar{Date: date}
	for _, f := range []struct {
		key      string
		dst      *float64
		required bool
	}{
		{"1. open", &bar.Open, true},
		{"2. high", &bar.High, true},
		{"3. low", &bar.Low, true},
		{"4. close", &bar.Close, true},
		{"5. volume", &bar.Volume, false},
	} {
		v, ok := fields[f.key]
		if !ok {
			if f.required {
				return DailyBar{}, fmt.Errorf("missing %q", f.key)
			}
			continue
		}
		n, err := parseNumber(v)
		if err != nil {
			return DailyBar{}, fmt.Errorf("%q: %w", f.key, err)
		}
		*f.dst = n
	}
	return bar, nil
}

// parseNumber accepts the stringly typed numbers Alpha Vantage emits as well
// as bare JSON numbers.
func parseNumber(v gjson.Result) (float64, error) {
	switch v.Type {
	case gjson.String:
		return strconv.ParseFloat(v.Str, 64)
	case gjson.Number:
		return strconv.ParseFloat(v.Raw, 64)
	}
	return 0, fmt.Errorf("unexpected type: %s", v.Type)
}
