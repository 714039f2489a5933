package coingecko_test

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"priceoracle/internal/httpx/httpxmock"
	"priceoracle/internal/pricefeed"
	"priceoracle/internal/pricefeed/coingecko"
)

var day = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newFeed(t *testing.T, client *coingecko.Client, opts ...coingecko.FeedOption) *coingecko.Feed {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)
	feed, err := coingecko.New(client, append([]coingecko.FeedOption{coingecko.WithLogger(l)}, opts...)...)
	require.NoError(t, err)
	return feed
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := coingecko.New(nil)
	require.Error(t, err)

	// BTCUSDT would be priced with BTCUSD's coin.
	_, err = coingecko.New(coingecko.NewClient(""), coingecko.WithSymbolMap(pricefeed.SymbolMap{pricefeed.BTCUSDT: "bitcoin"}))
	require.Error(t, err)
}

func TestGetMarketChart(t *testing.T) {
	t.Parallel()

	// Arrange: a test server standing in for CoinGecko
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/bitcoin/market_chart/range", r.URL.Path)
		query := r.URL.Query()
		assert.Equal(t, "usd", query.Get("vs_currency"))
		assert.Equal(t, "1704153600", query.Get("from"))
		assert.Equal(t, "1704240000", query.Get("to"))
		assert.Equal(t, "demo", query.Get("x_cg_demo_api_key"))

		json.NewEncoder(w).Encode(map[string]any{
			"prices": [][]float64{
				{1704153600000, 44187.14},
				{1704196800000, 45500.5},
				{1704239999000, 45897.58},
			},
		})
	}))
	defer server.Close()

	feed := newFeed(t, coingecko.NewClient("demo", coingecko.WithBaseURL(server.URL+"/")))

	// Act
	price, err := feed.RetrievePrice(t.Context(), pricefeed.BTCUSD, day.Add(9*time.Hour))

	// Assert: the last sample of the day is the close
	require.NoError(t, err)
	require.Equal(t, math.Float64bits(45897.58), math.Float64bits(price))
}

func TestTranslateAssetPair_TotalCoverage(t *testing.T) {
	t.Parallel()

	feed := newFeed(t, coingecko.NewClient(""))
	supported := 0
	for _, pair := range pricefeed.AllAssetPairs() {
		symbol, err := feed.TranslateAssetPair(pair)
		if err != nil {
			require.Equal(t, pricefeed.KindUnsupportedPair, pricefeed.KindOf(err))
			continue
		}
		require.NotEmpty(t, symbol)
		supported++
	}
	require.Equal(t, 1, supported)

	feed = newFeed(t, coingecko.NewClient(""), coingecko.WithSymbolMap(pricefeed.SymbolMap{pricefeed.BTCUSDT: "tether-btc"}))
	symbol, err := feed.TranslateAssetPair(pricefeed.BTCUSDT)
	require.NoError(t, err)
	require.Equal(t, "tether-btc", symbol)
}

func TestRetrievePrice_UnsupportedPairMakesNoRequest(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := httpxmock.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).Times(0)

	feed := newFeed(t, coingecko.NewClient("", coingecko.WithHTTPClient(httpClient)))

	for _, pair := range []pricefeed.AssetPair{pricefeed.MSTRUSD, pricefeed.BTCUSDT} {
		_, err := feed.RetrievePrice(t.Context(), pair, day)
		require.Equal(t, pricefeed.KindUnsupportedPair, pricefeed.KindOf(err))
	}
}

func TestRetrievePrice_Classification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
		kind   pricefeed.Kind
	}{
		{"empty series", http.StatusOK, `{"prices": []}`, pricefeed.KindInternal},
		{"other day only", http.StatusOK, `{"prices": [[1704067200000, 42000.1]]}`, pricefeed.KindPriceNotAvailable},
		{"negative price", http.StatusOK, `{"prices": [[1704153600000, -1]]}`, pricefeed.KindInternal},
		{"status 500", http.StatusInternalServerError, `{}`, pricefeed.KindTransport},
		{"missing prices", http.StatusOK, `{"market_caps": []}`, pricefeed.KindTransport},
		{"bad row", http.StatusOK, `{"prices": [[1704153600000]]}`, pricefeed.KindTransport},
		{"bad price", http.StatusOK, `{"prices": [[1704153600000, null]]}`, pricefeed.KindTransport},
		{"error envelope", http.StatusOK, `{"error": "coin not found"}`, pricefeed.KindTransport},
		{"status envelope", http.StatusOK, `{"status": {"error_code": 429, "error_message": "throttled"}}`, pricefeed.KindTransport},
		{"not json", http.StatusOK, `<html>`, pricefeed.KindTransport},
		{"oversized body", http.StatusOK, `{"prices": [[1704153600000, 1]` + strings.Repeat(" ", 9<<20) + `]}`, pricefeed.KindTransport},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			httpClient := httpxmock.NewMockHTTPClient(ctrl)
			httpClient.EXPECT().
				Do(gomock.Any()).
				Return(response(c.status, c.body), nil).
				Times(1)

			feed := newFeed(t, coingecko.NewClient("", coingecko.WithHTTPClient(httpClient)))

			price, err := feed.RetrievePrice(t.Context(), pricefeed.BTCUSD, day.Add(time.Hour))
			require.Zero(t, price)
			require.Equal(t, c.kind, pricefeed.KindOf(err), "%v", err)
		})
	}
}

func TestRetrievePrice_MissingDayCarriesPairAndInstant(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := httpxmock.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(response(http.StatusOK, `{"prices": [[1704067200000, 42000.1]]}`), nil).
		Times(1)

	feed := newFeed(t, coingecko.NewClient("", coingecko.WithHTTPClient(httpClient)))
	instant := day.Add(13 * time.Hour)

	_, err := feed.RetrievePrice(t.Context(), pricefeed.BTCUSD, instant)

	var missing *pricefeed.PriceNotAvailableError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, pricefeed.BTCUSD, missing.Pair)
	require.True(t, instant.Equal(missing.Instant))
}

func TestRetrievePrice_ConcurrentIndependentTransports(t *testing.T) {
	t.Parallel()

	const n = 8
	var wg sync.WaitGroup
	results := make([]float64, n)
	errs := make([]error, n)

	for i := range n {
		d := day.AddDate(0, 0, i)
		body := `{"prices": [[` + itoa(d.UnixMilli()) + `, ` + itoa(int64(1000+i)) + `]]}`

		ctrl := gomock.NewController(t)
		httpClient := httpxmock.NewMockHTTPClient(ctrl)
		httpClient.EXPECT().
			Do(gomock.Any()).
			Return(response(http.StatusOK, body), nil).
			Times(1)
		feed := newFeed(t, coingecko.NewClient("", coingecko.WithHTTPClient(httpClient)))

		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = feed.RetrievePrice(t.Context(), pricefeed.BTCUSD, d.Add(6*time.Hour))
		}()
	}
	wg.Wait()

	for i := range n {
		require.NoError(t, errs[i])
		require.Equal(t, float64(1000+i), results[i])
	}
}

func itoa(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
