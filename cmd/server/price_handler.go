package main

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"priceoracle/internal/pricefeed"
)

type priceHandler struct {
	feeds   *pricefeed.Registry
	logger  *logrus.Logger
	timeout time.Duration
	now     func() time.Time
}

// priceResult is one feed's answer. Feeds are reported side by side and
// never combined into a single figure.
type priceResult struct {
	Feed      string   `json:"feed"`
	Symbol    string   `json:"symbol,omitempty"`
	Price     *float64 `json:"price,omitempty"`
	Error     string   `json:"error,omitempty"`
	Kind      string   `json:"kind,omitempty"`
	Retryable bool     `json:"retryable,omitempty"`
	Elapsed   string   `json:"elapsed"`
}

type priceResponse struct {
	Pair    pricefeed.AssetPair `json:"pair"`
	Base    string              `json:"base"`
	Quote   string              `json:"quote"`
	Instant time.Time           `json:"instant"`
	Results []priceResult       `json:"results"`
}

type feedsResponse struct {
	Feeds []feedInfo `json:"feeds"`
}

type feedInfo struct {
	ID    string            `json:"id"`
	Pairs map[string]string `json:"pairs"`
}

// price serves GET /api/price?pair=BTCUSD&at=2024-01-02[&feed=coingecko].
func (h *priceHandler) price(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pair, err := pricefeed.ParseAssetPair(q.Get("pair"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	instant, err := pricefeed.ParseInstant(q.Get("at"), h.now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var feeds []pricefeed.Feed
	if id := q.Get("feed"); id != "" {
		f, ok := h.feeds.Get(id)
		if !ok {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown feed " + id})
			return
		}
		feeds = []pricefeed.Feed{f}
	} else {
		feeds = h.feeds.Feeds()
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	results := retrieveAll(ctx, feeds, pair, instant)

	for _, res := range results {
		if res.Error != "" {
			h.logger.WithFields(logrus.Fields{"feed": res.Feed, "pair": pair.String(), "kind": res.Kind}).Warn(res.Error)
		}
	}
	writeJSON(w, statusFor(results), priceResponse{
		Pair:    pair,
		Base:    pair.Base(),
		Quote:   pair.Quote(),
		Instant: instant.UTC(),
		Results: results,
	})
}

// list serves GET /api/feeds[?pair=BTCUSD] with each feed's translation
// table. With pair, only the feeds able to price it are listed.
func (h *priceHandler) list(w http.ResponseWriter, r *http.Request) {
	feeds := h.feeds.Feeds()
	if raw := r.URL.Query().Get("pair"); raw != "" {
		pair, err := pricefeed.ParseAssetPair(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		feeds = h.feeds.Supporting(pair)
	}

	resp := feedsResponse{Feeds: []feedInfo{}}
	for _, f := range feeds {
		info := feedInfo{ID: f.ID(), Pairs: map[string]string{}}
		for _, pair := range pricefeed.AllAssetPairs() {
			if symbol, err := f.TranslateAssetPair(pair); err == nil {
				info.Pairs[pair.String()] = symbol
			}
		}
		resp.Feeds = append(resp.Feeds, info)
	}
	writeJSON(w, http.StatusOK, resp)
}

// retrieveAll queries every feed concurrently. Results keep the order of
// feeds and one failure never cancels the others.
func retrieveAll(ctx context.Context, feeds []pricefeed.Feed, pair pricefeed.AssetPair, instant time.Time) []priceResult {
	results := make([]priceResult, len(feeds))
	var g errgroup.Group
	for i, f := range feeds {
		g.Go(func() error {
			start := time.Now()
			res := priceResult{Feed: f.ID()}
			if symbol, err := f.TranslateAssetPair(pair); err == nil {
				res.Symbol = symbol
			}
			price, err := f.RetrievePrice(ctx, pair, instant)
			if err != nil {
				res.Error = err.Error()
				res.Kind = pricefeed.KindOf(err).String()
				res.Retryable = pricefeed.Retryable(err)
			} else {
				res.Price = &price
			}
			res.Elapsed = time.Since(start).Round(time.Millisecond).String()
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// statusFor is 200 when any feed answered, 400 when no feed supports the
// pair, and 502 otherwise.
func statusFor(results []priceResult) int {
	unsupported := 0
	for _, r := range results {
		if r.Price != nil {
			return http.StatusOK
		}
		if r.Kind == pricefeed.KindUnsupportedPair.String() {
			unsupported++
		}
	}
	if len(results) > 0 && unsupported == len(results) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
