// Package metrics exposes Prometheus collectors for feed retrievals.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"priceoracle/internal/pricefeed"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	retrievals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "priceoracle",
			Subsystem: "feed",
			Name:      "retrievals_total",
			Help:      "Price retrievals by feed, pair and outcome.",
		},
		[]string{"feed", "pair", "outcome"},
	)

	retrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "priceoracle",
			Subsystem: "feed",
			Name:      "retrieval_duration_seconds",
			Help:      "Duration of price retrievals.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
		[]string{"feed"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		retrievals,
		retrievalDuration,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Instrumented wraps a feed and records the outcome and latency of every
// retrieval. Translation is passed through untouched.
type Instrumented struct {
	F pricefeed.Feed
}

func (i *Instrumented) ID() string { return i.F.ID() }

func (i *Instrumented) TranslateAssetPair(pair pricefeed.AssetPair) (string, error) {
	return i.F.TranslateAssetPair(pair)
}

func (i *Instrumented) RetrievePrice(ctx context.Context, pair pricefeed.AssetPair, instant time.Time) (float64, error) {
	start := time.Now()
	price, err := i.F.RetrievePrice(ctx, pair, instant)
	retrievalDuration.WithLabelValues(i.F.ID()).Observe(time.Since(start).Seconds())
	retrievals.WithLabelValues(i.F.ID(), pair.String(), Outcome(err)).Inc()
	return price, err
}

// Outcome is the metric label for a retrieval result.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return pricefeed.KindOf(err).String()
}
