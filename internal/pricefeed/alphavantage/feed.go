// Package alphavantage prices equities from the Alpha Vantage daily series.
//
// Response schema: "Time Series (Daily)" maps a YYYY-MM-DD trading date
// (US/Eastern) to an object whose "4. close" field is the closing price as a
// decimal string.
package alphavantage

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/sirupsen/logrus"

	"priceoracle/internal/pricefeed"
)

// ID identifies the feed in registries, logs and metrics.
const ID = "alpha_vantage"

// DefaultMarketTimezone is the zone Alpha Vantage keys daily rows in.
const DefaultMarketTimezone = "America/New_York"

// Feed implements pricefeed.Feed on top of Client.
type Feed struct {
	client   *Client
	symbols  pricefeed.SymbolMap
	location *time.Location
	logger   *logrus.Entry
}

// FeedOption configures a Feed.
type FeedOption func(*Feed)

// WithSymbolMap overrides the built-in translations.
func WithSymbolMap(m pricefeed.SymbolMap) FeedOption {
	return func(f *Feed) {
		f.symbols = m
	}
}

// WithLocation sets the zone used to turn an instant into a trading date.
func WithLocation(loc *time.Location) FeedOption {
	return func(f *Feed) {
		if loc != nil {
			f.location = loc
		}
	}
}

// WithLogger sets the logger; the feed adds its own "feed" field.
func WithLogger(l *logrus.Logger) FeedOption {
	return func(f *Feed) {
		if l != nil {
			f.logger = l.WithField("feed", ID)
		}
	}
}

// New builds a feed. It fails on a nil client, when the default market zone
// cannot be loaded, or when the symbol map leaves two pairs sharing a ticker.
func New(client *Client, opts ...FeedOption) (*Feed, error) {
	if client == nil {
		return nil, fmt.Errorf("alphavantage: nil client")
	}
	loc, err := time.LoadLocation(DefaultMarketTimezone)
	if err != nil {
		return nil, fmt.Errorf("loading market timezone: %w", err)
	}
	f := &Feed{
		client:   client,
		location: loc,
		logger:   logrus.StandardLogger().WithField("feed", ID),
	}
	for _, opt := range opts {
		opt(f)
	}
	if err := pricefeed.CheckTranslations(f); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Feed) ID() string { return ID }

// TranslateAssetPair maps pair to an Alpha Vantage ticker. Only equities are
// listed in the daily series, so crypto pairs are unsupported.
func (f *Feed) TranslateAssetPair(pair pricefeed.AssetPair) (string, error) {
	if symbol, ok, err := f.symbols.Lookup(ID, pair); ok {
		return symbol, err
	}
	switch pair {
	case pricefeed.MSTRUSD:
		return "MSTR", nil
	case pricefeed.BTCUSD, pricefeed.BTCUSDT:
		return "", &pricefeed.UnsupportedPairError{
			Feed:   ID,
			Pair:   pair,
			Reason: fmt.Sprintf("alpha vantage does not support %s", pair),
		}
	}
	return "", &pricefeed.UnsupportedPairError{Feed: ID, Pair: pair, Reason: "unknown asset pair"}
}

// RetrievePrice returns the close of the trading day that contains instant
// in the market zone.
func (f *Feed) RetrievePrice(ctx context.Context, pair pricefeed.AssetPair, instant time.Time) (float64, error) {
	symbol, err := f.TranslateAssetPair(pair)
	if err != nil {
		return 0, err
	}

	log := f.logger.WithFields(logrus.Fields{
		"pair":    pair.String(),
		"symbol":  symbol,
		"instant": instant.Format(time.RFC3339),
	})
	log.Info("sending alpha vantage request")

	bars, err := f.client.TimeSeriesDaily(ctx, symbol, instant)
	if err != nil {
		return 0, &pricefeed.TransportError{Feed: ID, Err: err}
	}
	if len(bars) == 0 {
		return 0, &pricefeed.InternalError{Feed: ID, Msg: "invalid response from alpha vantage: empty time series"}
	}
	log.WithField("rows", len(bars)).Debug("received alpha vantage response")

	day := instant.In(f.location).Format(dateLayout)
	for _, bar := range bars {
		if bar.Date != day {
			continue
		}
		if !pricefeed.ValidPrice(bar.Close) {
			return 0, &pricefeed.InternalError{Feed: ID, Msg: fmt.Sprintf("invalid close %v on %s", bar.Close, day)}
		}
		log.WithField("close", bar.Close).Info("alpha vantage price")
		return bar.Close, nil
	}
	return 0, &pricefeed.PriceNotAvailableError{Feed: ID, Pair: pair, Instant: instant}
}
