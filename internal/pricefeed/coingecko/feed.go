// Package coingecko prices crypto assets from the CoinGecko market chart.
//
// Response schema: "prices" is an array of [unix_ms, price] pairs. The close
// of a UTC day is the last sample that falls inside it.
package coingecko

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"priceoracle/internal/pricefeed"
)

const ID = "coingecko"

// Feed implements pricefeed.Feed on top of Client.
type Feed struct {
	client  *Client
	symbols pricefeed.SymbolMap
	logger  *logrus.Entry
}

type FeedOption func(*Feed)

func WithSymbolMap(m pricefeed.SymbolMap) FeedOption {
	return func(f *Feed) {
		f.symbols = m
	}
}

func WithLogger(l *logrus.Logger) FeedOption {
	return func(f *Feed) {
		if l != nil {
			f.logger = l.WithField("feed", ID)
		}
	}
}

// New builds a feed. It fails on a nil client or when the symbol map leaves
// two pairs sharing a coin id.
func New(client *Client, opts ...FeedOption) (*Feed, error) {
	if client == nil {
		return nil, fmt.Errorf("coingecko: nil client")
	}
	f := &Feed{
		client: client,
		logger: logrus.StandardLogger().WithField("feed", ID),
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

// TranslateAssetPair returns the CoinGecko coin id. CoinGecko has no USDT
// quote currency and lists no equities.
func (f *Feed) TranslateAssetPair(pair pricefeed.AssetPair) (string, error) {
	if symbol, ok, err := f.symbols.Lookup(ID, pair); ok {
		return symbol, err
	}
	switch pair {
	case pricefeed.BTCUSD:
		return "bitcoin", nil
	case pricefeed.BTCUSDT:
		return "", &pricefeed.UnsupportedPairError{Feed: ID, Pair: pair, Reason: "coingecko does not quote in USDT"}
	case pricefeed.MSTRUSD:
		return "", &pricefeed.UnsupportedPairError{Feed: ID, Pair: pair, Reason: "coingecko does not list equities"}
	}
	return "", &pricefeed.UnsupportedPairError{Feed: ID, Pair: pair, Reason: "unknown asset pair"}
}

// RetrievePrice returns the last sample of the UTC day containing instant.
func (f *Feed) RetrievePrice(ctx context.Context, pair pricefeed.AssetPair, instant time.Time) (float64, error) {
	coinID, err := f.TranslateAssetPair(pair)
	if err != nil {
		return 0, err
	}

	u := instant.UTC()
	from := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	log := f.logger.WithFields(logrus.Fields{
		"pair":    pair.String(),
		"coin":    coinID,
		"instant": instant.Format(time.RFC3339),
	})
	log.Info("sending coingecko request")

	points, err := f.client.MarketChartRange(ctx, coinID, strings.ToLower(pair.Quote()), from, to)
	if err != nil {
		return 0, &pricefeed.TransportError{Feed: ID, Err: err}
	}
	if len(points) == 0 {
		return 0, &pricefeed.InternalError{Feed: ID, Msg: "invalid response from coingecko: empty price series"}
	}
	log.WithField("points", len(points)).Debug("received coingecko response")

	var (
		last  PricePoint
		found bool
	)
	for _, p := range points {
		if p.Time.Before(from) || !p.Time.Before(to) {
			continue
		}
		if !found || !p.Time.Before(last.Time) {
			last, found = p, true
		}
	}
	if !found {
		return 0, &pricefeed.PriceNotAvailableError{Feed: ID, Pair: pair, Instant: instant}
	}
	if !pricefeed.ValidPrice(last.Price) {
		return 0, &pricefeed.InternalError{Feed: ID, Msg: fmt.Sprintf("invalid price %v at %s", last.Price, last.Time.Format(time.RFC3339))}
	}
	return last.Price, nil
}
