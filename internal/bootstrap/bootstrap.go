// Package bootstrap turns a Config into a registry of ready feeds.
package bootstrap

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"priceoracle/internal/config"
	"priceoracle/internal/httpx"
	"priceoracle/internal/metrics"
	"priceoracle/internal/pricefeed"
	"priceoracle/internal/pricefeed/alphavantage"
	"priceoracle/internal/pricefeed/coingecko"
)

// Feeds registers every enabled feed, each wrapped for metrics. A disabled
// or misconfigured feed is skipped with a warning as long as another one is
// available.
func Feeds(cfg config.Config, logger *logrus.Logger) (*pricefeed.Registry, error) {
	reg := pricefeed.NewRegistry()
	fallback := time.Duration(cfg.Server.RequestTimeoutSec) * time.Second

	if cfg.AlphaVantage.Enabled {
		if cfg.AlphaVantage.APIKey == "" {
			logger.Warn("alphavantage.enabled=true but ORACLE_ALPHAVANTAGE_API_KEY not set; skipping")
		} else {
			f, err := newAlphaVantage(cfg.AlphaVantage, fallback, logger)
			if err != nil {
				return nil, fmt.Errorf("alphavantage: %w", err)
			}
			if err := reg.Register(&metrics.Instrumented{F: f}); err != nil {
				return nil, err
			}
		}
	}

	if cfg.CoinGecko.Enabled {
		f, err := newCoinGecko(cfg.CoinGecko, fallback, logger)
		if err != nil {
			return nil, fmt.Errorf("coingecko: %w", err)
		}
		if err := reg.Register(&metrics.Instrumented{F: f}); err != nil {
			return nil, err
		}
	}

	if len(reg.IDs()) == 0 {
		return nil, fmt.Errorf("no price feeds enabled")
	}
	return reg, nil
}

func newAlphaVantage(c config.AlphaVantage, fallback time.Duration, logger *logrus.Logger) (*alphavantage.Feed, error) {
	symbols, err := pricefeed.ParseSymbolMap(c.SymbolMap)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(c.MarketTimezone)
	if err != nil {
		return nil, fmt.Errorf("market timezone: %w", err)
	}
	client, err := alphavantage.NewClient(
		c.APIKey,
		alphavantage.WithBaseURL(c.Endpoint),
		alphavantage.WithHTTPClient(httpx.New(c.Timeout(fallback))),
		alphavantage.WithOutputSize(c.OutputSize),
		alphavantage.WithHeader(http.Header{"Accept": []string{"application/json"}}),
	)
	if err != nil {
		return nil, err
	}
	return alphavantage.New(client,
		alphavantage.WithSymbolMap(symbols),
		alphavantage.WithLocation(loc),
		alphavantage.WithLogger(logger),
	)
}

func newCoinGecko(c config.CoinGecko, fallback time.Duration, logger *logrus.Logger) (*coingecko.Feed, error) {
	symbols, err := pricefeed.ParseSymbolMap(c.SymbolMap)
	if err != nil {
		return nil, err
	}
	client := coingecko.NewClient(
		c.APIKey,
		coingecko.WithBaseURL(c.Endpoint),
		coingecko.WithHTTPClient(httpx.New(c.Timeout(fallback))),
	)
	return coingecko.New(client,
		coingecko.WithSymbolMap(symbols),
		coingecko.WithLogger(logger),
	)
}
