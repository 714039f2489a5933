// Package pricefeed defines the contract shared by every historical price
// provider the oracle can query, along with the asset pair vocabulary and the
// error taxonomy callers use to decide between retrying, falling back to
// another feed, or failing the quote.
package pricefeed

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// Feed is one external market-data provider.
//
// Implementations are stateless between calls and safe for concurrent use.
type Feed interface {
	// ID is a stable identifier such as "alpha_vantage".
	ID() string
	// TranslateAssetPair maps pair to the provider's symbol without any I/O.
	TranslateAssetPair(pair AssetPair) (string, error)
	// RetrievePrice returns the closing price of pair for the trading day
	// containing instant.
	RetrievePrice(ctx context.Context, pair AssetPair, instant time.Time) (float64, error)
}

// SymbolMap overrides a feed's built-in translations. An empty symbol
// disables the pair for that feed.
type SymbolMap map[AssetPair]string

// ParseSymbolMap converts a config table keyed by pair name. Symbols are
// trimmed; one that is blank afterwards disables the pair.
func ParseSymbolMap(raw map[string]string) (SymbolMap, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(SymbolMap, len(raw))
	for k, v := range raw {
		pair, err := ParseAssetPair(k)
		if err != nil {
			return nil, fmt.Errorf("symbol map: %w", err)
		}
		out[pair] = strings.TrimSpace(v)
	}
	return out, nil
}

// Lookup returns the override for pair, if any.
func (m SymbolMap) Lookup(feed string, pair AssetPair) (symbol string, ok bool, err error) {
	symbol, ok = m[pair]
	if !ok {
		return "", false, nil
	}
	if strings.TrimSpace(symbol) == "" {
		return "", true, &UnsupportedPairError{Feed: feed, Pair: pair, Reason: "disabled by symbol map"}
	}
	return symbol, true, nil
}

// ValidPrice reports whether v can be returned as a price.
func ValidPrice(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// CheckTranslations rejects a feed whose table, after any overrides, maps a
// pair to a blank symbol or maps two pairs to the same symbol. Symbols are
// compared case-insensitively.
func CheckTranslations(f Feed) error {
	seen := make(map[string]AssetPair)
	for _, pair := range AllAssetPairs() {
		symbol, err := f.TranslateAssetPair(pair)
		if err != nil {
			if KindOf(err) == KindUnsupportedPair {
				continue
			}
			return err
		}
		key := strings.ToUpper(strings.TrimSpace(symbol))
		if key == "" {
			return fmt.Errorf("%s: blank symbol for %s", f.ID(), pair)
		}
		if other, dup := seen[key]; dup {
			return fmt.Errorf("%s: symbol %q maps both %s and %s", f.ID(), symbol, other, pair)
		}
		seen[key] = pair
	}
	return nil
}
