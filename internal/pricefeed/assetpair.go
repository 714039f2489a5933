package pricefeed

import (
	"fmt"
	"strings"
)

// AssetPair identifies a tradable instrument the oracle knows how to price.
type AssetPair int

const (
	BTCUSD AssetPair = iota + 1
	BTCUSDT
	MSTRUSD
)

// AllAssetPairs returns every pair the oracle understands, in declaration order.
func AllAssetPairs() []AssetPair {
	return []AssetPair{BTCUSD, BTCUSDT, MSTRUSD}
}

func (p AssetPair) String() string {
	switch p {
	case BTCUSD:
		return "BTCUSD"
	case BTCUSDT:
		return "BTCUSDT"
	case MSTRUSD:
		return "MSTRUSD"
	}
	return fmt.Sprintf("AssetPair(%d)", int(p))
}

// Base returns the priced asset, e.g. BTC for BTCUSD.
func (p AssetPair) Base() string {
	switch p {
	case BTCUSD, BTCUSDT:
		return "BTC"
	case MSTRUSD:
		return "MSTR"
	}
	return ""
}

// Quote returns the currency the price is denominated in.
func (p AssetPair) Quote() string {
	switch p {
	case BTCUSD, MSTRUSD:
		return "USD"
	case BTCUSDT:
		return "USDT"
	}
	return ""
}

// Valid reports whether p is one of the declared pairs.
func (p AssetPair) Valid() bool {
	return p >= BTCUSD && p <= MSTRUSD
}

// ParseAssetPair accepts "BTCUSD", "btc/usd", "BTC-USD" and "btc_usd".
func ParseAssetPair(s string) (AssetPair, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("/", "", "-", "", "_", "").Replace(norm)
	for _, p := range AllAssetPairs() {
		if p.String() == norm {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown asset pair %q", s)
}

func (p AssetPair) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid asset pair %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *AssetPair) UnmarshalText(b []byte) error {
	v, err := ParseAssetPair(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
