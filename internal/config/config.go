package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"

	"priceoracle/internal/pricefeed"
)

// EnvPrefix prefixes every environment override, e.g.
// ORACLE_ALPHAVANTAGE_API_KEY.
const EnvPrefix = "ORACLE"

type Server struct {
	Port              string `mapstructure:"port"`
	RequestTimeoutSec int    `mapstructure:"request_timeout_sec"`
}

type Logging struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// Feed holds the options every provider accepts.
type Feed struct {
	Enabled    bool              `mapstructure:"enabled"`
	Endpoint   string            `mapstructure:"endpoint"`
	APIKey     string            `mapstructure:"api_key"`
	SymbolMap  map[string]string `mapstructure:"symbol_map"`
	TimeoutSec int               `mapstructure:"timeout_sec"`
}

type AlphaVantage struct {
	Feed           `mapstructure:",squash"`
	OutputSize     string `mapstructure:"outputsize"`
	MarketTimezone string `mapstructure:"market_timezone"`
}

type CoinGecko struct {
	Feed `mapstructure:",squash"`
}

type Config struct {
	Server       Server       `mapstructure:"server"`
	Logging      Logging      `mapstructure:"logging"`
	AlphaVantage AlphaVantage `mapstructure:"alphavantage"`
	CoinGecko    CoinGecko    `mapstructure:"coingecko"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.request_timeout_sec", 15)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("alphavantage.enabled", true)
	v.SetDefault("alphavantage.endpoint", "https://www.alphavantage.co")
	v.SetDefault("alphavantage.api_key", "")
	v.SetDefault("alphavantage.symbol_map", map[string]string{})
	v.SetDefault("alphavantage.timeout_sec", 10)
	v.SetDefault("alphavantage.outputsize", "compact")
	v.SetDefault("alphavantage.market_timezone", "America/New_York")

	v.SetDefault("coingecko.enabled", true)
	v.SetDefault("coingecko.endpoint", "https://api.coingecko.com/api/v3")
	v.SetDefault("coingecko.api_key", "")
	v.SetDefault("coingecko.symbol_map", map[string]string{})
	v.SetDefault("coingecko.timeout_sec", 10)
}

// Default returns the configuration used when no file or env is present.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Unmarshalling the defaults alone cannot fail.
	_ = v.Unmarshal(&cfg)
	return cfg
}

// Load reads JSON config from path. If path is empty, ./config.json is used
// when present, otherwise defaults. Environment variables override any value.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid option.
func (c Config) Validate() error {
	if c.Server.RequestTimeoutSec <= 0 {
		return fmt.Errorf("server.request_timeout_sec must be positive")
	}
	if c.AlphaVantage.Enabled {
		switch c.AlphaVantage.OutputSize {
		case "compact", "full":
		default:
			return fmt.Errorf("alphavantage.outputsize must be compact or full, got %q", c.AlphaVantage.OutputSize)
		}
		if _, err := time.LoadLocation(c.AlphaVantage.MarketTimezone); err != nil {
			return fmt.Errorf("alphavantage.market_timezone: %w", err)
		}
	}
	for _, nf := range []struct {
		name string
		feed Feed
	}{
		{"alphavantage", c.AlphaVantage.Feed},
		{"coingecko", c.CoinGecko.Feed},
	} {
		name, f := nf.name, nf.feed
		if !f.Enabled {
			continue
		}
		if f.Endpoint == "" {
			return fmt.Errorf("%s.endpoint is required when enabled", name)
		}
		if _, err := pricefeed.ParseSymbolMap(f.SymbolMap); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// Timeout converts TimeoutSec, falling back to fallback when unset.
func (f Feed) Timeout(fallback time.Duration) time.Duration {
	if f.TimeoutSec <= 0 {
		return fallback
	}
	return time.Duration(f.TimeoutSec) * time.Second
}
