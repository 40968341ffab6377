package config

import (
	"time"

	"github.com/rustyeddy/ivtrader/market/indicators"
	"github.com/rustyeddy/ivtrader/store"
	"github.com/rustyeddy/ivtrader/strategies"
	"github.com/rustyeddy/ivtrader/trade"
)

// The accessors below translate the validated config into each component's
// own option struct.

func (c *Config) IndicatorParams() indicators.Params {
	mode, _ := indicators.ParsePriceMode(c.Indicators.VWAPSource)
	return indicators.Params{
		EMAShort:       c.Indicators.EMAShort,
		EMALong:        c.Indicators.EMALong,
		ATRPeriod:      c.Indicators.ATRPeriod,
		ADXPeriod:      c.Indicators.ADXPeriod,
		RVOLLookback:   c.Indicators.RVOLLookback,
		IVRankLookback: c.Indicators.IVRankLookback,
		VWAPSource:     mode,
	}
}

func (c *Config) Thresholds() strategies.Thresholds {
	return strategies.Thresholds{
		RVOLMin:       c.Strategy.RVOLMin,
		ADXMin:        c.Strategy.ADXMin,
		IVRankMin:     c.Strategy.IVRankMin,
		RequiredVotes: c.Strategy.RequiredVotes,
	}
}

func (c *Config) Evaluator() (strategies.Evaluator, error) {
	return strategies.Get(c.Strategy.Mode, c.Thresholds())
}

func (c *Config) TradeConfig() trade.Config {
	return trade.Config{
		TrailFactor:    c.Trade.TrailFactor,
		DailyLossLimit: c.Trade.DailyLossLimit,
	}
}

func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Type:   c.Store.Type,
		DBPath: c.Store.DBPath,
		Redis: store.RedisConfig{
			Addr:     c.Store.RedisAddr,
			Password: c.Store.RedisPassword,
			DB:       c.Store.RedisDB,
		},
	}
}

// Location is the zone trading days are counted in; UTC when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Trade.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Trade.Timezone)
}
