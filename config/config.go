package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rustyeddy/ivtrader/logger"
	"github.com/rustyeddy/ivtrader/market/indicators"
	"github.com/rustyeddy/ivtrader/strategies"
	"github.com/rustyeddy/ivtrader/trade"
	"gopkg.in/yaml.v3"
)

// Config is the full session configuration. It is built once at start-up
// and passed to each component; nothing reads it from globals.
type Config struct {
	Indicators IndicatorConfig `json:"indicators" yaml:"indicators"`
	Strategy   StrategyConfig  `json:"strategy" yaml:"strategy"`
	Trade      TradeConfig     `json:"trade" yaml:"trade"`
	Store      StoreConfig     `json:"store" yaml:"store"`
	Log        LogConfig       `json:"log" yaml:"log"`
	Metrics    MetricsConfig   `json:"metrics" yaml:"metrics"`
}

// IndicatorConfig contains indicator periods
type IndicatorConfig struct {
	EMAShort       int    `json:"ema_short" yaml:"ema_short"`
	EMALong        int    `json:"ema_long" yaml:"ema_long"`
	ADXPeriod      int    `json:"adx_period" yaml:"adx_period"`
	ATRPeriod      int    `json:"atr_period" yaml:"atr_period"`
	VWAPSource     string `json:"vwap_source" yaml:"vwap_source"` // "typical" or "close"
	RVOLLookback   int    `json:"rvol_lookback" yaml:"rvol_lookback"`
	IVRankLookback int    `json:"iv_rank_lookback" yaml:"iv_rank_lookback"`
}

// StrategyConfig selects the entry policy and its thresholds
type StrategyConfig struct {
	Mode          string  `json:"mode" yaml:"mode"` // "vote" or "strict"
	RVOLMin       float64 `json:"rvol_min" yaml:"rvol_min"`
	ADXMin        float64 `json:"adx_min" yaml:"adx_min"`
	IVRankMin     float64 `json:"iv_rank_min" yaml:"iv_rank_min"`
	RequiredVotes int     `json:"required_votes" yaml:"required_votes"`
}

// TradeConfig contains stop/target and risk parameters
type TradeConfig struct {
	TrailFactor     float64 `json:"trail_factor" yaml:"trail_factor"`
	DailyLossLimit  float64 `json:"daily_loss_limit" yaml:"daily_loss_limit"`
	MaxRiskPerTrade float64 `json:"max_risk_per_trade" yaml:"max_risk_per_trade"`
	LotSize         float64 `json:"lot_size" yaml:"lot_size"`
	Timezone        string  `json:"timezone,omitempty" yaml:"timezone,omitempty"` // trading-day boundary, e.g. "Asia/Kolkata"
}

// StoreConfig selects where the daily risk snapshot is kept
type StoreConfig struct {
	Type          string `json:"type" yaml:"type"` // "memory", "sqlite" or "redis"
	DBPath        string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	RedisAddr     string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty" yaml:"redis_db,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "text" or "json"
}

type MetricsConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"` // e.g. ":9102"; empty disables
}

// LoadFromFile loads configuration from a file (YAML first, JSON fallback)
// on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes YAML for .yaml/.yml paths and JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	in := c.Indicators
	if in.EMAShort <= 0 || in.EMALong <= 0 {
		return fmt.Errorf("indicators.ema_short and ema_long must be positive")
	}
	if in.EMAShort >= in.EMALong {
		return fmt.Errorf("indicators.ema_short must be below ema_long")
	}
	if in.ADXPeriod <= 0 || in.ATRPeriod <= 0 || in.RVOLLookback <= 0 || in.IVRankLookback <= 0 {
		return fmt.Errorf("indicator periods must be positive")
	}
	if _, err := indicators.ParsePriceMode(in.VWAPSource); err != nil {
		return fmt.Errorf("indicators.vwap_source: %w", err)
	}

	if _, err := strategies.ParseMode(c.Strategy.Mode); err != nil {
		return fmt.Errorf("strategy.mode: %w", err)
	}
	if c.Strategy.RequiredVotes < 1 || c.Strategy.RequiredVotes > 4 {
		return fmt.Errorf("strategy.required_votes must be between 1 and 4")
	}
	if c.Strategy.IVRankMin < 0 || c.Strategy.IVRankMin > 100 {
		return fmt.Errorf("strategy.iv_rank_min must be between 0 and 100")
	}

	if c.Trade.TrailFactor <= 0 {
		return fmt.Errorf("trade.trail_factor must be positive")
	}
	if c.Trade.DailyLossLimit <= 0 {
		return fmt.Errorf("trade.daily_loss_limit must be positive")
	}
	if c.Trade.MaxRiskPerTrade < 0 {
		return fmt.Errorf("trade.max_risk_per_trade must not be negative")
	}
	if c.Trade.LotSize <= 0 {
		return fmt.Errorf("trade.lot_size must be positive")
	}
	if c.Trade.Timezone != "" {
		if _, err := c.Location(); err != nil {
			return fmt.Errorf("trade.timezone: %w", err)
		}
	}

	switch c.Store.Type {
	case "memory":
	case "sqlite":
		if c.Store.DBPath == "" {
			return fmt.Errorf("store db_path required for sqlite type")
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store redis_addr required for redis type")
		}
	default:
		return fmt.Errorf("store.type must be 'memory', 'sqlite' or 'redis'")
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if f := strings.ToLower(c.Log.Format); f != "" && f != "text" && f != "json" {
		return fmt.Errorf("log.format must be 'text' or 'json'")
	}
	return nil
}

// Default returns a configuration with the stock intraday settings
func Default() *Config {
	return &Config{
		Indicators: IndicatorConfig{
			EMAShort:       9,
			EMALong:        21,
			ADXPeriod:      14,
			ATRPeriod:      14,
			VWAPSource:     "typical",
			RVOLLookback:   20,
			IVRankLookback: 252,
		},
		Strategy: StrategyConfig{
			Mode:          "vote",
			RVOLMin:       2.0,
			ADXMin:        20,
			IVRankMin:     50,
			RequiredVotes: 2,
		},
		Trade: TradeConfig{
			TrailFactor:     trade.DefaultTrailFactor,
			DailyLossLimit:  400,
			MaxRiskPerTrade: 400,
			LotSize:         75,
		},
		Store: StoreConfig{
			Type: "memory",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
