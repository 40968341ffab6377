package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rustyeddy/ivtrader/market/indicators"
	"github.com/rustyeddy/ivtrader/strategies"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)
	assert.Equal(t, 9, cfg.Indicators.EMAShort)
	assert.Equal(t, 21, cfg.Indicators.EMALong)
	assert.Equal(t, 0.5, cfg.Trade.TrailFactor)
	assert.Equal(t, 400.0, cfg.Trade.DailyLossLimit)
	assert.Equal(t, 50.0, cfg.Strategy.IVRankMin)
	assert.Equal(t, 2, cfg.Strategy.RequiredVotes)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"valid", func(c *Config) {}, ""},
		{"ema order", func(c *Config) { c.Indicators.EMAShort = 30 }, "ema_short must be below ema_long"},
		{"zero period", func(c *Config) { c.Indicators.ATRPeriod = 0 }, "indicator periods must be positive"},
		{"vwap source", func(c *Config) { c.Indicators.VWAPSource = "open" }, "indicators.vwap_source"},
		{"mode", func(c *Config) { c.Strategy.Mode = "momentum" }, "strategy.mode"},
		{"votes", func(c *Config) { c.Strategy.RequiredVotes = 5 }, "strategy.required_votes"},
		{"iv rank", func(c *Config) { c.Strategy.IVRankMin = 120 }, "strategy.iv_rank_min"},
		{"trail", func(c *Config) { c.Trade.TrailFactor = 0 }, "trade.trail_factor must be positive"},
		{"loss limit", func(c *Config) { c.Trade.DailyLossLimit = -1 }, "trade.daily_loss_limit must be positive"},
		{"lot size", func(c *Config) { c.Trade.LotSize = 0 }, "trade.lot_size must be positive"},
		{"timezone", func(c *Config) { c.Trade.Timezone = "Mars/Olympus" }, "trade.timezone"},
		{"sqlite path", func(c *Config) { c.Store.Type = "sqlite" }, "db_path required"},
		{"redis addr", func(c *Config) { c.Store.Type = "redis" }, "redis_addr required"},
		{"store type", func(c *Config) { c.Store.Type = "csv" }, "store.type"},
		{"log level", func(c *Config) { c.Log.Level = "chatty" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	for _, ext := range []string{".json", ".yaml"} {
		t.Run(ext, func(t *testing.T) {
			cfg := Default()
			cfg.Strategy.Mode = "strict"
			cfg.Trade.LotSize = 20
			path := filepath.Join(tmpDir, "test"+ext)

			require.NoError(t, cfg.SaveToFile(path))
			_, err := os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trade:\n  daily_loss_limit: 1000\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, cfg.Trade.DailyLossLimit)
	assert.Equal(t, 0.5, cfg.Trade.TrailFactor)
	assert.Equal(t, 9, cfg.Indicators.EMAShort)
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy:\n  mode: momentum\n"), 0644))
	_, err = LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"EMA_SHORT":          "5",
		"EMA_LONG":           "13",
		"VWAP_SOURCE":        "close",
		"SL_TP_TRAIL_FACTOR": "0.75",
		"MIN_IV_RANK":        "30",
		"MIN_RVOL":           "1.5",
		"MAX_DAILY_LOSS":     "800",
		"LOT_SIZE":           "20",
		"DEBUG_MODE":         "yes",
		"STRATEGY_MODE":      "strict",
		"ATR_PERIOD":         " ",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, 5, cfg.Indicators.EMAShort)
	assert.Equal(t, 13, cfg.Indicators.EMALong)
	assert.Equal(t, 14, cfg.Indicators.ATRPeriod)
	assert.Equal(t, "close", cfg.Indicators.VWAPSource)
	assert.Equal(t, 0.75, cfg.Trade.TrailFactor)
	assert.Equal(t, 30.0, cfg.Strategy.IVRankMin)
	assert.Equal(t, 1.5, cfg.Strategy.RVOLMin)
	assert.Equal(t, 800.0, cfg.Trade.DailyLossLimit)
	assert.Equal(t, 20.0, cfg.Trade.LotSize)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "strict", cfg.Strategy.Mode)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnvErrors(t *testing.T) {
	for key, val := range map[string]string{
		"EMA_SHORT":      "nine",
		"MAX_DAILY_LOSS": "lots",
		"DEBUG_MODE":     "maybe",
	} {
		t.Run(key, func(t *testing.T) {
			lookup := func(k string) (string, bool) {
				if k == key {
					return val, true
				}
				return "", false
			}
			err := Default().ApplyEnv(lookup)
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestEnvironmentDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("IVTRADER_TEST_ONLY=from-file\nIVTRADER_TEST_SHADOW=from-file\n"), 0644))
	t.Setenv("IVTRADER_TEST_SHADOW", "from-process")

	lookup, err := Environment(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	v, ok := lookup("IVTRADER_TEST_ONLY")
	assert.True(t, ok)
	assert.Equal(t, "from-file", v)

	v, ok = lookup("IVTRADER_TEST_SHADOW")
	assert.True(t, ok)
	assert.Equal(t, "from-process", v)

	_, ok = lookup("IVTRADER_TEST_NOPE")
	assert.False(t, ok)
}

func TestComponentAccessors(t *testing.T) {
	cfg := Default()
	cfg.Indicators.VWAPSource = "close"

	p := cfg.IndicatorParams()
	assert.Equal(t, indicators.PriceClose, p.VWAPSource)
	assert.Equal(t, 252, p.IVRankLookback)

	ev, err := cfg.Evaluator()
	require.NoError(t, err)
	assert.Equal(t, strategies.WeightedVote, ev.Mode())

	assert.Equal(t, 0.5, cfg.TradeConfig().TrailFactor)
	assert.Equal(t, "memory", cfg.StoreOptions().Type)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}
