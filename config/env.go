package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LookupFunc reports an environment value, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Environment returns a lookup over the process environment with the given
// .env files underneath it. Missing files are ignored; values already in the
// process environment win.
func Environment(files ...string) (LookupFunc, error) {
	dotenv := map[string]string{}
	for _, f := range files {
		kv, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		for k, v := range kv {
			if _, seen := dotenv[k]; !seen {
				dotenv[k] = v
			}
		}
	}

	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}, nil
}

// ApplyEnv overrides c from environment variables:
//
//	EMA_SHORT EMA_LONG ADX_PERIOD ATR_PERIOD VWAP_SOURCE RVOL_LOOKBACK
//	IV_RANK_LOOKBACK SL_TP_TRAIL_FACTOR MIN_IV_RANK MIN_RVOL MIN_ADX
//	REQUIRED_VOTES STRATEGY_MODE MAX_DAILY_LOSS MAX_RISK_PER_TRADE LOT_SIZE
//	DEBUG_MODE LOG_FORMAT
//
// A value that does not parse is an error naming the variable.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	ints := map[string]*int{
		"EMA_SHORT":        &c.Indicators.EMAShort,
		"EMA_LONG":         &c.Indicators.EMALong,
		"ADX_PERIOD":       &c.Indicators.ADXPeriod,
		"ATR_PERIOD":       &c.Indicators.ATRPeriod,
		"RVOL_LOOKBACK":    &c.Indicators.RVOLLookback,
		"IV_RANK_LOOKBACK": &c.Indicators.IVRankLookback,
		"REQUIRED_VOTES":   &c.Strategy.RequiredVotes,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	floats := map[string]*float64{
		"SL_TP_TRAIL_FACTOR": &c.Trade.TrailFactor,
		"MIN_IV_RANK":        &c.Strategy.IVRankMin,
		"MIN_RVOL":           &c.Strategy.RVOLMin,
		"MIN_ADX":            &c.Strategy.ADXMin,
		"MAX_DAILY_LOSS":     &c.Trade.DailyLossLimit,
		"MAX_RISK_PER_TRADE": &c.Trade.MaxRiskPerTrade,
		"LOT_SIZE":           &c.Trade.LotSize,
	}
	for key, dst := range floats {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = f
		}
	}

	strs := map[string]*string{
		"VWAP_SOURCE":   &c.Indicators.VWAPSource,
		"STRATEGY_MODE": &c.Strategy.Mode,
		"LOG_FORMAT":    &c.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup("DEBUG_MODE"); ok && strings.TrimSpace(v) != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes":
			c.Log.Level = "debug"
		case "false", "0", "no":
		default:
			return fmt.Errorf("DEBUG_MODE: bad boolean %q", v)
		}
	}
	return nil
}
