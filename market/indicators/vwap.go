package indicators

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/ivtrader/market"
)

// PriceMode selects the price VWAP weights by volume.
type PriceMode string

const (
	PriceTypical PriceMode = "typical"
	PriceClose   PriceMode = "close"
)

// ParsePriceMode accepts "typical" or "close", case-insensitively.
func ParsePriceMode(s string) (PriceMode, error) {
	switch m := PriceMode(strings.ToLower(strings.TrimSpace(s))); m {
	case PriceTypical, PriceClose:
		return m, nil
	default:
		return "", fmt.Errorf("%w: VWAP price mode %q (want typical or close)", market.ErrInvalidInput, s)
	}
}

// VWAP is cumulative price*volume over cumulative volume from the start of
// the series. While cumulative volume is zero the value is NaN; check it with
// IsNoVolume.
func VWAP(bars market.Series, mode PriceMode) ([]float64, error) {
	if mode != PriceTypical && mode != PriceClose {
		return nil, fmt.Errorf("%w: VWAP price mode %q", market.ErrInvalidInput, mode)
	}

	out := make([]float64, len(bars))
	var pv, vol float64
	for i, b := range bars {
		p := b.Close
		if mode == PriceTypical {
			p = b.Typical()
		}
		pv += p * b.Volume
		vol += b.Volume
		if vol == 0 {
			out[i] = NoVolumeValue()
			continue
		}
		out[i] = pv / vol
	}
	return out, nil
}
