package indicators

import (
	"math"

	"github.com/rustyeddy/ivtrader/market"
)

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|) per bar.
// The first bar has no previous close and uses high-low.
func TrueRange(bars market.Series) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		if i == 0 {
			out[i] = b.High - b.Low
			continue
		}
		prevClose := bars[i-1].Close
		out[i] = max3(b.High-b.Low, math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose))
	}
	return out
}

// ATR is the adaptive rolling mean of TrueRange.
func ATR(bars market.Series, period int) ([]float64, error) {
	if err := checkPeriod("ATR", period); err != nil {
		return nil, err
	}
	return RollingMean(TrueRange(bars), period), nil
}
