package indicators

import "github.com/rustyeddy/ivtrader/market"

// RVOL is relative volume: volume / (adaptive rolling mean volume + eps).
func RVOL(bars market.Series, period int) ([]float64, error) {
	if err := checkPeriod("RVOL", period); err != nil {
		return nil, err
	}
	vols := bars.Volumes()
	avg := RollingMean(vols, period)
	out := make([]float64, len(vols))
	for i, v := range vols {
		out[i] = v / (avg[i] + Epsilon)
	}
	return out, nil
}

// IVRank places each implied volatility within its adaptive rolling range:
//
//	100 * (iv - min) / (max - min + eps)
//
// The result is in [0, 100] whenever max > min. It is not clamped; when the
// window is flat the value collapses to 0.
func IVRank(ivs []float64, period int) ([]float64, error) {
	if err := checkPeriod("IV rank", period); err != nil {
		return nil, err
	}
	lo := RollingMin(ivs, period)
	hi := RollingMax(ivs, period)
	out := make([]float64, len(ivs))
	for i, iv := range ivs {
		out[i] = 100 * (iv - lo[i]) / (hi[i] - lo[i] + Epsilon)
	}
	return out, nil
}
