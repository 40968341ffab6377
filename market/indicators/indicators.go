// Package indicators turns an ordered bar series into derived series.
//
// Every function is pure: it reads its input, never mutates it, and returns a
// new slice index-aligned 1:1 with the input. Rolling operations use an
// adaptive window of min(period, i+1) points so every output is defined from
// the first bar; downstream thresholds are tuned against this warm-up shape.
package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/ivtrader/market"
)

// Epsilon guards divisions whose denominator can legitimately be zero.
const Epsilon = 1e-9

// IsNoVolume reports whether v is the VWAP sentinel emitted while cumulative
// volume is still zero.
func IsNoVolume(v float64) bool { return math.IsNaN(v) }

func checkPeriod(name string, period int) error {
	if period <= 0 {
		return fmt.Errorf("%w: %s period must be positive, got %d", market.ErrInvalidInput, name, period)
	}
	return nil
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}

// NoVolumeValue returns the sentinel IsNoVolume recognizes.
func NoVolumeValue() float64 { return math.NaN() }
