package market

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidInput marks malformed bars and out-of-range indicator options.
// Callers match it with errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// Bar is one closed time step of price/volume data.
//
// IV is the implied volatility of the traded contract at the bar close. It is
// only meaningful when HasIV is set; bar sources that do not carry implied
// volatility leave both zero.
type Bar struct {
	time.Time
	High   float64
	Low    float64
	Close  float64
	Volume float64

	IV    float64
	HasIV bool
}

// Typical returns (high+low+close)/3.
func (b Bar) Typical() float64 {
	return (b.High + b.Low + b.Close) / 3
}

// Validate reports whether b is a well formed bar.
func (b Bar) Validate() error {
	for _, v := range []float64{b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value in bar", ErrInvalidInput)
		}
	}
	if b.High < 0 || b.Low < 0 || b.Close < 0 {
		return fmt.Errorf("%w: negative price (h=%g l=%g c=%g)", ErrInvalidInput, b.High, b.Low, b.Close)
	}
	if b.Volume < 0 {
		return fmt.Errorf("%w: negative volume %g", ErrInvalidInput, b.Volume)
	}
	if b.High < b.Low {
		return fmt.Errorf("%w: high %g < low %g", ErrInvalidInput, b.High, b.Low)
	}
	if b.HasIV && (b.IV < 0 || math.IsNaN(b.IV) || math.IsInf(b.IV, 0)) {
		return fmt.Errorf("%w: bad implied volatility %g", ErrInvalidInput, b.IV)
	}
	return nil
}
