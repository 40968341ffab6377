package indicators

import (
	"fmt"

	"github.com/rustyeddy/ivtrader/market"
)

// EMASeries computes an exponential moving average with alpha = 2/(period+1),
// seeded with the first raw value:
//
//	ema[0] = x[0]
//	ema[t] = ema[t-1] + alpha*(x[t]-ema[t-1])
func EMASeries(xs []float64, period int) ([]float64, error) {
	if err := checkPeriod("EMA", period); err != nil {
		return nil, err
	}
	alpha := 2.0 / float64(period+1)
	out := make([]float64, len(xs))
	for i, x := range xs {
		if i == 0 {
			out[i] = x
			continue
		}
		out[i] = out[i-1] + alpha*(x-out[i-1])
	}
	return out, nil
}

// EMASlope is the first difference of EMASeries(xs, period). The slope at
// index 0 is 0 since there is no prior EMA to difference against.
func EMASlope(xs []float64, period int) ([]float64, error) {
	ema, err := EMASeries(xs, period)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(ema))
	for i := 1; i < len(ema); i++ {
		out[i] = ema[i] - ema[i-1]
	}
	return out, nil
}

// EMA is the streaming form of EMASeries over bar closes. Feeding it the bars
// of a series one at a time yields the same values as EMASeries.
type EMA struct {
	n     int
	alpha float64

	seen  int
	value float64
	ready bool

	name string
}

func NewEMA(period int) *EMA {
	if period <= 0 {
		panic("EMA period must be > 0")
	}
	return &EMA{
		n:     period,
		alpha: 2.0 / float64(period+1),
		name:  fmt.Sprintf("EMA(%d)", period),
	}
}

func (e *EMA) Name() string     { return e.name }
func (e *EMA) Warmup() int      { return e.n }
func (e *EMA) Ready() bool      { return e.ready }
func (e *EMA) Float64() float64 { return e.value }

func (e *EMA) Reset() {
	e.seen = 0
	e.value = 0
	e.ready = false
}

func (e *EMA) Update(b market.Bar) {
	e.seen++
	if e.seen == 1 {
		e.value = b.Close
	} else {
		e.value += e.alpha * (b.Close - e.value)
	}

	if e.seen >= e.n {
		e.ready = true
	}
}
