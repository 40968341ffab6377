package indicators

import (
	"fmt"
	"sort"

	"github.com/rustyeddy/ivtrader/market"
)

// Names of the series produced by Compute.
const (
	KeyClose    = "close"
	KeyVWAP     = "vwap"
	KeyEMAShort = "ema_short"
	KeyEMALong  = "ema_long"
	KeySlope    = "ema_slope"
	KeyATR      = "atr"
	KeyADX      = "adx"
	KeyPlusDI   = "plus_di"
	KeyMinusDI  = "minus_di"
	KeyRVOL     = "rvol"
	KeyIVRank   = "iv_rank"
)

// Params are the periods and modes Compute runs with.
type Params struct {
	EMAShort       int
	EMALong        int
	ATRPeriod      int
	ADXPeriod      int
	RVOLLookback   int
	IVRankLookback int
	VWAPSource     PriceMode
}

func DefaultParams() Params {
	return Params{
		EMAShort:       9,
		EMALong:        21,
		ATRPeriod:      14,
		ADXPeriod:      14,
		RVOLLookback:   20,
		IVRankLookback: 252,
		VWAPSource:     PriceTypical,
	}
}

// Set maps an indicator name to a series aligned with the bars it came from.
type Set map[string][]float64

// Snapshot is one row of a Set.
type Snapshot map[string]float64

// Len is the length of the aligned series.
func (s Set) Len() int {
	for _, v := range s {
		return len(v)
	}
	return 0
}

// Names returns the indicator names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// At returns the row at index i. ok is false when i is out of range.
func (s Set) At(i int) (Snapshot, bool) {
	if i < 0 || i >= s.Len() {
		return nil, false
	}
	row := make(Snapshot, len(s))
	for k, v := range s {
		row[k] = v[i]
	}
	return row, true
}

// Latest returns the last row.
func (s Set) Latest() (Snapshot, bool) {
	return s.At(s.Len() - 1)
}

// Get returns the named value, or def when the indicator is absent.
func (r Snapshot) Get(name string, def float64) float64 {
	if v, ok := r[name]; ok {
		return v
	}
	return def
}

// Compute validates bars and derives every indicator over them. The implied
// volatility rank is included only when every bar carries implied volatility.
func Compute(bars market.Series, p Params) (Set, error) {
	if err := bars.Validate(); err != nil {
		return nil, err
	}
	if p.EMAShort >= p.EMALong {
		return nil, fmt.Errorf("%w: ema short period %d must be below long period %d",
			market.ErrInvalidInput, p.EMAShort, p.EMALong)
	}

	closes := bars.Closes()
	set := Set{KeyClose: closes}

	var err error
	if set[KeyVWAP], err = VWAP(bars, p.VWAPSource); err != nil {
		return nil, err
	}
	if set[KeyEMAShort], err = EMASeries(closes, p.EMAShort); err != nil {
		return nil, err
	}
	if set[KeyEMALong], err = EMASeries(closes, p.EMALong); err != nil {
		return nil, err
	}
	if set[KeySlope], err = EMASlope(closes, p.EMAShort); err != nil {
		return nil, err
	}
	if set[KeyATR], err = ATR(bars, p.ATRPeriod); err != nil {
		return nil, err
	}

	di, err := ADX(bars, p.ADXPeriod)
	if err != nil {
		return nil, err
	}
	set[KeyADX] = di.ADX
	set[KeyPlusDI] = di.PlusDI
	set[KeyMinusDI] = di.MinusDI

	if set[KeyRVOL], err = RVOL(bars, p.RVOLLookback); err != nil {
		return nil, err
	}

	if ivs, ok := bars.IVs(); ok {
		if set[KeyIVRank], err = IVRank(ivs, p.IVRankLookback); err != nil {
			return nil, err
		}
	}
	return set, nil
}
