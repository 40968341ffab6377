package indicators

import (
	"math"

	"github.com/rustyeddy/ivtrader/market"
)

// DirectionalIndex holds the ADX series along with the +DI and -DI series it
// was derived from.
type DirectionalIndex struct {
	ADX     []float64
	PlusDI  []float64
	MinusDI []float64
}

// ADX computes the Average Directional Index.
//
// +DM is the rise in high when it exceeds the fall in low and is positive;
// -DM is the converse. Both are zero on the first bar. +DM, -DM and true range
// are averaged over the adaptive window, giving
//
//	+DI = 100 * avg(+DM) / (avg(TR) + eps)
//	-DI = 100 * avg(-DM) / (avg(TR) + eps)
//	DX  = 100 * |+DI - -DI| / (+DI + -DI + eps)
//
// and ADX is the adaptive rolling mean of DX.
func ADX(bars market.Series, period int) (DirectionalIndex, error) {
	if err := checkPeriod("ADX", period); err != nil {
		return DirectionalIndex{}, err
	}

	n := len(bars)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		upMove := bars[i].High - bars[i-1].High
		downMove := bars[i-1].Low - bars[i].Low
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	smTR := RollingMean(TrueRange(bars), period)
	smPlus := RollingMean(plusDM, period)
	smMinus := RollingMean(minusDM, period)

	di := DirectionalIndex{
		PlusDI:  make([]float64, n),
		MinusDI: make([]float64, n),
	}
	dx := make([]float64, n)
	for i := 0; i < n; i++ {
		pdi := 100 * smPlus[i] / (smTR[i] + Epsilon)
		mdi := 100 * smMinus[i] / (smTR[i] + Epsilon)
		di.PlusDI[i] = pdi
		di.MinusDI[i] = mdi
		dx[i] = 100 * math.Abs(pdi-mdi) / (pdi + mdi + Epsilon)
	}
	di.ADX = RollingMean(dx, period)
	return di, nil
}
