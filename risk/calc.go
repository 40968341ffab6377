package risk

import "math"

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

type Inputs struct {
	MaxRisk    float64 // currency risked per trade, e.g. 400
	LotSize    float64 // contracts per lot, e.g. 75 for NIFTY
	EntryPrice float64
	StopPrice  float64
}

type Result struct {
	Lots       int
	Units      float64
	RiskPerLot float64
	RiskAmount float64
}

// Calculate sizes a position so that a stop-out loses at most MaxRisk.
// Zero lots means the stop is too wide for the budget.
func Calculate(in Inputs) Result {
	move := abs(in.EntryPrice - in.StopPrice)
	perLot := move * in.LotSize
	if perLot <= 0 || in.MaxRisk <= 0 {
		return Result{RiskPerLot: perLot}
	}

	lots := int(math.Floor(in.MaxRisk / perLot))
	return Result{
		Lots:       lots,
		Units:      float64(lots) * in.LotSize,
		RiskPerLot: perLot,
		RiskAmount: float64(lots) * perLot,
	}
}

// RR is reward over risk; 0 when the stop equals entry.
func RR(entry, stop, takeProfit float64) float64 {
	risk := abs(entry - stop)
	reward := abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

// Lots returns floor(maxRisk / (lotSize * |entry - stop|)), or 0 when the
// stop distance or budget is not positive.
func Lots(maxRisk, lotSize, entry, stop float64) int {
	return Calculate(Inputs{MaxRisk: maxRisk, LotSize: lotSize, EntryPrice: entry, StopPrice: stop}).Lots
}
