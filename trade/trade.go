// Package trade owns the single active position: it opens a trade sized off
// ATR, trails its stop-loss and take-profit, closes it when either is hit and
// keeps the running daily loss.
package trade

import "fmt"

// Trade is an open long position on the traded price.
type Trade struct {
	ID         string
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
}

func (t Trade) String() string {
	return fmt.Sprintf("%s entry=%.2f sl=%.2f tp=%.2f", t.ID, t.EntryPrice, t.StopLoss, t.TakeProfit)
}

// Status is what Manage reports for one price update.
type Status int

const (
	NoActiveTrade Status = iota
	TradeActive
	TakeProfitHit
	StopLossHit
)

func (s Status) String() string {
	switch s {
	case TradeActive:
		return "Trade Active"
	case TakeProfitHit:
		return "Take Profit Hit"
	case StopLossHit:
		return "Stop Loss Hit"
	default:
		return "No Active Trade"
	}
}

// Exited reports whether the status closed the trade.
func (s Status) Exited() bool { return s == TakeProfitHit || s == StopLossHit }

// Outcome describes the result of CheckExit or Manage.
type Outcome struct {
	Status Status

	// Trade is the trade as it stood when the outcome was decided. It is the
	// zero Trade when Status is NoActiveTrade.
	Trade Trade
	Price float64

	// Loss is entry - price for a stop-loss exit. It is signed: positive on a
	// losing exit, negative when the stop was ratcheted above entry. The
	// daily loss accumulates its absolute value.
	Loss float64
}
