// Package broker is the order side of the trading loop. The engine reports
// opens and exits to an Executor; a live implementation turns those into
// exchange orders, Paper just records them.
package broker

import (
	"context"
	"time"

	"github.com/rustyeddy/ivtrader/strategies"
	"github.com/rustyeddy/ivtrader/trade"
)

// OpenRequest asks the executor to buy Units of the traded contract with a
// protective stop and target.
type OpenRequest struct {
	Time   time.Time
	Trade  trade.Trade
	Signal strategies.Signal
	Lots   int
	Units  float64
}

// CloseRequest reports that the manager closed a trade.
type CloseRequest struct {
	Time    time.Time
	Outcome trade.Outcome
	Units   float64
}

type Executor interface {
	Open(ctx context.Context, req OpenRequest) (Fill, error)
	Close(ctx context.Context, req CloseRequest) (Fill, error)
}

// Fill is the executor's acknowledgement of an order.
type Fill struct {
	OrderID string
	TradeID string
	Side    string // "BUY" or "SELL"
	Price   float64
	Units   float64
	Time    time.Time
	Reason  string
}
