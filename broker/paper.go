package broker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Paper fills every order at the requested price and keeps the fills.
type Paper struct {
	mu       sync.RWMutex
	fills    []Fill
	orderSeq int64
	log      *slog.Logger
}

func NewPaper(log *slog.Logger) *Paper {
	if log == nil {
		log = slog.Default()
	}
	return &Paper{log: log}
}

func (p *Paper) Open(_ context.Context, req OpenRequest) (Fill, error) {
	if req.Units <= 0 {
		return Fill{}, fmt.Errorf("paper open %s: units must be positive, got %g", req.Trade.ID, req.Units)
	}
	return p.record(Fill{
		TradeID: req.Trade.ID,
		Side:    "BUY",
		Price:   req.Trade.EntryPrice,
		Units:   req.Units,
		Time:    req.Time,
		Reason:  req.Signal.String(),
	}), nil
}

func (p *Paper) Close(_ context.Context, req CloseRequest) (Fill, error) {
	if !req.Outcome.Status.Exited() {
		return Fill{}, fmt.Errorf("paper close %s: status %q is not an exit", req.Outcome.Trade.ID, req.Outcome.Status)
	}
	return p.record(Fill{
		TradeID: req.Outcome.Trade.ID,
		Side:    "SELL",
		Price:   req.Outcome.Price,
		Units:   req.Units,
		Time:    req.Time,
		Reason:  req.Outcome.Status.String(),
	}), nil
}

func (p *Paper) record(f Fill) Fill {
	p.mu.Lock()
	p.orderSeq++
	f.OrderID = fmt.Sprintf("PAPER-%d", p.orderSeq)
	p.fills = append(p.fills, f)
	p.mu.Unlock()

	p.log.Info("paper fill", "order", f.OrderID, "trade", f.TradeID, "side", f.Side,
		"price", f.Price, "units", f.Units, "reason", f.Reason)
	return f
}

// Fills returns a snapshot of all fills.
func (p *Paper) Fills() []Fill {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Fill, len(p.fills))
	copy(out, p.fills)
	return out
}
