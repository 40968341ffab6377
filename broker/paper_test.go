package broker

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rustyeddy/ivtrader/strategies"
	"github.com/rustyeddy/ivtrader/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaperRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := NewPaper(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := time.Date(2025, 3, 3, 9, 20, 0, 0, time.UTC)

	tr := trade.Trade{ID: "T1", EntryPrice: 100, StopLoss: 95, TakeProfit: 105}
	open, err := p.Open(ctx, OpenRequest{Time: ts, Trade: tr, Signal: strategies.Call, Lots: 1, Units: 75})
	require.NoError(t, err)
	assert.Equal(t, "PAPER-1", open.OrderID)
	assert.Equal(t, "BUY", open.Side)
	assert.Equal(t, 100.0, open.Price)
	assert.Equal(t, "CALL", open.Reason)

	closed, err := p.Close(ctx, CloseRequest{
		Time:    ts.Add(time.Minute),
		Outcome: trade.Outcome{Status: trade.StopLossHit, Trade: tr, Price: 94, Loss: 6},
		Units:   75,
	})
	require.NoError(t, err)
	assert.Equal(t, "PAPER-2", closed.OrderID)
	assert.Equal(t, "SELL", closed.Side)
	assert.Equal(t, 94.0, closed.Price)
	assert.Equal(t, "Stop Loss Hit", closed.Reason)

	fills := p.Fills()
	require.Len(t, fills, 2)
	assert.Equal(t, open, fills[0])
	assert.Equal(t, closed, fills[1])
}

func TestPaperRejects(t *testing.T) {
	ctx := context.Background()
	p := NewPaper(nil)

	_, err := p.Open(ctx, OpenRequest{Trade: trade.Trade{ID: "T1"}})
	assert.Error(t, err)

	_, err = p.Close(ctx, CloseRequest{Outcome: trade.Outcome{Status: trade.TradeActive}})
	assert.Error(t, err)
	assert.Empty(t, p.Fills())
}
