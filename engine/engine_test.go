package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rustyeddy/ivtrader/broker"
	"github.com/rustyeddy/ivtrader/feed"
	"github.com/rustyeddy/ivtrader/market"
	"github.com/rustyeddy/ivtrader/market/indicators"
	"github.com/rustyeddy/ivtrader/metrics"
	"github.com/rustyeddy/ivtrader/pkg/id"
	"github.com/rustyeddy/ivtrader/risk"
	"github.com/rustyeddy/ivtrader/store"
	"github.com/rustyeddy/ivtrader/strategies"
	"github.com/rustyeddy/ivtrader/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted returns its signals in order, then NoTrade.
type scripted struct {
	signals []strategies.Signal
	i       int
}

func (s *scripted) Name() string          { return "scripted" }
func (s *scripted) Mode() strategies.Mode { return strategies.WeightedVote }
func (s *scripted) Evaluate(indicators.Snapshot) strategies.Decision {
	sig := strategies.NoTrade
	if s.i < len(s.signals) {
		sig = s.signals[s.i]
	}
	s.i++
	return strategies.Decision{Signal: sig, Reason: "scripted"}
}

var t0 = time.Date(2025, 3, 3, 9, 15, 0, 0, time.UTC)

// bar has a constant 2-point range, so ATR stays 2 while closes move by at
// most 1.
func bar(min int, close float64) market.Bar {
	return market.Bar{
		Time:   t0.Add(time.Duration(min) * time.Minute),
		High:   close + 1,
		Low:    close - 1,
		Close:  close,
		Volume: 1000,
	}
}

func testConfig(ev strategies.Evaluator) Config {
	return Config{
		Params:          indicators.DefaultParams(),
		Evaluator:       ev,
		Trade:           trade.Config{TrailFactor: 0.5, DailyLossLimit: 400},
		MaxRiskPerTrade: 400,
		LotSize:         75,
	}
}

func sequentialIDs() trade.Option {
	n := 0
	return trade.WithIDs(func() string {
		n++
		return fmt.Sprintf("T%d", n)
	})
}

func newTestEngine(t *testing.T, cfg Config, opts ...Option) (*Engine, *broker.Paper) {
	t.Helper()
	paper := broker.NewPaper(nil)
	opts = append([]Option{WithExecutor(paper), WithTradeOptions(sequentialIDs())}, opts...)
	e, err := New(cfg, opts...)
	require.NoError(t, err)
	return e, paper
}

func TestNewRequiresEvaluator(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestTakeProfitRoundTrip(t *testing.T) {
	ctx := context.Background()
	e, paper := newTestEngine(t, testConfig(&scripted{signals: []strategies.Signal{strategies.Enter}}))

	st, err := e.Step(ctx, bar(0, 100))
	require.NoError(t, err)
	require.NotNil(t, st.Opened)
	assert.Equal(t, "T1", st.Opened.ID)
	assert.InDelta(t, 99.0, st.Opened.StopLoss, 1e-9)
	assert.InDelta(t, 101.0, st.Opened.TakeProfit, 1e-9)
	assert.Equal(t, 5, st.Lots) // 400 / (75 * 1)

	st, err = e.Step(ctx, bar(1, 100.5))
	require.NoError(t, err)
	assert.Equal(t, trade.TradeActive, st.Outcome.Status)

	st, err = e.Step(ctx, bar(2, 101))
	require.NoError(t, err)
	assert.Equal(t, trade.TakeProfitHit, st.Outcome.Status)
	_, active := e.Manager().Active()
	assert.False(t, active)

	fills := paper.Fills()
	require.Len(t, fills, 2)
	assert.Equal(t, "BUY", fills[0].Side)
	assert.Equal(t, 375.0, fills[0].Units)
	assert.Equal(t, "SELL", fills[1].Side)
	assert.Equal(t, 101.0, fills[1].Price)
	assert.Equal(t, 375.0, fills[1].Units)
	assert.Equal(t, 0.0, e.Manager().RiskState().DailyLossAccumulated)
}

func TestStopLossPersistsDailyLoss(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	e, _ := newTestEngine(t, testConfig(&scripted{signals: []strategies.Signal{strategies.Enter}}), WithStore(mem))

	_, err := e.Step(ctx, bar(0, 100))
	require.NoError(t, err)
	st, err := e.Step(ctx, bar(1, 99))
	require.NoError(t, err)
	assert.Equal(t, trade.StopLossHit, st.Outcome.Status)
	assert.InDelta(t, 1.0, st.Outcome.Loss, 1e-9)

	rs, err := store.LoadState(ctx, mem, "2025-03-03", 400)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rs.DailyLossAccumulated, 1e-9)
}

func TestDailyLimitAndRollover(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(&scripted{signals: []strategies.Signal{
		strategies.Enter, strategies.NoTrade, strategies.Enter, strategies.Enter,
	}})
	cfg.Trade.DailyLossLimit = 1
	e, _ := newTestEngine(t, cfg)

	_, err := e.Step(ctx, bar(0, 100))
	require.NoError(t, err)
	_, err = e.Step(ctx, bar(1, 99)) // stop-out, loss 1 reaches the limit
	require.NoError(t, err)
	require.True(t, e.Manager().RiskState().LimitReached())

	st, err := e.Step(ctx, bar(2, 99))
	require.NoError(t, err)
	assert.Nil(t, st.Opened)
	assert.Equal(t, RejectDailyLimit, st.Rejected)

	next := bar(0, 99)
	next.Time = t0.Add(24 * time.Hour)
	st, err = e.Step(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-04", e.Day())
	require.NotNil(t, st.Opened)
	assert.Equal(t, "T2", st.Opened.ID)
}

func TestRestoresSavedLoss(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, store.SaveState(ctx, mem, "2025-03-03", risk.State{DailyLossAccumulated: 400}))

	e, paper := newTestEngine(t, testConfig(&scripted{signals: []strategies.Signal{strategies.Enter}}), WithStore(mem))
	st, err := e.Step(ctx, bar(0, 100))
	require.NoError(t, err)
	assert.Equal(t, RejectDailyLimit, st.Rejected)
	assert.Empty(t, paper.Fills())
}

func TestDayUsesLocation(t *testing.T) {
	ist, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	cfg := testConfig(&scripted{})
	cfg.Location = ist
	e, _ := newTestEngine(t, cfg)

	b := bar(0, 100)
	b.Time = time.Date(2025, 3, 3, 20, 0, 0, 0, time.UTC) // 01:30 on the 4th in IST
	_, err = e.Step(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-04", e.Day())
}

func TestStopTooWideForBudget(t *testing.T) {
	cfg := testConfig(&scripted{signals: []strategies.Signal{strategies.Enter}})
	cfg.MaxRiskPerTrade = 50 // one lot risks 75
	m := metrics.New()
	e, _ := newTestEngine(t, cfg, WithMetrics(m))

	st, err := e.Step(context.Background(), bar(0, 100))
	require.NoError(t, err)
	assert.Nil(t, st.Opened)
	assert.Equal(t, RejectSize, st.Rejected)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TradesRejected.WithLabelValues(RejectSize)))
}

func TestSignalWhileActiveIsIgnored(t *testing.T) {
	ctx := context.Background()
	e, paper := newTestEngine(t, testConfig(&scripted{signals: []strategies.Signal{strategies.Enter, strategies.Enter}}))

	_, err := e.Step(ctx, bar(0, 100))
	require.NoError(t, err)
	st, err := e.Step(ctx, bar(1, 100.2))
	require.NoError(t, err)
	assert.Nil(t, st.Opened)
	assert.Equal(t, RejectActive, st.Rejected)
	assert.Len(t, paper.Fills(), 1)
}

func TestStrictCallOpensLong(t *testing.T) {
	ctx := context.Background()
	e, paper := newTestEngine(t, testConfig(strategies.StrictDirectional{}))

	st, err := e.Step(ctx, bar(0, 100))
	require.NoError(t, err)
	assert.Equal(t, strategies.NoTrade, st.Decision.Signal) // close equals vwap

	st, err = e.Step(ctx, bar(1, 100.5))
	require.NoError(t, err)
	assert.Equal(t, strategies.Call, st.Decision.Signal)
	require.NotNil(t, st.Opened)
	assert.Equal(t, 100.5, st.Opened.EntryPrice)

	fills := paper.Fills()
	require.Len(t, fills, 1)
	assert.Equal(t, "CALL", fills[0].Reason)
}

func TestStrictPutOpensLong(t *testing.T) {
	ctx := context.Background()
	e, paper := newTestEngine(t, testConfig(strategies.StrictDirectional{}))

	st, err := e.Step(ctx, bar(0, 100))
	require.NoError(t, err)
	assert.Equal(t, strategies.NoTrade, st.Decision.Signal)

	st, err = e.Step(ctx, bar(1, 99.5))
	require.NoError(t, err)
	assert.Equal(t, strategies.Put, st.Decision.Signal)
	require.NotNil(t, st.Opened)
	assert.Equal(t, 99.5, st.Opened.EntryPrice)
	assert.Equal(t, 98.5, st.Opened.StopLoss)
	assert.Equal(t, 100.5, st.Opened.TakeProfit)

	fills := paper.Fills()
	require.Len(t, fills, 1)
	assert.Equal(t, "BUY", fills[0].Side)
	assert.Equal(t, "PUT", fills[0].Reason)
}

func TestTradeIDsCarryBarTime(t *testing.T) {
	ctx := context.Background()
	e, err := New(testConfig(&scripted{signals: []strategies.Signal{strategies.NoTrade, strategies.Call}}),
		WithExecutor(broker.NewPaper(nil)))
	require.NoError(t, err)

	_, err = e.Step(ctx, bar(0, 100))
	require.NoError(t, err)
	st, err := e.Step(ctx, bar(1, 100))
	require.NoError(t, err)
	require.NotNil(t, st.Opened)

	ts, err := id.Time(st.Opened.ID)
	require.NoError(t, err)
	assert.True(t, ts.Equal(t0.Add(time.Minute)), "id time %s", ts)
}

func TestStepRejectsBadBars(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, testConfig(&scripted{}))

	bad := bar(0, 100)
	bad.High = 90
	_, err := e.Step(ctx, bad)
	assert.ErrorIs(t, err, market.ErrInvalidInput)

	_, err = e.Step(ctx, bar(5, 100))
	require.NoError(t, err)
	_, err = e.Step(ctx, bar(4, 100))
	assert.ErrorIs(t, err, market.ErrInvalidInput)
	assert.Equal(t, 1, e.Len())
}

type failingExecutor struct{}

func (failingExecutor) Open(context.Context, broker.OpenRequest) (broker.Fill, error) {
	return broker.Fill{}, errors.New("exchange down")
}

func (failingExecutor) Close(context.Context, broker.CloseRequest) (broker.Fill, error) {
	return broker.Fill{}, errors.New("exchange down")
}

func TestExecutorErrorsSurface(t *testing.T) {
	e, err := New(testConfig(&scripted{signals: []strategies.Signal{strategies.Enter}}), WithExecutor(failingExecutor{}))
	require.NoError(t, err)

	_, err = e.Step(context.Background(), bar(0, 100))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange down")
}

const csvSession = `time,high,low,close,volume
2025-03-03 09:15:00,101,99,100,1000
2025-03-03 09:16:00,100,98,99,1000
2025-03-03 09:17:00,100,98,99,1000
2025-03-03 09:18:00,100.5,98.5,99.5,1000
2025-03-03 09:19:00,101,99,100,1000
`

func TestRunFromCSV(t *testing.T) {
	ev := &scripted{signals: []strategies.Signal{
		strategies.Enter, strategies.NoTrade, strategies.Enter, strategies.NoTrade, strategies.NoTrade,
	}}
	m := metrics.New()
	e, paper := newTestEngine(t, testConfig(ev), WithMetrics(m))

	sum, err := e.Run(context.Background(), feed.NewCSV(strings.NewReader(csvSession), nil))
	require.NoError(t, err)

	assert.Equal(t, Summary{
		Bars:       5,
		Signals:    2,
		Opened:     2,
		TakeProfit: 1,
		StopLoss:   1,
		DailyLoss:  1,
	}, sum)
	assert.Len(t, paper.Fills(), 4)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.BarsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TradesOpened))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExitsTotal.WithLabelValues("stop_loss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExitsTotal.WithLabelValues("take_profit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DailyLoss))
	assert.Equal(t, 400.0, testutil.ToFloat64(m.DailyLossLimit))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SignalsTotal.WithLabelValues("NO_TRADE")))
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e, _ := newTestEngine(t, testConfig(&scripted{}))
	sum, err := e.Run(ctx, feed.NewCSV(strings.NewReader(csvSession), nil))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, sum.Bars)
}
