// Package engine drives a trading session one bar at a time: indicators,
// then the entry decision, then the trade manager. It reports opens and
// exits to a broker.Executor and saves the daily risk snapshot after every
// exit.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/rustyeddy/ivtrader/broker"
	"github.com/rustyeddy/ivtrader/market"
	"github.com/rustyeddy/ivtrader/market/indicators"
	"github.com/rustyeddy/ivtrader/metrics"
	"github.com/rustyeddy/ivtrader/pkg/id"
	"github.com/rustyeddy/ivtrader/risk"
	"github.com/rustyeddy/ivtrader/store"
	"github.com/rustyeddy/ivtrader/strategies"
	"github.com/rustyeddy/ivtrader/trade"
)

// Reasons an actionable signal did not open a trade.
const (
	RejectDailyLimit = "daily_limit"
	RejectSize       = "size"
	RejectActive     = "active"
	RejectATR        = "atr"
)

type Config struct {
	Params    indicators.Params
	Evaluator strategies.Evaluator
	Trade     trade.Config

	// MaxRiskPerTrade and LotSize size each entry with risk.Calculate.
	// MaxRiskPerTrade <= 0 disables sizing and trades a single lot.
	MaxRiskPerTrade float64
	LotSize         float64

	// Location decides where trading days start. UTC when nil.
	Location *time.Location
}

// Feed yields bars in order; ok is false at the end.
type Feed interface {
	Next() (bar market.Bar, ok bool, err error)
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithExecutor(x broker.Executor) Option {
	return func(e *Engine) { e.exec = x }
}

func WithStore(s store.Store) Option {
	return func(e *Engine) { e.store = s }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTradeOptions passes options through to the trade manager. They are
// applied after the engine's own, so WithIDs here replaces the bar-time IDs.
func WithTradeOptions(opts ...trade.Option) Option {
	return func(e *Engine) { e.tradeOpts = append(e.tradeOpts, opts...) }
}

// Step is what happened on one bar.
type Step struct {
	Bar      market.Bar
	Row      indicators.Snapshot
	Decision strategies.Decision

	// Outcome is the manager's report for a trade that was open when the
	// bar arrived.
	Outcome trade.Outcome

	Opened   *trade.Trade
	Lots     int
	Rejected string
}

// Summary totals a Run.
type Summary struct {
	Bars       int
	Signals    int
	Opened     int
	Rejected   int
	TakeProfit int
	StopLoss   int
	DailyLoss  float64
}

// Engine owns the indicator stream and the trade manager for one instrument.
// It is not safe for concurrent use; one goroutine drives Step or Run.
type Engine struct {
	cfg     Config
	manager *trade.Manager
	exec    broker.Executor
	store   store.Store
	metrics *metrics.Metrics
	log     *slog.Logger

	tradeOpts []trade.Option

	stream  *indicators.Stream
	ids     *id.Generator
	barTime time.Time
	day     string
	units   float64
}

func New(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.Evaluator == nil {
		return nil, errors.New("engine: nil evaluator")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.LotSize <= 0 {
		cfg.LotSize = 1
	}

	stream, err := indicators.NewStream(cfg.Params)
	if err != nil {
		return nil, fmt.Errorf("indicators: %w", err)
	}

	e := &Engine{
		cfg:    cfg,
		log:    slog.Default(),
		stream: stream,
		ids:    id.NewGenerator(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.exec == nil {
		e.exec = broker.NewPaper(e.log)
	}
	if e.store == nil {
		e.store = store.NewMemory()
	}

	base := []trade.Option{trade.WithLogger(e.log), trade.WithIDs(e.nextID)}
	e.manager = trade.New(cfg.Trade, append(base, e.tradeOpts...)...)
	if e.metrics != nil {
		e.metrics.DailyLossLimit.Set(cfg.Trade.DailyLossLimit)
	}
	return e, nil
}

func (e *Engine) Manager() *trade.Manager { return e.manager }

// Len is the number of bars processed.
func (e *Engine) Len() int { return e.stream.Len() }

// Day is the trading day of the latest bar, "" before the first bar.
func (e *Engine) Day() string { return e.day }

// Step processes one bar. Bars must arrive in time order.
func (e *Engine) Step(ctx context.Context, bar market.Bar) (Step, error) {
	if err := e.stream.Check(bar); err != nil {
		return Step{}, err
	}
	if err := e.rollDay(ctx, bar.Time); err != nil {
		return Step{}, err
	}

	start := time.Now()
	row, err := e.stream.Update(bar)
	if err != nil {
		return Step{}, fmt.Errorf("indicators: %w", err)
	}
	e.barTime = bar.Time
	if e.metrics != nil {
		e.metrics.BarsTotal.Inc()
		e.metrics.IndicatorLatency.Observe(time.Since(start).Seconds())
	}

	atr := row.Get(indicators.KeyATR, 0)
	st := Step{
		Bar:      bar,
		Row:      row,
		Decision: e.cfg.Evaluator.Evaluate(row),
	}
	if e.metrics != nil {
		e.metrics.SignalsTotal.WithLabelValues(st.Decision.Signal.String()).Inc()
	}

	if _, active := e.manager.Active(); active {
		st.Outcome = e.manager.Manage(bar.Close, atr)
		if st.Outcome.Status.Exited() {
			if err := e.exit(ctx, bar, st.Outcome); err != nil {
				return st, err
			}
		}
		if st.Decision.Signal.Actionable() {
			st.Rejected = RejectActive
		}
		return st, nil
	}

	if !st.Decision.Signal.Actionable() {
		return st, nil
	}
	return e.enter(ctx, bar, atr, st)
}

func (e *Engine) enter(ctx context.Context, bar market.Bar, atr float64, st Step) (Step, error) {
	if e.manager.RiskState().LimitReached() {
		return e.reject(st, RejectDailyLimit), nil
	}
	if atr < 0 || math.IsNaN(atr) {
		return e.reject(st, RejectATR), nil
	}

	lots := 1
	if e.cfg.MaxRiskPerTrade > 0 {
		stop := bar.Close - e.manager.TrailFactor()*atr
		lots = risk.Lots(e.cfg.MaxRiskPerTrade, e.cfg.LotSize, bar.Close, stop)
	}
	if lots == 0 {
		return e.reject(st, RejectSize), nil
	}

	t, ok := e.manager.Open(bar.Close, atr)
	if !ok {
		return e.reject(st, RejectDailyLimit), nil
	}
	e.units = float64(lots) * e.cfg.LotSize
	st.Opened = &t
	st.Lots = lots
	if e.metrics != nil {
		e.metrics.TradesOpened.Inc()
	}
	e.log.Info("entry", "trade", t.ID, "signal", st.Decision.Signal, "reason", st.Decision.Reason,
		"lots", lots, "entry", t.EntryPrice, "sl", t.StopLoss, "tp", t.TakeProfit,
		"rr", risk.RR(t.EntryPrice, t.StopLoss, t.TakeProfit))

	_, err := e.exec.Open(ctx, broker.OpenRequest{
		Time:   bar.Time,
		Trade:  t,
		Signal: st.Decision.Signal,
		Lots:   lots,
		Units:  e.units,
	})
	if err != nil {
		return st, fmt.Errorf("open %s: %w", t.ID, err)
	}
	return st, nil
}

// nextID stamps trade IDs with the time of the bar being processed, so a
// replayed session mints IDs that sort by bar time.
func (e *Engine) nextID() string {
	if e.barTime.IsZero() {
		return e.ids.New()
	}
	return e.ids.At(e.barTime)
}

func (e *Engine) reject(st Step, reason string) Step {
	st.Rejected = reason
	if e.metrics != nil {
		e.metrics.TradesRejected.WithLabelValues(reason).Inc()
	}
	e.log.Debug("entry rejected", "signal", st.Decision.Signal, "reason", reason)
	return st
}

func (e *Engine) exit(ctx context.Context, bar market.Bar, out trade.Outcome) error {
	rs := e.manager.RiskState()
	if e.metrics != nil {
		e.metrics.ExitsTotal.WithLabelValues(exitReason(out.Status)).Inc()
		e.metrics.DailyLoss.Set(rs.DailyLossAccumulated)
	}

	_, err := e.exec.Close(ctx, broker.CloseRequest{Time: bar.Time, Outcome: out, Units: e.units})
	e.units = 0
	if err != nil {
		return fmt.Errorf("close %s: %w", out.Trade.ID, err)
	}

	if e.day != "" {
		if err := store.SaveState(ctx, e.store, e.day, rs); err != nil {
			e.log.Error("saving risk state", "day", e.day, "err", err)
			return err
		}
	}
	return nil
}

// rollDay starts a new trading day when t falls on a different calendar day
// than the previous bar, restoring any loss already saved for that day.
func (e *Engine) rollDay(ctx context.Context, t time.Time) error {
	if t.IsZero() {
		return nil
	}
	day := store.Day(t.In(e.cfg.Location))
	if day == e.day {
		return nil
	}

	rs, err := store.LoadState(ctx, e.store, day, e.cfg.Trade.DailyLossLimit)
	if err != nil {
		e.log.Error("loading risk state", "day", day, "err", err)
		return err
	}
	e.manager.StartDay(rs.DailyLossAccumulated)
	if e.day != "" {
		e.log.Info("new trading day", "day", day, "daily_loss", rs.DailyLossAccumulated)
	}
	e.day = day
	if e.metrics != nil {
		e.metrics.DailyLoss.Set(rs.DailyLossAccumulated)
	}
	return nil
}

// Run steps through every bar from f until it ends or ctx is done.
func (e *Engine) Run(ctx context.Context, f Feed) (Summary, error) {
	var sum Summary
	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		bar, ok, err := f.Next()
		if err != nil {
			return sum, fmt.Errorf("feed: %w", err)
		}
		if !ok {
			break
		}

		st, err := e.Step(ctx, bar)
		if err != nil {
			return sum, err
		}
		sum.add(st)
	}
	sum.DailyLoss = e.manager.RiskState().DailyLossAccumulated
	return sum, nil
}

func (s *Summary) add(st Step) {
	s.Bars++
	if st.Decision.Signal.Actionable() {
		s.Signals++
	}
	if st.Opened != nil {
		s.Opened++
	}
	if st.Rejected != "" && st.Rejected != RejectActive {
		s.Rejected++
	}
	switch st.Outcome.Status {
	case trade.TakeProfitHit:
		s.TakeProfit++
	case trade.StopLossHit:
		s.StopLoss++
	}
}

func exitReason(s trade.Status) string {
	switch s {
	case trade.TakeProfitHit:
		return "take_profit"
	case trade.StopLossHit:
		return "stop_loss"
	}
	return "none"
}
