package trade

import (
	"log/slog"
	"math"
	"sync"

	"github.com/rustyeddy/ivtrader/pkg/id"
	"github.com/rustyeddy/ivtrader/risk"
)

// DefaultTrailFactor is the ATR multiple used for stop and target distance.
const DefaultTrailFactor = 0.5

type Config struct {
	TrailFactor    float64
	DailyLossLimit float64
}

type Option func(*Manager)

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithIDs replaces the trade ID generator.
func WithIDs(next func() string) Option {
	return func(m *Manager) { m.nextID = next }
}

// WithDailyLoss seeds the accumulated daily loss, e.g. from a persisted
// snapshot.
func WithDailyLoss(loss float64) Option {
	return func(m *Manager) { m.state.DailyLossAccumulated = loss }
}

// Manager is the trade lifecycle state machine:
//
//	Idle --Open--> Open --Trail--> Open --CheckExit--> Idle
//
// All methods take the same lock, so each call is atomic with respect to the
// others. Exits are checked take-profit first: if one price satisfies both the
// take-profit and the stop-loss, the trade closes as TakeProfitHit and no loss
// is recorded.
type Manager struct {
	mu sync.Mutex

	k      float64
	state  risk.State
	active *Trade

	nextID func() string
	log    *slog.Logger
}

// New returns an idle manager. A non-positive TrailFactor uses
// DefaultTrailFactor.
func New(cfg Config, opts ...Option) *Manager {
	k := cfg.TrailFactor
	if k <= 0 {
		k = DefaultTrailFactor
	}
	m := &Manager{
		k:      k,
		state:  risk.State{DailyLossLimit: cfg.DailyLossLimit},
		nextID: id.New,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) TrailFactor() float64 { return m.k }

// Active returns a copy of the open trade.
func (m *Manager) Active() (Trade, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return Trade{}, false
	}
	return *m.active, true
}

func (m *Manager) RiskState() risk.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ResetDay starts a new trading day: the accumulated loss goes back to zero.
// An open trade is left alone.
func (m *Manager) ResetDay() { m.StartDay(0) }

// StartDay starts a trading day with loss already accumulated, as restored
// from a saved snapshot. Negative values are treated as zero.
func (m *Manager) StartDay(loss float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.DailyLossAccumulated = math.Max(loss, 0)
}

// Open starts a trade at entryPrice with
//
//	stopLoss   = entryPrice - k*atr
//	takeProfit = entryPrice + k*atr
//
// It returns false without opening anything when the daily loss limit has
// been reached or atr is negative or NaN. A zero atr opens a trade whose
// stop and target sit at entry. Opening while a trade is already active also returns false;
// there is only ever one position.
func (m *Manager) Open(entryPrice, atr float64) (Trade, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.LimitReached() {
		m.log.Warn("daily loss limit reached, no more trades today",
			"daily_loss", m.state.DailyLossAccumulated, "limit", m.state.DailyLossLimit)
		return Trade{}, false
	}
	if m.active != nil {
		m.log.Debug("trade already active", "trade", m.active.ID)
		return Trade{}, false
	}
	if atr < 0 || math.IsNaN(atr) {
		m.log.Warn("invalid atr, not opening", "atr", atr)
		return Trade{}, false
	}

	adj := m.k * atr
	t := Trade{
		ID:         m.nextID(),
		EntryPrice: entryPrice,
		StopLoss:   entryPrice - adj,
		TakeProfit: entryPrice + adj,
	}
	m.active = &t
	m.log.Info("trade opened", "trade", t.ID, "entry", t.EntryPrice, "sl", t.StopLoss, "tp", t.TakeProfit)
	return t, true
}

// Trail moves the stop and target up once price clears entry by k*atr:
//
//	stopLoss   = max(stopLoss, latestPrice - k*atr)
//	takeProfit = latestPrice + k*atr
//
// The stop never loosens. Below that threshold the trade is unchanged. It
// returns false when no trade is open.
func (m *Manager) Trail(latestPrice, atr float64) (Trade, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return Trade{}, false
	}
	m.trail(latestPrice, atr)
	return *m.active, true
}

func (m *Manager) trail(latestPrice, atr float64) {
	t := m.active
	adj := m.k * atr
	if latestPrice <= t.EntryPrice+adj {
		return
	}
	t.StopLoss = math.Max(t.StopLoss, latestPrice-adj)
	t.TakeProfit = latestPrice + adj
	m.log.Debug("trailing", "trade", t.ID, "price", latestPrice, "sl", t.StopLoss, "tp", t.TakeProfit)
}

// CheckExit closes the trade if latestPrice reached the take-profit or the
// stop-loss, in that order.
func (m *Manager) CheckExit(latestPrice float64) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkExit(latestPrice)
}

func (m *Manager) checkExit(price float64) Outcome {
	if m.active == nil {
		return Outcome{Status: NoActiveTrade, Price: price}
	}
	t := *m.active

	switch {
	case price >= t.TakeProfit:
		m.active = nil
		m.log.Info("take profit hit", "trade", t.ID, "price", price)
		return Outcome{Status: TakeProfitHit, Trade: t, Price: price}

	case price <= t.StopLoss:
		loss := t.EntryPrice - price
		m.state.DailyLossAccumulated += math.Abs(loss)
		m.active = nil
		m.log.Info("stop loss hit", "trade", t.ID, "price", price, "loss", loss,
			"daily_loss", m.state.DailyLossAccumulated)
		return Outcome{Status: StopLossHit, Trade: t, Price: price, Loss: loss}
	}
	return Outcome{Status: TradeActive, Trade: t, Price: price}
}

// Manage trails the open trade and then checks for an exit.
func (m *Manager) Manage(latestPrice, atr float64) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return Outcome{Status: NoActiveTrade, Price: latestPrice}
	}
	m.trail(latestPrice, atr)
	return m.checkExit(latestPrice)
}
