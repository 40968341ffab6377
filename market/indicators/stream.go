package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/ivtrader/market"
)

// window keeps the last period values of a series, oldest first.
type window struct {
	period int
	vals   []float64
}

func newWindow(period int) *window {
	return &window{period: period, vals: make([]float64, 0, period)}
}

func (w *window) push(x float64) {
	if len(w.vals) == w.period {
		copy(w.vals, w.vals[1:])
		w.vals = w.vals[:w.period-1]
	}
	w.vals = append(w.vals, x)
}

func (w *window) mean() float64 { return mean(w.vals) }

func (w *window) min() float64 {
	m := w.vals[0]
	for _, v := range w.vals[1:] {
		m = math.Min(m, v)
	}
	return m
}

func (w *window) max() float64 {
	m := w.vals[0]
	for _, v := range w.vals[1:] {
		m = math.Max(m, v)
	}
	return m
}

// Stream computes the same rows as Compute one bar at a time. It carries the
// running VWAP sums and EMA values and keeps only the bounded windows the
// rolling indicators need, so each Update costs O(period) however long the
// session runs. Row i from Update equals Compute(bars[:i+1]).Latest().
type Stream struct {
	p Params
	n int

	prev market.Bar

	pv, vol   float64
	emaShort  *EMA
	emaLong   *EMA
	lastShort float64

	atrTR   *window
	adxTR   *window
	plusDM  *window
	minusDM *window
	dx      *window
	volume  *window

	ivs   *window
	allIV bool
}

// NewStream checks p the way Compute does.
func NewStream(p Params) (*Stream, error) {
	for _, c := range []struct {
		name   string
		period int
	}{
		{"EMA", p.EMAShort},
		{"EMA", p.EMALong},
		{"ATR", p.ATRPeriod},
		{"ADX", p.ADXPeriod},
		{"RVOL", p.RVOLLookback},
		{"IV rank", p.IVRankLookback},
	} {
		if err := checkPeriod(c.name, c.period); err != nil {
			return nil, err
		}
	}
	if p.EMAShort >= p.EMALong {
		return nil, fmt.Errorf("%w: ema short period %d must be below long period %d",
			market.ErrInvalidInput, p.EMAShort, p.EMALong)
	}
	if p.VWAPSource != PriceTypical && p.VWAPSource != PriceClose {
		return nil, fmt.Errorf("%w: VWAP price mode %q", market.ErrInvalidInput, p.VWAPSource)
	}

	return &Stream{
		p:        p,
		emaShort: NewEMA(p.EMAShort),
		emaLong:  NewEMA(p.EMALong),
		atrTR:    newWindow(p.ATRPeriod),
		adxTR:    newWindow(p.ADXPeriod),
		plusDM:   newWindow(p.ADXPeriod),
		minusDM:  newWindow(p.ADXPeriod),
		dx:       newWindow(p.ADXPeriod),
		volume:   newWindow(p.RVOLLookback),
		ivs:      newWindow(p.IVRankLookback),
		allIV:    true,
	}, nil
}

// Len is the number of bars seen.
func (s *Stream) Len() int { return s.n }

// Check reports whether b may be appended: it must be a valid bar and, when
// both times are set, not earlier than the previous bar.
func (s *Stream) Check(b market.Bar) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("bar %d: %w", s.n, err)
	}
	if s.n > 0 && !b.Time.IsZero() && !s.prev.Time.IsZero() && b.Time.Before(s.prev.Time) {
		return fmt.Errorf("bar %d: %w: time %s before previous %s", s.n, market.ErrInvalidInput,
			b.Time.Format("2006-01-02T15:04:05"), s.prev.Time.Format("2006-01-02T15:04:05"))
	}
	return nil
}

// Update appends b and returns its row. A bar that fails Check leaves the
// stream unchanged.
func (s *Stream) Update(b market.Bar) (Snapshot, error) {
	if err := s.Check(b); err != nil {
		return nil, err
	}

	row := Snapshot{KeyClose: b.Close}

	p := b.Close
	if s.p.VWAPSource == PriceTypical {
		p = b.Typical()
	}
	s.pv += p * b.Volume
	s.vol += b.Volume
	if s.vol == 0 {
		row[KeyVWAP] = NoVolumeValue()
	} else {
		row[KeyVWAP] = s.pv / s.vol
	}

	s.emaShort.Update(b)
	s.emaLong.Update(b)
	short := s.emaShort.Float64()
	row[KeyEMAShort] = short
	row[KeyEMALong] = s.emaLong.Float64()
	if s.n == 0 {
		row[KeySlope] = 0
	} else {
		row[KeySlope] = short - s.lastShort
	}
	s.lastShort = short

	tr := b.High - b.Low
	var pdm, mdm float64
	if s.n > 0 {
		tr = max3(tr, math.Abs(b.High-s.prev.Close), math.Abs(b.Low-s.prev.Close))
		up := b.High - s.prev.High
		down := s.prev.Low - b.Low
		if up > down && up > 0 {
			pdm = up
		}
		if down > up && down > 0 {
			mdm = down
		}
	}
	s.atrTR.push(tr)
	row[KeyATR] = s.atrTR.mean()

	s.adxTR.push(tr)
	s.plusDM.push(pdm)
	s.minusDM.push(mdm)
	smTR := s.adxTR.mean()
	pdi := 100 * s.plusDM.mean() / (smTR + Epsilon)
	mdi := 100 * s.minusDM.mean() / (smTR + Epsilon)
	s.dx.push(100 * math.Abs(pdi-mdi) / (pdi + mdi + Epsilon))
	row[KeyPlusDI] = pdi
	row[KeyMinusDI] = mdi
	row[KeyADX] = s.dx.mean()

	s.volume.push(b.Volume)
	row[KeyRVOL] = b.Volume / (s.volume.mean() + Epsilon)

	// IV rank exists only while every bar so far has carried IV.
	s.allIV = s.allIV && b.HasIV
	if s.allIV {
		s.ivs.push(b.IV)
		lo, hi := s.ivs.min(), s.ivs.max()
		row[KeyIVRank] = 100 * (b.IV - lo) / (hi - lo + Epsilon)
	}

	s.prev = b
	s.n++
	return row, nil
}
