package market

import "fmt"

// Series is an ordered, append-only sequence of bars. Indicators are computed
// over this ordering and never reorder it.
type Series []Bar

// Validate checks every bar and that timestamps, when set, never go backwards.
// The returned error names the offending index.
func (s Series) Validate() error {
	for i, b := range s {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("bar %d: %w", i, err)
		}
		if i > 0 && !b.Time.IsZero() && !s[i-1].Time.IsZero() && b.Time.Before(s[i-1].Time) {
			return fmt.Errorf("bar %d: %w: time %s before previous %s",
				i, ErrInvalidInput, b.Time.Format("2006-01-02T15:04:05"), s[i-1].Time.Format("2006-01-02T15:04:05"))
		}
	}
	return nil
}

// Last returns the most recent bar. ok is false for an empty series.
func (s Series) Last() (b Bar, ok bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}

func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

func (s Series) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Volume
	}
	return out
}

// IVs returns the implied volatility column. ok is false unless every bar
// carries implied volatility.
func (s Series) IVs() (out []float64, ok bool) {
	if len(s) == 0 {
		return nil, false
	}
	out = make([]float64, len(s))
	for i, b := range s {
		if !b.HasIV {
			return nil, false
		}
		out[i] = b.IV
	}
	return out, true
}
