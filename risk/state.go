package risk

import (
	"fmt"
	"strconv"
)

// State is the per-session daily loss accounting.
type State struct {
	DailyLossAccumulated float64 `json:"daily_loss_accumulated" yaml:"daily_loss_accumulated"`
	DailyLossLimit       float64 `json:"daily_loss_limit" yaml:"daily_loss_limit"`
}

// LimitReached reports whether no new trade may be opened.
func (s State) LimitReached() bool {
	return s.DailyLossAccumulated >= s.DailyLossLimit
}

// Remaining is the loss budget left for the day, never negative.
func (s State) Remaining() float64 {
	if r := s.DailyLossLimit - s.DailyLossAccumulated; r > 0 {
		return r
	}
	return 0
}

// KeyDailyLoss is the single persisted field of a State snapshot. The limit
// comes from configuration and is not persisted.
const KeyDailyLoss = "daily_loss_accumulated"

// Encode returns the key-value form of the snapshot.
func (s State) Encode() map[string]string {
	return map[string]string{
		KeyDailyLoss: strconv.FormatFloat(s.DailyLossAccumulated, 'g', -1, 64),
	}
}

// Decode restores the accumulated loss from kv. A missing key is zero.
func Decode(kv map[string]string, limit float64) (State, error) {
	st := State{DailyLossLimit: limit}
	v, ok := kv[KeyDailyLoss]
	if !ok || v == "" {
		return st, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return State{}, fmt.Errorf("decode %s %q: %w", KeyDailyLoss, v, err)
	}
	if f < 0 {
		return State{}, fmt.Errorf("decode %s: negative loss %g", KeyDailyLoss, f)
	}
	st.DailyLossAccumulated = f
	return st, nil
}
