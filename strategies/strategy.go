// Package strategies turns the latest indicator snapshot into a trade
// decision. Evaluation is pure: nothing here holds state between bars.
package strategies

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rustyeddy/ivtrader/market/indicators"
)

var ErrUnknownMode = errors.New("unknown strategy mode")

// Mode selects which entry policy an Evaluator runs.
type Mode int

const (
	// WeightedVote counts four conditions and gates on IV rank.
	WeightedVote Mode = iota
	// Strict requires price and EMA direction to agree.
	Strict
)

func (m Mode) String() string {
	switch m {
	case Strict:
		return "strict"
	case WeightedVote:
		return "vote"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "strict" or "vote" (also "weighted", "weighted-vote").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return Strict, nil
	case "vote", "weighted", "weighted-vote", "weighted_vote":
		return WeightedVote, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

type Signal int

const (
	NoTrade Signal = iota
	Call
	Put
	Enter
)

func (s Signal) String() string {
	switch s {
	case Call:
		return "CALL"
	case Put:
		return "PUT"
	case Enter:
		return "ENTER"
	default:
		return "NO_TRADE"
	}
}

// Actionable reports whether the signal asks for a position.
func (s Signal) Actionable() bool { return s != NoTrade }

// Thresholds configure the weighted-vote policy.
type Thresholds struct {
	RVOLMin       float64
	ADXMin        float64
	IVRankMin     float64
	RequiredVotes int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		RVOLMin:       2.0,
		ADXMin:        20,
		IVRankMin:     50,
		RequiredVotes: 2,
	}
}

// Decision is the outcome of evaluating one snapshot.
type Decision struct {
	Signal Signal
	Reason string

	// Votes is the number of weighted-vote conditions that held; zero in
	// strict mode.
	Votes  int
	IVGate bool
}

// Evaluator produces a Decision from the latest indicator row.
type Evaluator interface {
	Name() string
	Mode() Mode
	Evaluate(row indicators.Snapshot) Decision
}

// New returns the evaluator for mode.
func New(mode Mode, th Thresholds) (Evaluator, error) {
	switch mode {
	case Strict:
		return StrictDirectional{}, nil
	case WeightedVote:
		return NewVote(th), nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownMode, mode)
}

// EvaluateLatest reads the last row of set and evaluates it. An empty set is
// NoTrade.
func EvaluateLatest(e Evaluator, set indicators.Set) Decision {
	row, ok := set.Latest()
	if !ok {
		return Decision{Signal: NoTrade, Reason: "no bars"}
	}
	return e.Evaluate(row)
}
