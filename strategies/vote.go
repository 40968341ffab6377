package strategies

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/ivtrader/market/indicators"
)

// Vote is the weighted-vote entry policy. Four conditions each add a vote:
//
//   - close above VWAP
//   - short EMA above long EMA
//   - RVOL >= RVOLMin
//   - ADX > ADXMin
//
// It enters when votes >= RequiredVotes and IV rank > IVRankMin. The IV rank
// gate is mandatory and not counted as a vote; failing it always wins over the
// vote count.
type Vote struct {
	th   Thresholds
	name string
}

// NewVote applies defaults for a non-positive RequiredVotes.
func NewVote(th Thresholds) *Vote {
	if th.RequiredVotes <= 0 {
		th.RequiredVotes = DefaultThresholds().RequiredVotes
	}
	return &Vote{
		th:   th,
		name: fmt.Sprintf("VOTE(%d/4,ivr>%.0f)", th.RequiredVotes, th.IVRankMin),
	}
}

func (v *Vote) Name() string           { return v.name }
func (v *Vote) Mode() Mode             { return WeightedVote }
func (v *Vote) Thresholds() Thresholds { return v.th }

// Evaluate reads missing RVOL as 1, ADX as 0 and IV rank as 0.
func (v *Vote) Evaluate(row indicators.Snapshot) Decision {
	close := row.Get(indicators.KeyClose, 0)
	vwap := row.Get(indicators.KeyVWAP, indicators.NoVolumeValue())

	var held []string
	if close > vwap {
		held = append(held, "vwap")
	}
	if row.Get(indicators.KeyEMAShort, 0) > row.Get(indicators.KeyEMALong, 0) {
		held = append(held, "ema")
	}
	if row.Get(indicators.KeyRVOL, 1) >= v.th.RVOLMin {
		held = append(held, "rvol")
	}
	if row.Get(indicators.KeyADX, 0) > v.th.ADXMin {
		held = append(held, "adx")
	}

	d := Decision{
		Votes:  len(held),
		IVGate: row.Get(indicators.KeyIVRank, 0) > v.th.IVRankMin,
	}
	switch {
	case !d.IVGate:
		d.Signal = NoTrade
		d.Reason = fmt.Sprintf("iv rank gate failed (%d votes)", d.Votes)
	case d.Votes >= v.th.RequiredVotes:
		d.Signal = Enter
		d.Reason = fmt.Sprintf("%d votes: %s", d.Votes, strings.Join(held, ","))
	default:
		d.Signal = NoTrade
		d.Reason = fmt.Sprintf("%d votes < %d", d.Votes, v.th.RequiredVotes)
	}
	return d
}
