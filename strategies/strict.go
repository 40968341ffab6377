package strategies

import "github.com/rustyeddy/ivtrader/market/indicators"

// StrictDirectional returns CALL when close is above VWAP and the short EMA is
// above the long EMA, PUT when both are below, and NO_TRADE otherwise.
type StrictDirectional struct{}

func (StrictDirectional) Name() string { return "STRICT(vwap,ema)" }
func (StrictDirectional) Mode() Mode   { return Strict }

func (StrictDirectional) Evaluate(row indicators.Snapshot) Decision {
	close, okC := row[indicators.KeyClose]
	vwap, okV := row[indicators.KeyVWAP]
	short, okS := row[indicators.KeyEMAShort]
	long, okL := row[indicators.KeyEMALong]
	if !okC || !okV || !okS || !okL {
		return Decision{Signal: NoTrade, Reason: "missing indicators"}
	}
	if indicators.IsNoVolume(vwap) {
		return Decision{Signal: NoTrade, Reason: "no volume"}
	}

	switch {
	case close > vwap && short > long:
		return Decision{Signal: Call, Reason: "close above vwap, ema short above long"}
	case close < vwap && short < long:
		return Decision{Signal: Put, Reason: "close below vwap, ema short below long"}
	}
	return Decision{Signal: NoTrade, Reason: "direction mixed"}
}
