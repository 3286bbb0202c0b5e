// Package structure derives market-structure features from a bar series:
// pivots, pivot relations, fibonacci projections, BOS/MSS events,
// follow-through, liquidity reactions, structural volatility and trend regime.
//
// Every stage is a left fold over the bar sequence. A value written at bar i
// only reads bars [0..i]; the follow-through stage reads bar i-lookahead.
package structure

// Direction is the side of a structural event.
type Direction int

const (
	Bull Direction = iota
	Bear
)

// String returns "bull" or "bear".
func (d Direction) String() string {
	if d == Bear {
		return "bear"
	}
	return "bull"
}

// EventKind distinguishes break-of-structure from market-structure-shift.
type EventKind int

const (
	BOS EventKind = iota
	MSS
)

// String returns "bos" or "mss".
func (k EventKind) String() string {
	if k == MSS {
		return "mss"
	}
	return "bos"
}

// EventKey identifies one of the four event streams.
type EventKey struct {
	Kind      EventKind
	Direction Direction
}

// Prefix returns the column prefix, e.g. "bos_bull".
func (k EventKey) Prefix() string {
	return k.Kind.String() + "_" + k.Direction.String()
}

// String implements fmt.Stringer.
func (k EventKey) String() string {
	return k.Prefix()
}

// EventKeys lists the streams in output order.
var EventKeys = []EventKey{
	{Kind: BOS, Direction: Bull},
	{Kind: BOS, Direction: Bear},
	{Kind: MSS, Direction: Bull},
	{Kind: MSS, Direction: Bear},
}

// PivotKind classifies a confirmed pivot.
type PivotKind int

const (
	PivotNone PivotKind = iota
	HH                  // higher high
	LL                  // lower low
	LH                  // lower high
	HL                  // higher low
)

// String returns the pivot code.
func (k PivotKind) String() string {
	switch k {
	case HH:
		return "HH"
	case LL:
		return "LL"
	case LH:
		return "LH"
	case HL:
		return "HL"
	default:
		return ""
	}
}

// Code returns the numeric code used by the legacy pivot column
// (3=HH, 4=LL, 5=LH, 6=HL).
func (k PivotKind) Code() int {
	switch k {
	case HH:
		return 3
	case LL:
		return 4
	case LH:
		return 5
	case HL:
		return 6
	default:
		return 0
	}
}

// Bias returns +1 for bullish structure (HH, HL), -1 for bearish (LL, LH).
func (k PivotKind) Bias() int {
	switch k {
	case HH, HL:
		return 1
	case LL, LH:
		return -1
	default:
		return 0
	}
}

// ReactionType is the classified price reaction near a level.
type ReactionType int

const (
	ReactionNone ReactionType = iota
	Reclaim
	Displacement
	StrongCandle
	WeakReject
)

// String returns the reaction label, "" for none.
func (r ReactionType) String() string {
	switch r {
	case Reclaim:
		return "reclaim"
	case Displacement:
		return "displacement"
	case StrongCandle:
		return "strong_candle"
	case WeakReject:
		return "weak_reject"
	default:
		return ""
	}
}

// Strength returns the fixed strength rank of the reaction.
func (r ReactionType) Strength() int {
	switch r {
	case Reclaim:
		return 3
	case Displacement, StrongCandle:
		return 2
	case WeakReject:
		return 1
	default:
		return 0
	}
}

// VolClass is the structural volatility class.
type VolClass int

const (
	VolUndefined VolClass = iota // outside any event window
	VolLow
	VolNormal
	VolHigh
)

// String returns the class label, "" when undefined.
func (v VolClass) String() string {
	switch v {
	case VolLow:
		return "low"
	case VolNormal:
		return "normal"
	case VolHigh:
		return "high"
	default:
		return ""
	}
}

// Regime is the trend regime label.
type Regime int

const (
	RegimeRange Regime = iota
	RegimeTrendUp
	RegimeTrendDown
	RegimeTransition
)

// String returns the regime label.
func (r Regime) String() string {
	switch r {
	case RegimeTrendUp:
		return "trend_up"
	case RegimeTrendDown:
		return "trend_down"
	case RegimeTransition:
		return "transition"
	default:
		return "range"
	}
}
