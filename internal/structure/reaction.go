package structure

import (
	"market-structure-lab/internal/domain"
)

// DetectLevelReaction classifies the reaction of each bar to a moving level.
// A bar is eligible when the last touch of the level happened 1..window bars
// earlier; a bull level is touched by low <= level, a bear level by
// high >= level. The first matching class wins:
// reclaim, displacement, strong candle, weak reject.
func DetectLevelReaction(series *domain.BarSeries, level []*float64, dir Direction, window int, cfg ReactionConfig) []ReactionType {
	n := series.Len()
	out := make([]ReactionType, n)
	var touch Hold[int]
	for i, b := range series.Bars {
		lvl := level[i]
		if lvl != nil && touched(b, *lvl, dir) {
			touch.Set(i)
		}
		t := touch.Get()
		if t == nil || lvl == nil {
			continue
		}
		if since := i - *t; since <= 0 || since > window {
			continue
		}
		out[i] = classifyReaction(b, *lvl, dir, cfg)
	}
	return out
}

func touched(b domain.Bar, level float64, dir Direction) bool {
	if dir == Bull {
		return b.Low <= level
	}
	return b.High >= level
}

func classifyReaction(b domain.Bar, level float64, dir Direction, cfg ReactionConfig) ReactionType {
	rng := b.High - b.Low
	body := abs(b.Close - b.Open)
	withDir := b.Close > b.Open
	if dir == Bear {
		withDir = b.Close < b.Open
	}
	hasATR := b.ATR != nil
	atr := 0.0
	if hasATR {
		atr = *b.ATR
	}

	switch {
	case dir == Bull && b.Close > level, dir == Bear && b.Close < level:
		return Reclaim
	case hasATR && dir == Bull && level-b.Close > cfg.ATRDispMult*atr,
		hasATR && dir == Bear && b.Close-level > cfg.ATRDispMult*atr:
		return Displacement
	case hasATR && rng > 0 && rng > cfg.ATRBodyMult*atr && body/rng > cfg.BodyRatioMin && withDir:
		return StrongCandle
	case withDir:
		return WeakReject
	default:
		return ReactionNone
	}
}
