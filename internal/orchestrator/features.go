package orchestrator

import (
	"fmt"
	"strings"
)

// Feature names a group of output columns produced by one stage.
type Feature string

const (
	FeaturePivots        Feature = "pivots"
	FeatureRelations     Feature = "relations"
	FeatureFibo          Feature = "fibo"
	FeaturePriceAction   Feature = "price_action"
	FeatureFollowThrough Feature = "follow_through"
	FeatureLiquidity     Feature = "liquidity"
	FeatureStructuralVol Feature = "structural_vol"
	FeatureTrendRegime   Feature = "trend_regime"
	FeaturePAContext     Feature = "pa_context"
)

// Dependencies is the static dependency table of the built-in stages.
var Dependencies = map[Feature][]Feature{
	FeaturePivots:        nil,
	FeatureRelations:     {FeaturePivots},
	FeatureFibo:          {FeaturePivots},
	FeaturePriceAction:   {FeaturePivots},
	FeatureFollowThrough: {FeaturePriceAction},
	FeatureLiquidity:     {FeaturePriceAction, FeatureFollowThrough},
	FeatureStructuralVol: {FeaturePriceAction},
	FeatureTrendRegime:   {FeaturePivots, FeaturePriceAction, FeatureStructuralVol, FeatureFollowThrough},
	FeaturePAContext:     {FeaturePriceAction},
}

// CanonicalOrder is the fixed execution order of the built-in stages.
var CanonicalOrder = []Feature{
	FeaturePivots,
	FeatureRelations,
	FeatureFibo,
	FeaturePriceAction,
	FeatureFollowThrough,
	FeatureLiquidity,
	FeatureStructuralVol,
	FeatureTrendRegime,
	FeaturePAContext,
}

// CoreFeatures is every built-in feature except the experimental context.
var CoreFeatures = CanonicalOrder[:len(CanonicalOrder)-1]

// ParseFeatures splits a comma separated list. "all" expands to every
// built-in feature, "core" to every feature except pa_context.
func ParseFeatures(s string) ([]Feature, error) {
	var out []Feature
	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(part)
		switch name {
		case "":
			continue
		case "all":
			out = append(out, CanonicalOrder...)
		case "core":
			out = append(out, CoreFeatures...)
		default:
			out = append(out, Feature(name))
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("parse features %q: empty list", s)
	}
	return out, nil
}

// Strings converts features to plain strings.
func Strings(features []Feature) []string {
	out := make([]string, len(features))
	for i, f := range features {
		out[i] = string(f)
	}
	return out
}
