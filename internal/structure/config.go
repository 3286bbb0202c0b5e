package structure

// LiquidityMode selects the liquidity reaction semantics.
type LiquidityMode string

const (
	LiquidityLegacy       LiquidityMode = "legacy"       // state based, uses follow-through
	LiquidityExperimental LiquidityMode = "experimental" // windowed, no follow-through
)

// Config holds every stage parameter. Zero values are not meaningful;
// start from DefaultConfig.
type Config struct {
	PivotRange    int                 `yaml:"pivot_range" default:"15" validate:"gte=1"`
	ATRPeriod     int                 `yaml:"atr_period" default:"14" validate:"gte=1"`
	Relations     RelationsConfig     `yaml:"relations"`
	Fibo          FiboConfig          `yaml:"fibo"`
	FollowThrough FollowThroughConfig `yaml:"follow_through"`
	Liquidity     LiquidityConfig     `yaml:"liquidity"`
	StructVol     StructVolConfig     `yaml:"structural_vol"`
	Trend         TrendConfig         `yaml:"trend_regime"`
	PAContext     PAContextConfig     `yaml:"pa_context"`
}

// RelationsConfig configures equal-high/equal-low detection.
type RelationsConfig struct {
	EqATRMult float64 `yaml:"eq_atr_mult" default:"0.2" validate:"gte=0"`
}

// FiboConfig configures fibonacci projections.
type FiboConfig struct {
	Ratios []float64 `yaml:"ratios" default:"[0.5,0.618,0.66,1.272,1.618]" validate:"min=1,dive,gt=0"`
}

// FollowThroughConfig configures post-event displacement scoring.
type FollowThroughConfig struct {
	ATRMult   float64 `yaml:"atr_mult" default:"1.0" validate:"gte=0"`
	Lookahead int     `yaml:"lookahead" default:"5" validate:"gte=1"`
}

// ReactionConfig configures the level reaction classifier.
type ReactionConfig struct {
	ATRDispMult  float64 `yaml:"atr_disp_mult" default:"1.0" validate:"gte=0"`
	ATRBodyMult  float64 `yaml:"atr_body_mult" default:"1.5" validate:"gte=0"`
	BodyRatioMin float64 `yaml:"body_ratio_min" default:"0.6" validate:"gte=0,lte=1"`
}

// LiquidityConfig configures liquidity grab / SR flip detection.
type LiquidityConfig struct {
	Mode            LiquidityMode  `yaml:"mode" default:"legacy" validate:"oneof=legacy experimental"`
	ReactionWindow  int            `yaml:"reaction_window" default:"5" validate:"gte=1"`
	EarlyWindow     int            `yaml:"early_window" default:"5" validate:"gte=0"`
	LateWindow      int            `yaml:"late_window" default:"5" validate:"gte=0"`
	ATRDistMultGrab float64        `yaml:"atr_dist_mult_grab" default:"1.0" validate:"gte=0"`
	ATRDistMultFlip float64        `yaml:"atr_dist_mult_flip" default:"1.0" validate:"gte=0"`
	Reaction        ReactionConfig `yaml:"reaction"`
}

// StructVolConfig configures structural volatility classification.
type StructVolConfig struct {
	Window  int     `yaml:"window" default:"10" validate:"gte=0"`
	LowThr  float64 `yaml:"low_thr" default:"0.6" validate:"gte=0"`
	HighThr float64 `yaml:"high_thr" default:"1.3" validate:"gtefield=LowThr"`
}

// TrendConfig configures the trend regime classifier.
type TrendConfig struct {
	// DisableVolGate treats every bar as high volatility.
	DisableVolGate bool `yaml:"disable_vol_gate"`
}

// PAContextConfig configures the unified price-action context stream.
type PAContextConfig struct {
	BOSGuardBars   int     `yaml:"bos_guard_bars" default:"2" validate:"gte=0"`
	CounterMaxBars int     `yaml:"counter_max_bars" default:"10" validate:"gte=0"`
	CounterATRMult float64 `yaml:"counter_atr_mult" default:"2" validate:"gte=0"`
	ContMinBars    int     `yaml:"cont_min_bars" default:"3" validate:"gte=0"`
	ContMinATR     float64 `yaml:"cont_min_atr" default:"0.8" validate:"gte=0"`
	ContMaxATR     float64 `yaml:"cont_max_atr" default:"2.5" validate:"gtefield=ContMinATR"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		PivotRange: 15,
		ATRPeriod:  14,
		Relations:  RelationsConfig{EqATRMult: 0.2},
		Fibo:       FiboConfig{Ratios: []float64{0.5, 0.618, 0.66, 1.272, 1.618}},
		FollowThrough: FollowThroughConfig{
			ATRMult:   1.0,
			Lookahead: 5,
		},
		Liquidity: LiquidityConfig{
			Mode:            LiquidityLegacy,
			ReactionWindow:  5,
			EarlyWindow:     5,
			LateWindow:      5,
			ATRDistMultGrab: 1.0,
			ATRDistMultFlip: 1.0,
			Reaction: ReactionConfig{
				ATRDispMult:  1.0,
				ATRBodyMult:  1.5,
				BodyRatioMin: 0.6,
			},
		},
		StructVol: StructVolConfig{
			Window:  10,
			LowThr:  0.6,
			HighThr: 1.3,
		},
		PAContext: PAContextConfig{
			BOSGuardBars:   2,
			CounterMaxBars: 10,
			CounterATRMult: 2,
			ContMinBars:    3,
			ContMinATR:     0.8,
			ContMaxATR:     2.5,
		},
	}
}
