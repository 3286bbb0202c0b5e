package reporting

import "time"

// Summary is the per-run overview rendered by RenderSummary.
type Summary struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	Symbol      string
	Timeframe   string

	// Data
	Bars    int
	StartMs int64 // first bar timestamp, Unix ms
	EndMs   int64 // last bar timestamp, Unix ms
	Columns int

	// Pivot counts in HH, LL, LH, HL order.
	Pivots []CountRow

	// Structural events per stream (bos_bull, bos_bear, mss_bull, mss_bear).
	Events []EventRow

	// Trend regime distribution over all bars, in regime order.
	Regimes []ShareRow

	// Warnings raised during the run, e.g. the ATR fallback.
	Warnings []string
}

// CountRow is one labelled count.
type CountRow struct {
	Label string
	Count int
}

// EventRow summarizes one event stream.
type EventRow struct {
	Stream         string
	Events         int
	FollowValid    int // bars with <stream>_ft_valid
	LiquidityGrabs int // bars with liq_grab_<stream> (or _exp)
	SRFlips        int // bars with sr_flip_<stream> (or _exp)
}

// ShareRow is a label with its count and share of all bars.
type ShareRow struct {
	Label string
	Count int
	Share float64 // Count / Bars, 0 when there are no bars
}
