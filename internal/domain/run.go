package domain

// RunRecord describes one engine invocation over one bar series.
// Corresponds to the engine_runs table in PostgreSQL.
type RunRecord struct {
	RunID       string   // deterministic hash of inputs, see idhash.ComputeRunID
	Symbol      string   // instrument symbol
	Timeframe   string   // bar timeframe label
	Features    []string // requested features, canonical order
	PivotRange  int      // pivot confirmation window
	ParamsJSON  string   // full stage configuration, JSON encoded
	BarCount    int      // number of input bars
	FirstBarMs  int64    // timestamp of the first bar (ms)
	LastBarMs   int64    // timestamp of the last bar (ms)
	TableDigest string   // SHA256 of the rendered feature table
	ATRComputed bool     // true if the ATR fallback ran
	CreatedAt   int64    // Unix timestamp in milliseconds
}

// FeatureValue is a single cell of a feature table in narrow form.
// Corresponds to the feature_values table in ClickHouse.
type FeatureValue struct {
	RunID       string   // owning run
	Symbol      string   // instrument symbol
	BarIndex    int      // position in the bar series
	TimestampMs int64    // bar open time (ms)
	Feature     string   // column name
	Value       *float64 // numeric value, NULL for labels and undefined cells
	Label       string   // categorical value, "" when not a label column
}
