package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-structure-lab/internal/structure"
)

func TestDefault_MatchesEngineDefaults(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, structure.DefaultConfig(), c.Engine)
	assert.Equal(t, "core", c.Features)
	assert.Equal(t, 4, c.Pipeline.Workers)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, 10*time.Second, c.Kafka.WriteTimeout)
	assert.Equal(t, -1, c.Kafka.RequiredAcks)
	require.NoError(t, c.Validate())
}

func TestParse_OverridesKeepOtherDefaults(t *testing.T) {
	data := []byte(`
features: all
engine:
  pivot_range: 5
  liquidity:
    mode: experimental
    early_window: 0
  fibo:
    ratios: [0.5, 1.618]
  trend_regime:
    disable_vol_gate: true
pipeline:
  workers: 2
`)

	c, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "all", c.Features)
	assert.Equal(t, 5, c.Engine.PivotRange)
	assert.Equal(t, structure.LiquidityExperimental, c.Engine.Liquidity.Mode)
	assert.Equal(t, 0, c.Engine.Liquidity.EarlyWindow)
	assert.Equal(t, 5, c.Engine.Liquidity.LateWindow)
	assert.Equal(t, []float64{0.5, 1.618}, c.Engine.Fibo.Ratios)
	assert.True(t, c.Engine.Trend.DisableVolGate)
	assert.Equal(t, 14, c.Engine.ATRPeriod)
	assert.Equal(t, 2, c.Pipeline.Workers)
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"pivot range", "engine:\n  pivot_range: 0\n", "PivotRange"},
		{"liquidity mode", "engine:\n  liquidity:\n    mode: fancy\n", "Mode"},
		{"struct vol thresholds", "engine:\n  structural_vol:\n    low_thr: 2\n    high_thr: 1\n", "HighThr"},
		{"workers", "pipeline:\n  workers: 0\n", "Workers"},
		{"log format", "log:\n  format: xml\n", "Format"},
		{"clickhouse dsn", "clickhouse:\n  dsn: tcp://x\n", "DSN"},
		{"empty ratios", "engine:\n  fibo:\n    ratios: []\n", "Ratios"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("engine: [unclosed"))
	assert.ErrorContains(t, err, "parse config")
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  pivot_range: 7\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, c.Engine.PivotRange)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestLoad_EmptyPath(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 15, c.Engine.PivotRange)
}

func TestApplyEnv(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	env := map[string]string{
		EnvPostgresDSN:   "postgres://u:p@db:5432/ms",
		EnvClickHouseDSN: "clickhouse://u:p@ch:9000/ms",
		EnvKafkaBrokers:  "k1:9092, k2:9092,",
	}

	c.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "postgres://u:p@db:5432/ms", c.Postgres.DSN)
	assert.Equal(t, "clickhouse://u:p@ch:9000/ms", c.ClickHouse.DSN)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "broker:9092")

	c, err := LoadWithEnv("")
	require.NoError(t, err)
	assert.Equal(t, []string{"broker:9092"}, c.Kafka.Brokers)
}

func TestValidate_ExperimentalWindow(t *testing.T) {
	_, err := Parse([]byte("engine:\n  liquidity:\n    mode: experimental\n    reaction_window: 1\n"))
	assert.ErrorContains(t, err, "reaction_window")
}
