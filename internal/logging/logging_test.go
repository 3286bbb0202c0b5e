package logging

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidLevel(t *testing.T) {
	_, _, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_Level(t *testing.T) {
	logger, closer, err := New(Config{Level: "warn", Output: "stdout"})
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")

	logger, closer, err := New(Config{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)
	logger.Info().Str("symbol", "ETHUSDT").Msg("hello")
	require.NoError(t, closer.Close())

	assert.FileExists(t, path)
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "json", "")

	logger.Warn().Str("indicator", "atr").Int("period", 14).Msg("indicator missing")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "atr", entry["indicator"])
	assert.Equal(t, float64(14), entry["period"])
	assert.Contains(t, entry, "time")
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "console", "")

	logger.Info().Msg("stage completed")

	assert.Contains(t, buf.String(), "stage completed")
	assert.Contains(t, buf.String(), "INF")
}
