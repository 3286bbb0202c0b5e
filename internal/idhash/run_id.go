package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(symbol|timeframe|features|params|series_digest)
// where features is the comma-joined list in execution order.
// Returns hex-encoded hash (64 characters).
func ComputeRunID(symbol, timeframe string, features []string, paramsJSON, seriesDigest string) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s",
		symbol,
		timeframe,
		strings.Join(features, ","),
		paramsJSON,
		seriesDigest,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
