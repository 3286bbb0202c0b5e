package normalization

import (
	"sort"

	"market-structure-lab/internal/domain"
)

// SortBars orders bars by timestamp_ms ASC. The sort is stable so equal
// timestamps keep input order and are reported by CheckOrder.
func SortBars(bars []domain.Bar) {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].TimestampMs < bars[j].TimestampMs
	})
}

// CheckOrder verifies strictly increasing timestamps.
func CheckOrder(bars []domain.Bar) error {
	for i := 1; i < len(bars); i++ {
		if bars[i].TimestampMs <= bars[i-1].TimestampMs {
			if bars[i].TimestampMs == bars[i-1].TimestampMs {
				return &BarError{Index: i, TimestampMs: bars[i].TimestampMs, Err: ErrDuplicateTimestamp}
			}
			return &BarError{Index: i, TimestampMs: bars[i].TimestampMs, Err: ErrInvalidBar, Reason: "timestamps not increasing"}
		}
	}
	return nil
}
