package reporting

import (
	"strconv"
	"strings"

	"market-structure-lab/internal/domain"
)

// RenderFeatureCSV renders the bars and every feature column as CSV.
// NULL cells are empty; floats use the shortest exact representation so
// two identical tables always render to identical bytes.
func RenderFeatureCSV(t *domain.FeatureTable) string {
	var sb strings.Builder

	// Header
	sb.WriteString("timestamp_ms,open,high,low,close,volume,atr")
	for _, c := range t.Columns {
		sb.WriteByte(',')
		sb.WriteString(c.Name)
	}
	sb.WriteByte('\n')

	// Rows
	for i, b := range t.Bars {
		sb.WriteString(strconv.FormatInt(b.TimestampMs, 10))
		for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
			sb.WriteByte(',')
			sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		sb.WriteByte(',')
		if b.ATR != nil {
			sb.WriteString(strconv.FormatFloat(*b.ATR, 'g', -1, 64))
		}
		for _, c := range t.Columns {
			sb.WriteByte(',')
			sb.WriteString(c.Format(i))
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}
