package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"strconv"

	"market-structure-lab/internal/domain"
)

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// SeriesDigest hashes the input bars, ATR included. NULL ATR hashes as an
// empty field.
func SeriesDigest(series *domain.BarSeries) string {
	h := sha256.New()
	if series == nil {
		return hex.EncodeToString(h.Sum(nil))
	}
	for _, b := range series.Bars {
		atr := ""
		if b.ATR != nil {
			atr = formatFloat(*b.ATR)
		}
		writeFields(h,
			strconv.FormatInt(b.TimestampMs, 10),
			formatFloat(b.Open), formatFloat(b.High), formatFloat(b.Low), formatFloat(b.Close),
			formatFloat(b.Volume), atr,
		)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// TableDigest hashes a feature table: its bars, then column by column the
// name, kind and every cell in its canonical text form. Two tables have equal digests iff they
// have the same columns in the same order with byte-identical cells.
func TableDigest(t *domain.FeatureTable) string {
	h := sha256.New()
	if t == nil {
		return hex.EncodeToString(h.Sum(nil))
	}
	io.WriteString(h, SeriesDigest(&domain.BarSeries{Bars: t.Bars}))
	io.WriteString(h, recordSep)
	for _, col := range t.Columns {
		io.WriteString(h, col.Name)
		io.WriteString(h, fieldSep)
		io.WriteString(h, col.Kind.String())
		io.WriteString(h, recordSep)
		for i := 0; i < col.Len(); i++ {
			if col.IsNull(i) {
				io.WriteString(h, "\x00")
			} else {
				io.WriteString(h, col.Format(i))
			}
			io.WriteString(h, fieldSep)
		}
		io.WriteString(h, recordSep)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeFields(h hash.Hash, fields ...string) {
	for _, f := range fields {
		io.WriteString(h, f)
		io.WriteString(h, fieldSep)
	}
	io.WriteString(h, recordSep)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
