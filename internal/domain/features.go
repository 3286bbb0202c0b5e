package domain

import (
	"fmt"
	"strconv"
)

// ColumnKind is the value type of a feature column.
type ColumnKind int

const (
	KindFloat ColumnKind = iota // nullable float64
	KindInt                     // nullable int (bar indices, counters)
	KindBool                    // boolean flag, NULL only where Mask says so
	KindLabel                   // categorical label, "" is NULL
)

// String returns the kind name.
func (k ColumnKind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindLabel:
		return "label"
	default:
		return "unknown"
	}
}

// Column is a named feature column aligned one-to-one with the bar series.
// Exactly one of the value slices is populated, selected by Kind.
type Column struct {
	Name   string
	Kind   ColumnKind
	Floats []*float64 // KindFloat, nil entry = undefined
	Ints   []*int     // KindInt, nil entry = undefined
	Bools  []bool     // KindBool
	Mask   []bool     // KindBool, optional: false entry = undefined
	Labels []string   // KindLabel, "" = undefined
}

// FloatColumn builds a nullable float column.
func FloatColumn(name string, values []*float64) Column {
	return Column{Name: name, Kind: KindFloat, Floats: values}
}

// IntColumn builds a nullable int column.
func IntColumn(name string, values []*int) Column {
	return Column{Name: name, Kind: KindInt, Ints: values}
}

// BoolColumn builds a boolean column.
func BoolColumn(name string, values []bool) Column {
	return Column{Name: name, Kind: KindBool, Bools: values}
}

// NullableBoolColumn builds a boolean column whose row i is undefined
// wherever defined[i] is false.
func NullableBoolColumn(name string, values, defined []bool) Column {
	return Column{Name: name, Kind: KindBool, Bools: values, Mask: defined}
}

// LabelColumn builds a categorical column.
func LabelColumn(name string, values []string) Column {
	return Column{Name: name, Kind: KindLabel, Labels: values}
}

// Len returns the number of rows in the column.
func (c Column) Len() int {
	switch c.Kind {
	case KindFloat:
		return len(c.Floats)
	case KindInt:
		return len(c.Ints)
	case KindBool:
		return len(c.Bools)
	case KindLabel:
		return len(c.Labels)
	default:
		return 0
	}
}

// IsNull reports whether row i is undefined. Bool columns are NULL only
// when they carry a mask.
func (c Column) IsNull(i int) bool {
	switch c.Kind {
	case KindBool:
		return c.Mask != nil && !c.Mask[i]
	case KindFloat:
		return c.Floats[i] == nil
	case KindInt:
		return c.Ints[i] == nil
	case KindLabel:
		return c.Labels[i] == ""
	default:
		return false
	}
}

// Float returns row i as a float64 for numeric storage.
// Bools map to 0/1; labels and NULLs return ok=false.
func (c Column) Float(i int) (float64, bool) {
	switch c.Kind {
	case KindFloat:
		if c.Floats[i] == nil {
			return 0, false
		}
		return *c.Floats[i], true
	case KindInt:
		if c.Ints[i] == nil {
			return 0, false
		}
		return float64(*c.Ints[i]), true
	case KindBool:
		if c.IsNull(i) {
			return 0, false
		}
		if c.Bools[i] {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Format renders row i as text. NULL renders as the empty string.
// Floats use the shortest exact representation so equal values always
// produce equal bytes.
func (c Column) Format(i int) string {
	switch c.Kind {
	case KindFloat:
		if c.Floats[i] == nil {
			return ""
		}
		return strconv.FormatFloat(*c.Floats[i], 'g', -1, 64)
	case KindInt:
		if c.Ints[i] == nil {
			return ""
		}
		return strconv.Itoa(*c.Ints[i])
	case KindBool:
		if c.IsNull(i) {
			return ""
		}
		return strconv.FormatBool(c.Bools[i])
	case KindLabel:
		return c.Labels[i]
	default:
		return ""
	}
}

// FeatureTable is the bar series augmented with derived feature columns.
// Corresponds to the feature_values table in ClickHouse (one row per cell).
type FeatureTable struct {
	Symbol    string
	Timeframe string
	Bars      []Bar    // copy of the input bars, ATR filled if it was computed
	Columns   []Column // in merge order
	index     map[string]int
}

// NewFeatureTable creates a table over a copy of the given series.
func NewFeatureTable(series *BarSeries) *FeatureTable {
	c := series.Clone()
	if c == nil {
		c = &BarSeries{}
	}
	return &FeatureTable{
		Symbol:    c.Symbol,
		Timeframe: c.Timeframe,
		Bars:      c.Bars,
		index:     make(map[string]int),
	}
}

// Len returns the number of rows.
func (t *FeatureTable) Len() int {
	return len(t.Bars)
}

// Add appends or replaces a column. The column must be aligned with the bars.
func (t *FeatureTable) Add(col Column) error {
	if col.Len() != len(t.Bars) {
		return fmt.Errorf("column %s has %d rows, table has %d", col.Name, col.Len(), len(t.Bars))
	}
	if col.Kind == KindBool && col.Mask != nil && len(col.Mask) != len(col.Bools) {
		return fmt.Errorf("column %s has %d mask entries for %d rows", col.Name, len(col.Mask), len(col.Bools))
	}
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if pos, ok := t.index[col.Name]; ok {
		t.Columns[pos] = col
		return nil
	}
	t.index[col.Name] = len(t.Columns)
	t.Columns = append(t.Columns, col)
	return nil
}

// Column returns the column with the given name.
func (t *FeatureTable) Column(name string) (Column, bool) {
	pos, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.Columns[pos], true
}

// Names returns column names in merge order.
func (t *FeatureTable) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}
