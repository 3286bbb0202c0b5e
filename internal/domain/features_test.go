package domain

import "testing"

func TestNullableBoolColumn(t *testing.T) {
	col := NullableBoolColumn("bos_bull_ft_valid", []bool{false, true, false}, []bool{false, true, true})

	if !col.IsNull(0) {
		t.Errorf("Row 0: expected NULL")
	}
	if got := col.Format(0); got != "" {
		t.Errorf("Row 0: expected empty text, got %q", got)
	}
	if _, ok := col.Float(0); ok {
		t.Errorf("Row 0: expected no numeric value")
	}

	if col.IsNull(1) || col.Format(1) != "true" {
		t.Errorf("Row 1: expected true, got %q", col.Format(1))
	}
	if col.IsNull(2) || col.Format(2) != "false" {
		t.Errorf("Row 2: expected false, got %q", col.Format(2))
	}
	if v, ok := col.Float(2); !ok || v != 0 {
		t.Errorf("Row 2: expected 0, got %v (ok=%v)", v, ok)
	}
}

func TestBoolColumn_NeverNull(t *testing.T) {
	col := BoolColumn("EQH", []bool{false, true})
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			t.Errorf("Row %d: unmasked bool column must not be NULL", i)
		}
	}
}

func TestFeatureTable_AddRejectsMaskMismatch(t *testing.T) {
	table := NewFeatureTable(&BarSeries{Bars: make([]Bar, 2)})
	col := NullableBoolColumn("fibo_premium", []bool{true, false}, []bool{true})
	if err := table.Add(col); err == nil {
		t.Errorf("Expected error for a mask shorter than the column")
	}
}
