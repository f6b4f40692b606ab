package features

import (
	"math"
	"testing"
	"time"

	"github.com/stockops/skucast/models"
)

func day(n int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func salesForSKU(sku string, qtys []float64) []models.SalesRecord {
	records := make([]models.SalesRecord, len(qtys))
	for i, q := range qtys {
		records[i] = models.SalesRecord{SKU: sku, Day: day(i), Qty: q, Price: 100}
	}
	return records
}

func TestNewSKUFrameSortsRows(t *testing.T) {
	records := []models.SalesRecord{
		{SKU: "b", Day: day(1), Qty: 4},
		{SKU: "a", Day: day(1), Qty: 2},
		{SKU: "a", Day: day(0), Qty: 1},
		{SKU: "b", Day: day(0), Qty: 3},
	}

	f := NewSKUFrame(records)
	qty, err := f.Column("qty")
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 2, 3, 4}
	for i, w := range want {
		if qty[i] != w {
			t.Errorf("row %d qty = %v, want %v", i, qty[i], w)
		}
	}
}

func TestAddFeaturesRollingAvg(t *testing.T) {
	f := NewSKUFrame(salesForSKU("sku1", []float64{1, 2, 3, 4, 5}))

	err := f.AddFeatures([]FeatureSpec{
		{Name: "qty_3d_avg", SourceColumn: "qty", WindowDays: 3, Agg: AggAvg},
	})
	if err != nil {
		t.Fatalf("AddFeatures: %v", err)
	}

	col, err := f.Column("qty_3d_avg")
	if err != nil {
		t.Fatal(err)
	}

	// First two rows lack a full window.
	if !math.IsNaN(col[0]) || !math.IsNaN(col[1]) {
		t.Errorf("rows without full window = %v, %v, want NaN", col[0], col[1])
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if col[i+2] != w {
			t.Errorf("row %d = %v, want %v", i+2, col[i+2], w)
		}
	}
}

func TestAddFeaturesRollingQuantile(t *testing.T) {
	f := NewSKUFrame(salesForSKU("sku1", []float64{10, 20, 30, 40}))

	err := f.AddFeatures([]FeatureSpec{
		{Name: "qty_3d_q50", SourceColumn: "qty", WindowDays: 3, Agg: AggQuantile, Percentile: 50},
		{Name: "qty_3d_q10", SourceColumn: "qty", WindowDays: 3, Agg: AggQuantile, Percentile: 10},
	})
	if err != nil {
		t.Fatalf("AddFeatures: %v", err)
	}

	q50, _ := f.Column("qty_3d_q50")
	if q50[2] != 20 || q50[3] != 30 {
		t.Errorf("median window = %v, %v, want 20, 30", q50[2], q50[3])
	}

	// q10 over [10,20,30]: pos 0.2 -> 10 + 0.2*(20-10) = 12.
	q10, _ := f.Column("qty_3d_q10")
	if math.Abs(q10[2]-12) > 1e-9 {
		t.Errorf("q10 window = %v, want 12", q10[2])
	}
}

func TestAddFeaturesWindowsDoNotCrossSKUs(t *testing.T) {
	records := append(
		salesForSKU("a", []float64{100, 100, 100}),
		salesForSKU("b", []float64{1, 2, 3})...,
	)
	f := NewSKUFrame(records)

	err := f.AddFeatures([]FeatureSpec{
		{Name: "qty_2d_avg", SourceColumn: "qty", WindowDays: 2, Agg: AggAvg},
	})
	if err != nil {
		t.Fatalf("AddFeatures: %v", err)
	}

	col, _ := f.Column("qty_2d_avg")
	// First row of SKU b must not see SKU a's history.
	if !math.IsNaN(col[3]) {
		t.Errorf("first row of second SKU = %v, want NaN", col[3])
	}
	if col[4] != 1.5 {
		t.Errorf("second row of second SKU = %v, want 1.5", col[4])
	}
}

func TestAddFeaturesUnknownAggregation(t *testing.T) {
	f := NewSKUFrame(salesForSKU("sku1", []float64{1, 2}))
	err := f.AddFeatures([]FeatureSpec{
		{Name: "bad", SourceColumn: "qty", WindowDays: 2, Agg: "median"},
	})
	if err == nil {
		t.Fatal("expected error for unknown aggregation function")
	}
}

func TestAddTargets(t *testing.T) {
	f := NewSKUFrame(salesForSKU("sku1", []float64{1, 2, 3, 4, 5}))

	err := f.AddTargets([]TargetSpec{
		{Name: "next_2d", SourceColumn: "qty", HorizonDays: 2},
	})
	if err != nil {
		t.Fatalf("AddTargets: %v", err)
	}

	col, _ := f.Column("next_2d")
	// Current day excluded: row 0 -> 2+3, row 1 -> 3+4, row 2 -> 4+5.
	want := []float64{5, 7, 9}
	for i, w := range want {
		if col[i] != w {
			t.Errorf("row %d = %v, want %v", i, col[i], w)
		}
	}
	// Last two rows lack a full horizon.
	if !math.IsNaN(col[3]) || !math.IsNaN(col[4]) {
		t.Errorf("tail rows = %v, %v, want NaN", col[3], col[4])
	}
}

func TestAddTargetsDoNotCrossSKUs(t *testing.T) {
	records := append(
		salesForSKU("a", []float64{1, 2}),
		salesForSKU("b", []float64{10, 20})...,
	)
	f := NewSKUFrame(records)

	if err := f.AddTargets([]TargetSpec{{Name: "next_1d", SourceColumn: "qty", HorizonDays: 1}}); err != nil {
		t.Fatalf("AddTargets: %v", err)
	}

	col, _ := f.Column("next_1d")
	if col[0] != 2 {
		t.Errorf("SKU a row 0 = %v, want 2", col[0])
	}
	// Last row of SKU a must not pull SKU b's first day.
	if !math.IsNaN(col[1]) {
		t.Errorf("SKU a last row = %v, want NaN", col[1])
	}
	if col[2] != 20 {
		t.Errorf("SKU b row 0 = %v, want 20", col[2])
	}
}

func TestTableExport(t *testing.T) {
	f := NewSKUFrame(salesForSKU("sku1", []float64{1, 2, 3}))
	if err := f.AddTargets([]TargetSpec{{Name: "next_1d", SourceColumn: "qty", HorizonDays: 1}}); err != nil {
		t.Fatal(err)
	}

	tbl, err := f.Table("qty", "next_1d")
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if tbl.Len() != 3 {
		t.Errorf("Len() = %d, want 3", tbl.Len())
	}
	if !tbl.HasColumn("next_1d") {
		t.Error("exported table missing next_1d")
	}

	if _, err := f.Table("missing"); err == nil {
		t.Error("expected error exporting unknown column")
	}
}
