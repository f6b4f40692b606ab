package evaluation

import (
	"errors"
	"math"
	"testing"

	"github.com/stockops/skucast/internal/dataset"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestQuantileLoss(t *testing.T) {
	tests := []struct {
		name     string
		yTrue    []float64
		yPred    []float64
		quantile float64
		expected float64
	}{
		{
			name:     "perfect prediction is zero loss",
			yTrue:    []float64{10, 20, 30},
			yPred:    []float64{10, 20, 30},
			quantile: 0.5,
			expected: 0,
		},
		{
			name:     "mixed errors at q=0.1",
			yTrue:    []float64{10, 20, 30},
			yPred:    []float64{8, 25, 28},
			quantile: 0.1,
			// errors [2,-5,2] -> [0.2, 4.5, 0.2] -> mean 4.9/3
			expected: 4.9 / 3.0,
		},
		{
			name:     "constant under-prediction costs q*c",
			yTrue:    []float64{10, 20, 30},
			yPred:    []float64{7, 17, 27},
			quantile: 0.9,
			expected: 0.9 * 3,
		},
		{
			name:     "constant over-prediction costs (1-q)*c",
			yTrue:    []float64{10, 20, 30},
			yPred:    []float64{13, 23, 33},
			quantile: 0.9,
			expected: 0.1 * 3,
		},
		{
			name:     "median reduces to half MAE",
			yTrue:    []float64{1, 2, 3, 4},
			yPred:    []float64{2, 2, 1, 6},
			quantile: 0.5,
			// abs errors [1,0,2,2] -> MAE 1.25 -> half 0.625
			expected: 0.625,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QuantileLoss(tt.yTrue, tt.yPred, tt.quantile)
			if err != nil {
				t.Fatalf("QuantileLoss() error = %v", err)
			}
			if !almostEqual(got, tt.expected) {
				t.Errorf("QuantileLoss() = %v, want %v", got, tt.expected)
			}
			if got < 0 {
				t.Errorf("QuantileLoss() = %v, want non-negative", got)
			}
		})
	}
}

func TestQuantileLossShapeMismatch(t *testing.T) {
	_, err := QuantileLoss([]float64{1, 2, 3}, []float64{1, 2}, 0.5)
	var shapeErr *ShapeMismatchError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected ShapeMismatchError, got %v", err)
	}
	if shapeErr.TrueLen != 3 || shapeErr.PredLen != 2 {
		t.Errorf("ShapeMismatchError = %+v, want lengths 3 and 2", shapeErr)
	}
}

func TestQuantileLossInvalidQuantile(t *testing.T) {
	for _, q := range []float64{0, 1, -0.1, 1.5} {
		_, err := QuantileLoss([]float64{1}, []float64{1}, q)
		var qErr *InvalidQuantileError
		if !errors.As(err, &qErr) {
			t.Errorf("quantile %v: expected InvalidQuantileError, got %v", q, err)
		}
	}
}

func buildTables(t *testing.T, quantiles []float64, horizons []int, rows int) (*dataset.Table, *dataset.Table) {
	t.Helper()

	truth := dataset.New()
	preds := dataset.New()
	for _, h := range horizons {
		trueVals := make([]float64, rows)
		for i := range trueVals {
			trueVals[i] = float64(10 + i + h)
		}
		if err := truth.AddColumn(dataset.TargetColumn(h), trueVals); err != nil {
			t.Fatalf("AddColumn: %v", err)
		}
		for _, q := range quantiles {
			predVals := make([]float64, rows)
			for i := range predVals {
				predVals[i] = trueVals[i] - 2 // constant under-prediction
			}
			if err := preds.AddColumn(dataset.PredictionColumn(h, q), predVals); err != nil {
				t.Fatalf("AddColumn: %v", err)
			}
		}
	}
	return truth, preds
}

func TestEvaluateModelCompleteness(t *testing.T) {
	quantiles := []float64{0.1, 0.5, 0.9}
	horizons := []int{7, 14, 21}
	truth, preds := buildTables(t, quantiles, horizons, 5)

	report, err := EvaluateModel(truth, preds, quantiles, horizons)
	if err != nil {
		t.Fatalf("EvaluateModel() error = %v", err)
	}

	if len(report.Rows) != len(quantiles)*len(horizons) {
		t.Fatalf("report has %d rows, want %d", len(report.Rows), len(quantiles)*len(horizons))
	}

	seen := make(map[[2]int]bool)
	for _, row := range report.Rows {
		key := [2]int{int(math.Round(row.Quantile * 100)), row.Horizon}
		if seen[key] {
			t.Errorf("duplicate report row for quantile %v horizon %d", row.Quantile, row.Horizon)
		}
		seen[key] = true

		// Predictions are true-2 everywhere, so loss must be q*2.
		if !almostEqual(row.AvgQuantileLoss, row.Quantile*2) {
			t.Errorf("loss for q=%v h=%d = %v, want %v",
				row.Quantile, row.Horizon, row.AvgQuantileLoss, row.Quantile*2)
		}
	}
}

func TestEvaluateModelRowOrder(t *testing.T) {
	quantiles := []float64{0.5, 0.1}
	horizons := []int{14, 7}
	truth, preds := buildTables(t, quantiles, horizons, 3)

	report, err := EvaluateModel(truth, preds, quantiles, horizons)
	if err != nil {
		t.Fatalf("EvaluateModel() error = %v", err)
	}

	want := []struct {
		q float64
		h int
	}{
		{0.5, 14}, {0.1, 14}, {0.5, 7}, {0.1, 7},
	}
	for i, w := range want {
		if report.Rows[i].Quantile != w.q || report.Rows[i].Horizon != w.h {
			t.Errorf("row %d = (%v, %d), want (%v, %d)",
				i, report.Rows[i].Quantile, report.Rows[i].Horizon, w.q, w.h)
		}
	}
}

func TestEvaluateModelMissingPredictionColumn(t *testing.T) {
	quantiles := []float64{0.1, 0.5}
	horizons := []int{7}
	truth, preds := buildTables(t, []float64{0.1}, horizons, 3)

	_, err := EvaluateModel(truth, preds, quantiles, horizons)
	var colErr *MissingColumnError
	if !errors.As(err, &colErr) {
		t.Fatalf("expected MissingColumnError, got %v", err)
	}
	if colErr.Column != "pred_7d_q50" {
		t.Errorf("missing column = %q, want %q", colErr.Column, "pred_7d_q50")
	}
	if colErr.Horizon != 7 || colErr.Quantile != 0.5 {
		t.Errorf("error identifies (%v, %d), want (0.5, 7)", colErr.Quantile, colErr.Horizon)
	}
}

func TestEvaluateModelMissingTargetColumn(t *testing.T) {
	truth, preds := buildTables(t, []float64{0.5}, []int{7}, 3)

	_, err := EvaluateModel(truth, preds, []float64{0.5}, []int{7, 14})
	var colErr *MissingColumnError
	if !errors.As(err, &colErr) {
		t.Fatalf("expected MissingColumnError, got %v", err)
	}
	if colErr.Column != "next_14d" {
		t.Errorf("missing column = %q, want %q", colErr.Column, "next_14d")
	}
}

func TestEvaluateModelShapeMismatch(t *testing.T) {
	truth := dataset.New()
	preds := dataset.New()
	if err := truth.AddColumn("next_7d", []float64{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := preds.AddColumn("pred_7d_q50", []float64{1, 2}); err != nil {
		t.Fatal(err)
	}

	_, err := EvaluateModel(truth, preds, []float64{0.5}, []int{7})
	var shapeErr *ShapeMismatchError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected ShapeMismatchError, got %v", err)
	}
}

func TestEvaluateModelValidatesGrid(t *testing.T) {
	truth, preds := buildTables(t, []float64{0.5}, []int{7}, 3)

	if _, err := EvaluateModel(truth, preds, []float64{1.2}, []int{7}); err == nil {
		t.Error("expected error for quantile outside (0,1)")
	}
	if _, err := EvaluateModel(truth, preds, []float64{0.5}, []int{0}); err == nil {
		t.Error("expected error for non-positive horizon")
	}
	if _, err := EvaluateModel(truth, preds, []float64{0.5}, []int{-7}); err == nil {
		t.Error("expected error for negative horizon")
	}
}

func TestEvaluateModelDefaults(t *testing.T) {
	truth, preds := buildTables(t, DefaultQuantiles, DefaultHorizons, 4)

	report, err := EvaluateModel(truth, preds, nil, nil)
	if err != nil {
		t.Fatalf("EvaluateModel() error = %v", err)
	}
	if len(report.Rows) != 9 {
		t.Errorf("default grid produced %d rows, want 9", len(report.Rows))
	}
}
