package forecast

import (
	"math/rand"
	"testing"

	"github.com/stockops/skucast/internal/dataset"
	"github.com/stockops/skucast/internal/evaluation"
	"github.com/stockops/skucast/internal/features"
	"github.com/stockops/skucast/models"
)

// Runs the whole chain: raw sales -> split -> targets -> fit -> predict ->
// quantile-loss report, the way cmd/evaluate wires it.
func TestPipelineEndToEnd(t *testing.T) {
	quantiles := []float64{0.1, 0.5, 0.9}
	horizons := []int{7, 14}

	rng := rand.New(rand.NewSource(7))
	var records []models.SalesRecord
	for _, sku := range []string{"0001", "0002", "0003"} {
		for i := 0; i < 120; i++ {
			records = append(records, models.SalesRecord{
				SKU: sku,
				Day: day(i),
				Qty: float64(5 + rng.Intn(10)),
			})
		}
	}

	train, test := SplitTrainTest(records, 30)
	if len(train) == 0 || len(test) == 0 {
		t.Fatalf("bad split: %d train, %d test", len(train), len(test))
	}

	targetSpecs := make([]features.TargetSpec, 0, len(horizons))
	for _, h := range horizons {
		targetSpecs = append(targetSpecs, features.TargetSpec{
			Name:         dataset.TargetColumn(h),
			SourceColumn: "qty",
			HorizonDays:  h,
		})
	}

	trainFrame := features.NewSKUFrame(train)
	if err := trainFrame.AddTargets(targetSpecs); err != nil {
		t.Fatalf("AddTargets(train): %v", err)
	}

	model := NewMultiTargetModel(horizons, quantiles)
	if err := model.Fit(trainFrame); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	testFrame := features.NewSKUFrame(test)
	if err := testFrame.AddTargets(targetSpecs); err != nil {
		t.Fatalf("AddTargets(test): %v", err)
	}
	preds, err := model.Predict(testFrame)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	// Merge targets and predictions, drop incomplete-horizon rows.
	targetNames := make([]string, 0, len(horizons))
	for _, h := range horizons {
		targetNames = append(targetNames, dataset.TargetColumn(h))
	}
	combined, err := testFrame.Table(targetNames...)
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	for _, name := range preds.Names() {
		col, err := preds.Column(name)
		if err != nil {
			t.Fatal(err)
		}
		if err := combined.AddColumn(name, col); err != nil {
			t.Fatal(err)
		}
	}
	combined = combined.DropNaNRows()
	if combined.Len() == 0 {
		t.Fatal("no evaluable rows after dropping incomplete horizons")
	}

	report, err := evaluation.EvaluateModel(combined, combined, quantiles, horizons)
	if err != nil {
		t.Fatalf("EvaluateModel: %v", err)
	}

	if len(report.Rows) != len(quantiles)*len(horizons) {
		t.Fatalf("report has %d rows, want %d", len(report.Rows), len(quantiles)*len(horizons))
	}
	for _, row := range report.Rows {
		if row.AvgQuantileLoss < 0 {
			t.Errorf("negative loss for q=%v h=%d", row.Quantile, row.Horizon)
		}
		// Demand is bounded, so losses on quantile baselines stay modest.
		if row.AvgQuantileLoss > 100 {
			t.Errorf("implausible loss %v for q=%v h=%d", row.AvgQuantileLoss, row.Quantile, row.Horizon)
		}
	}
}
