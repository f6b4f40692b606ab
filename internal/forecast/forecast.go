// Package forecast trains per-SKU quantile demand models and emits
// prediction tables in the pred_{d}d_q{NN} naming convention consumed by the
// evaluation layer.
package forecast

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stockops/skucast/internal/dataset"
	"github.com/stockops/skucast/internal/features"
	"github.com/stockops/skucast/models"
)

// SplitTrainTest holds out the last testDays days of sales history. A row
// belongs to the test set when its day is on or after maxDay - testDays.
func SplitTrainTest(records []models.SalesRecord, testDays int) (train, test []models.SalesRecord) {
	if len(records) == 0 {
		return nil, nil
	}

	splitDay := MaxDay(records).AddDate(0, 0, -testDays)

	for _, r := range records {
		if r.Day.Before(splitDay) {
			train = append(train, r)
		} else {
			test = append(test, r)
		}
	}
	return train, test
}

type modelKey struct {
	quantile float64
	horizon  int
}

// MultiTargetModel fits one quantile model per SKU per (quantile, horizon)
// pair on the next_{d}d targets. The fitted model for a pair is the
// empirical quantile of the SKU's training target, which is the optimal
// constant predictor under the pinball loss.
type MultiTargetModel struct {
	Horizons  []int
	Quantiles []float64

	fitted map[string]map[modelKey]float64
	logger zerolog.Logger
}

// NewMultiTargetModel creates an unfitted model for the given grid.
func NewMultiTargetModel(horizons []int, quantiles []float64) *MultiTargetModel {
	return &MultiTargetModel{
		Horizons:  horizons,
		Quantiles: quantiles,
		fitted:    make(map[string]map[modelKey]float64),
		logger:    log.With().Str("component", "forecast_model").Logger(),
	}
}

// Fit trains the per-SKU models from a frame carrying the next_{d}d target
// columns. Rows whose target is NaN (incomplete horizon) are dropped.
func (m *MultiTargetModel) Fit(frame *features.SKUFrame) error {
	targets := make(map[int][]float64, len(m.Horizons))
	for _, horizon := range m.Horizons {
		col, err := frame.Column(dataset.TargetColumn(horizon))
		if err != nil {
			return fmt.Errorf("fit: %w", err)
		}
		targets[horizon] = col
	}

	for _, g := range skuGroups(frame.Records) {
		sku := frame.Records[g[0]].SKU
		skuModels := make(map[modelKey]float64, len(m.Horizons)*len(m.Quantiles))

		for _, horizon := range m.Horizons {
			var sample []float64
			for i := g[0]; i < g[1]; i++ {
				if v := targets[horizon][i]; !math.IsNaN(v) {
					sample = append(sample, v)
				}
			}
			if len(sample) == 0 {
				continue
			}
			for _, quantile := range m.Quantiles {
				skuModels[modelKey{quantile, horizon}] = empiricalQuantile(sample, quantile)
			}
		}

		m.fitted[sku] = skuModels
		m.logger.Debug().Str("sku", sku).Int("models", len(skuModels)).Msg("fitted sku")
	}

	m.logger.Info().Int("skus", len(m.fitted)).Msg("model fitted")
	return nil
}

// Predict emits one pred_{d}d_q{NN} column per grid cell, row-aligned with
// the input frame. SKUs never seen during fit predict zero.
func (m *MultiTargetModel) Predict(frame *features.SKUFrame) (*dataset.Table, error) {
	if len(m.fitted) == 0 {
		return nil, fmt.Errorf("predict: model is not fitted")
	}

	groups := skuGroups(frame.Records)
	out := dataset.New()

	for _, horizon := range m.Horizons {
		for _, quantile := range m.Quantiles {
			col := make([]float64, frame.Len())
			key := modelKey{quantile, horizon}
			for _, g := range groups {
				sku := frame.Records[g[0]].SKU
				pred := 0.0
				if skuModels, ok := m.fitted[sku]; ok {
					pred = skuModels[key]
				}
				for i := g[0]; i < g[1]; i++ {
					col[i] = pred
				}
			}
			if err := out.AddColumn(dataset.PredictionColumn(horizon, quantile), col); err != nil {
				return nil, fmt.Errorf("predict: %w", err)
			}
		}
	}
	return out, nil
}

// Seen reports whether the model has fitted parameters for the SKU.
func (m *MultiTargetModel) Seen(sku string) bool {
	_, ok := m.fitted[sku]
	return ok
}

// skuGroups returns [start, end) ranges of rows per SKU. Relies on the
// frame's (sku, day) sort order.
func skuGroups(records []models.SalesRecord) [][2]int {
	var groups [][2]int
	start := 0
	for i := 1; i <= len(records); i++ {
		if i == len(records) || records[i].SKU != records[start].SKU {
			groups = append(groups, [2]int{start, i})
			start = i
		}
	}
	return groups
}

// empiricalQuantile computes the q-quantile of values with linear
// interpolation between order statistics.
func empiricalQuantile(values []float64, q float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	if lo+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// MaxDay returns the most recent day in the records, or the zero time for an
// empty slice.
func MaxDay(records []models.SalesRecord) time.Time {
	var max time.Time
	for _, r := range records {
		if r.Day.After(max) {
			max = r.Day
		}
	}
	return max
}
