// Package evaluation scores quantile demand forecasts against realized
// demand with the pinball loss, across a grid of quantiles and horizons.
package evaluation

import (
	"fmt"
	"time"

	"github.com/stockops/skucast/internal/dataset"
	"github.com/stockops/skucast/models"
)

// Default evaluation grid, matching the upstream forecasting pipeline.
var (
	DefaultQuantiles = []float64{0.1, 0.5, 0.9}
	DefaultHorizons  = []int{7, 14, 21}
)

// QuantileLoss computes the pinball loss between true and predicted values
// at the given quantile and returns the mean over all pairs.
//
// Per element the loss is max(q*e, (q-1)*e) with e = true - pred, so
// under-prediction is weighted by q and over-prediction by 1-q. The result
// is always >= 0 and is 0 only for a perfect prediction.
func QuantileLoss(yTrue, yPred []float64, quantile float64) (float64, error) {
	if quantile <= 0 || quantile >= 1 {
		return 0, &InvalidQuantileError{Quantile: quantile}
	}
	if len(yTrue) != len(yPred) {
		return 0, &ShapeMismatchError{TrueLen: len(yTrue), PredLen: len(yPred)}
	}
	if len(yTrue) == 0 {
		return 0, &ShapeMismatchError{TrueLen: 0, PredLen: 0}
	}

	var sum float64
	for i := range yTrue {
		err := yTrue[i] - yPred[i]
		loss := quantile * err
		if over := (quantile - 1) * err; over > loss {
			loss = over
		}
		sum += loss
	}
	return sum / float64(len(yTrue)), nil
}

// EvaluateModel computes the average quantile loss for every
// (quantile, horizon) pair, reading realized demand from truth
// ("next_{d}d" columns) and forecasts from preds ("pred_{d}d_q{NN}"
// columns). Both tables must be row-aligned.
//
// The report contains exactly len(quantiles)*len(horizons) rows, horizons
// outer and quantiles inner, in input order. Any missing column or shape
// mismatch fails the whole call; no partial report is returned.
func EvaluateModel(truth, preds *dataset.Table, quantiles []float64, horizons []int) (*models.EvaluationReport, error) {
	if len(quantiles) == 0 {
		quantiles = DefaultQuantiles
	}
	if len(horizons) == 0 {
		horizons = DefaultHorizons
	}

	// Validate the grid up front so a bad quantile fails before any loss is
	// computed.
	for _, q := range quantiles {
		if q <= 0 || q >= 1 {
			return nil, &InvalidQuantileError{Quantile: q}
		}
	}
	for _, h := range horizons {
		if h <= 0 {
			return nil, &InvalidHorizonError{Horizon: h}
		}
	}

	rows := make([]models.QuantileLossRow, 0, len(quantiles)*len(horizons))
	for _, horizon := range horizons {
		trueCol := dataset.TargetColumn(horizon)
		yTrue, err := truth.Column(trueCol)
		if err != nil {
			return nil, &MissingColumnError{Column: trueCol, Table: "observations", Horizon: horizon}
		}

		for _, quantile := range quantiles {
			predCol := dataset.PredictionColumn(horizon, quantile)
			yPred, err := preds.Column(predCol)
			if err != nil {
				return nil, &MissingColumnError{Column: predCol, Table: "predictions", Horizon: horizon, Quantile: quantile}
			}

			loss, err := QuantileLoss(yTrue, yPred, quantile)
			if err != nil {
				return nil, fmt.Errorf("quantile %.2f horizon %dd: %w", quantile, horizon, err)
			}

			rows = append(rows, models.QuantileLossRow{
				Quantile:        quantile,
				Horizon:         horizon,
				AvgQuantileLoss: loss,
			})
		}
	}

	return &models.EvaluationReport{
		CreatedAt: time.Now().UTC(),
		Rows:      rows,
	}, nil
}
