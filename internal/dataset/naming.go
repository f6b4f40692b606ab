package dataset

import (
	"fmt"
	"math"
)

// The observation and prediction tables are coupled by a string naming
// convention shared with the upstream pipeline. All formatting lives here so
// no other package builds these names by hand.

// TargetColumn names the realized-demand column for a horizon in days:
// horizon 7 -> "next_7d".
func TargetColumn(horizon int) string {
	return fmt.Sprintf("next_%dd", horizon)
}

// PredictionColumn names the predicted-quantile column for a horizon and a
// quantile in (0,1): horizon 7, quantile 0.5 -> "pred_7d_q50".
func PredictionColumn(horizon int, quantile float64) string {
	return fmt.Sprintf("pred_%dd_q%d", horizon, int(math.Round(quantile*100)))
}
