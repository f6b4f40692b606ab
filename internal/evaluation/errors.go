package evaluation

import "fmt"

// ShapeMismatchError reports true/predicted sequences of different lengths.
type ShapeMismatchError struct {
	TrueLen int
	PredLen int
}

func (e *ShapeMismatchError) Error() string {
	if e.TrueLen == 0 && e.PredLen == 0 {
		return "shape mismatch: empty input sequences"
	}
	return fmt.Sprintf("shape mismatch: %d true values vs %d predicted", e.TrueLen, e.PredLen)
}

// MissingColumnError reports an expected column absent from one of the input
// tables, along with the grid cell that needed it.
type MissingColumnError struct {
	Column   string
	Table    string
	Horizon  int
	Quantile float64
}

func (e *MissingColumnError) Error() string {
	if e.Quantile > 0 {
		return fmt.Sprintf("missing column %q in %s table (horizon %dd, quantile %.2f)",
			e.Column, e.Table, e.Horizon, e.Quantile)
	}
	return fmt.Sprintf("missing column %q in %s table (horizon %dd)", e.Column, e.Table, e.Horizon)
}

// InvalidQuantileError reports a quantile outside the open interval (0,1).
type InvalidQuantileError struct {
	Quantile float64
}

func (e *InvalidQuantileError) Error() string {
	return fmt.Sprintf("invalid quantile %g: must be strictly between 0 and 1", e.Quantile)
}

// InvalidHorizonError reports a non-positive forecast horizon.
type InvalidHorizonError struct {
	Horizon int
}

func (e *InvalidHorizonError) Error() string {
	return fmt.Sprintf("invalid horizon %d: must be a positive number of days", e.Horizon)
}
