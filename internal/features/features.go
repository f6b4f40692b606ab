// Package features derives model inputs and targets from raw daily sales:
// trailing rolling aggregates per SKU as features, and forward sums per SKU
// as prediction targets.
package features

import (
	"fmt"
	"math"
	"sort"

	"github.com/stockops/skucast/internal/dataset"
	"github.com/stockops/skucast/models"
)

// Aggregation selects the rolling statistic used for a feature.
type Aggregation string

const (
	AggAvg      Aggregation = "avg"
	AggQuantile Aggregation = "quantile"
)

// FeatureSpec describes one trailing-window feature. The window covers
// WindowDays rows up to and including the current day. Percentile is only
// used with AggQuantile and is expressed as an integer (10 -> 0.1 quantile).
type FeatureSpec struct {
	Name         string
	SourceColumn string
	WindowDays   int
	Agg          Aggregation
	Percentile   int
}

// TargetSpec describes one forward-looking target: the sum of SourceColumn
// over the next HorizonDays days, excluding the current day.
type TargetSpec struct {
	Name         string
	SourceColumn string
	HorizonDays  int
}

// SKUFrame holds daily sales rows sorted by (sku, day) plus derived columns
// aligned with the rows. Rows without a full rolling window hold NaN.
type SKUFrame struct {
	Records []models.SalesRecord

	columns map[string][]float64
	order   []string
}

// NewSKUFrame builds a frame from raw sales rows. Rows are sorted by SKU and
// then day; the base columns "qty" and "price" are populated from the rows.
func NewSKUFrame(records []models.SalesRecord) *SKUFrame {
	rows := make([]models.SalesRecord, len(records))
	copy(rows, records)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].SKU != rows[j].SKU {
			return rows[i].SKU < rows[j].SKU
		}
		return rows[i].Day.Before(rows[j].Day)
	})

	f := &SKUFrame{
		Records: rows,
		columns: make(map[string][]float64),
	}
	qty := make([]float64, len(rows))
	price := make([]float64, len(rows))
	for i, r := range rows {
		qty[i] = r.Qty
		price[i] = r.Price
	}
	f.setColumn("qty", qty)
	f.setColumn("price", price)
	return f
}

func (f *SKUFrame) setColumn(name string, values []float64) {
	if _, ok := f.columns[name]; !ok {
		f.order = append(f.order, name)
	}
	f.columns[name] = values
}

// Len returns the number of rows.
func (f *SKUFrame) Len() int { return len(f.Records) }

// Column returns a derived or base column by name.
func (f *SKUFrame) Column(name string) ([]float64, error) {
	col, ok := f.columns[name]
	if !ok {
		return nil, fmt.Errorf("frame has no column %q", name)
	}
	return col, nil
}

// skuGroups returns [start, end) row ranges per SKU. Rows are already
// sorted, so groups are contiguous.
func (f *SKUFrame) skuGroups() [][2]int {
	var groups [][2]int
	start := 0
	for i := 1; i <= len(f.Records); i++ {
		if i == len(f.Records) || f.Records[i].SKU != f.Records[start].SKU {
			groups = append(groups, [2]int{start, i})
			start = i
		}
	}
	return groups
}

// AddFeatures computes every spec as a new column. The window is trailing
// and includes the current day; rows with fewer than WindowDays prior rows
// get NaN, matching the upstream pipeline.
func (f *SKUFrame) AddFeatures(specs []FeatureSpec) error {
	for _, spec := range specs {
		src, err := f.Column(spec.SourceColumn)
		if err != nil {
			return fmt.Errorf("feature %q: %w", spec.Name, err)
		}
		if spec.WindowDays <= 0 {
			return fmt.Errorf("feature %q: window must be positive, got %d", spec.Name, spec.WindowDays)
		}

		out := make([]float64, f.Len())
		for i := range out {
			out[i] = math.NaN()
		}

		for _, g := range f.skuGroups() {
			for i := g[0]; i < g[1]; i++ {
				lo := i - spec.WindowDays + 1
				if lo < g[0] {
					continue // incomplete window
				}
				window := src[lo : i+1]
				switch spec.Agg {
				case AggAvg:
					out[i] = mean(window)
				case AggQuantile:
					out[i] = quantile(window, float64(spec.Percentile)/100)
				default:
					return fmt.Errorf("feature %q: unknown aggregation function %q", spec.Name, spec.Agg)
				}
			}
		}
		f.setColumn(spec.Name, out)
	}
	return nil
}

// AddTargets computes every spec as a new column: the sum of the next
// HorizonDays days of the source column, excluding the current day. Rows
// near the end of a SKU's history without a full horizon get NaN.
func (f *SKUFrame) AddTargets(specs []TargetSpec) error {
	for _, spec := range specs {
		src, err := f.Column(spec.SourceColumn)
		if err != nil {
			return fmt.Errorf("target %q: %w", spec.Name, err)
		}
		if spec.HorizonDays <= 0 {
			return fmt.Errorf("target %q: horizon must be positive, got %d", spec.Name, spec.HorizonDays)
		}

		out := make([]float64, f.Len())
		for i := range out {
			out[i] = math.NaN()
		}

		for _, g := range f.skuGroups() {
			for i := g[0]; i < g[1]; i++ {
				hi := i + spec.HorizonDays
				if hi >= g[1] {
					continue // not enough future days
				}
				var sum float64
				for j := i + 1; j <= hi; j++ {
					sum += src[j]
				}
				out[i] = sum
			}
		}
		f.setColumn(spec.Name, out)
	}
	return nil
}

// Table exports the named columns as a row-aligned dataset table.
func (f *SKUFrame) Table(names ...string) (*dataset.Table, error) {
	if len(names) == 0 {
		names = f.order
	}
	tbl := dataset.New()
	for _, name := range names {
		col, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		if err := tbl.AddColumn(name, col); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// quantile computes the q-quantile of values with linear interpolation
// between order statistics.
func quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	frac := pos - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
