// Package restock recommends how to spend a replenishment budget across
// SKUs, choosing one demand percentile per SKU and buying up to the
// forecasted shortage.
package restock

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/stockops/skucast/models"
)

// Goal selects the objective the allocator maximizes.
type Goal string

const (
	GoalProfit  Goal = "profit"
	GoalRevenue Goal = "revenue"
)

var (
	requiredWeeks       = []string{"1w", "2w", "3w", "4w"}
	requiredPercentiles = []string{"5", "10", "25", "50", "75", "90", "95"}
)

// LoadCatalog reads and validates a product catalog from a JSON file.
func LoadCatalog(path string) ([]models.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}

	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("decoding catalog %s: %w", path, err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("catalog %s: product list is empty", path)
	}
	if err := Validate(products); err != nil {
		return nil, err
	}
	return products, nil
}

// Validate checks catalog invariants: positive price and cost with
// price >= cost, non-negative stock, positive storage time, and a complete
// percentile grid for every week horizon.
func Validate(products []models.Product) error {
	for idx, p := range products {
		if p.Price <= 0 {
			return fmt.Errorf("product at index %d has an invalid price: %g", idx, p.Price)
		}
		if p.Cost <= 0 {
			return fmt.Errorf("product at index %d has an invalid cost: %g", idx, p.Cost)
		}
		if p.Price < p.Cost {
			return fmt.Errorf("product at index %d has a price less than the cost", idx)
		}
		if p.CurrentStock < 0 {
			return fmt.Errorf("product at index %d has an invalid current stock: %g", idx, p.CurrentStock)
		}
		if p.StorageDays <= 0 {
			return fmt.Errorf("product at index %d has an invalid storage time: %g", idx, p.StorageDays)
		}
		if p.Percentiles == nil {
			return fmt.Errorf("product at index %d has no percentiles", idx)
		}
		for _, week := range requiredWeeks {
			weekPerc, ok := p.Percentiles[week]
			if !ok {
				return fmt.Errorf("missing required week %q in percentiles for product at index %d", week, idx)
			}
			for _, perc := range requiredPercentiles {
				if _, ok := weekPerc[perc]; !ok {
					return fmt.Errorf("missing required percentile %q for week %q in product at index %d", perc, week, idx)
				}
			}
		}
	}
	return nil
}

// candidate is one (sku, percentile) option with its objective coefficient.
type candidate struct {
	product    models.Product
	percentile int
	shortage   float64
	score      float64
}

// Allocate distributes the budget over the catalog for the given week
// horizon. One percentile is chosen per SKU; the purchased quantity never
// exceeds that percentile's forecast minus current stock, and total spend
// never exceeds the budget. Results are sorted by allocated budget
// descending, then SKU.
func Allocate(products []models.Product, budget float64, weeks int, goal Goal) ([]models.Allocation, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("budget must be positive, got %g", budget)
	}
	if weeks < 1 || weeks > 4 {
		return nil, fmt.Errorf("weeks must be between 1 and 4, got %d", weeks)
	}
	if goal != GoalProfit && goal != GoalRevenue {
		return nil, fmt.Errorf("optimization goal must be %q or %q, got %q", GoalProfit, GoalRevenue, goal)
	}
	if err := Validate(products); err != nil {
		return nil, err
	}

	week := fmt.Sprintf("%dw", weeks)
	logger := log.With().Str("component", "restock").Logger()

	var candidates []candidate
	for _, p := range products {
		for perc, forecast := range p.Percentiles[week] {
			shortage := forecast - p.CurrentStock
			if shortage <= 0 {
				continue
			}
			level, err := strconv.Atoi(perc)
			if err != nil {
				return nil, fmt.Errorf("product %s: bad percentile key %q", p.SKU, perc)
			}
			candidates = append(candidates, candidate{
				product:    p,
				percentile: level,
				shortage:   shortage,
				score:      score(p, level, shortage, goal),
			})
		}
	}

	// Most valuable spend first: score per unit of budget, deterministic
	// tie-break on sku then percentile.
	sort.Slice(candidates, func(i, j int) bool {
		di := candidates[i].score / candidates[i].product.Cost
		dj := candidates[j].score / candidates[j].product.Cost
		if di != dj {
			return di > dj
		}
		if candidates[i].product.SKU != candidates[j].product.SKU {
			return candidates[i].product.SKU < candidates[j].product.SKU
		}
		return candidates[i].percentile < candidates[j].percentile
	})

	remaining := budget
	chosen := make(map[string]bool)
	var out []models.Allocation
	for _, c := range candidates {
		if chosen[c.product.SKU] || c.score <= 0 {
			continue
		}
		qty := int64(math.Min(c.shortage, math.Floor(remaining/c.product.Cost)))
		if qty <= 0 {
			continue
		}
		chosen[c.product.SKU] = true

		spend := float64(qty) * c.product.Cost
		revenue := float64(qty) * c.product.Price
		remaining -= spend
		out = append(out, models.Allocation{
			SKU:             c.product.SKU,
			Percentile:      c.percentile,
			Price:           c.product.Price,
			Cost:            c.product.Cost,
			AllocatedQty:    qty,
			AllocatedBudget: spend,
			ExpectedProfit:  revenue - spend,
			ExpectedRevenue: revenue,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AllocatedBudget != out[j].AllocatedBudget {
			return out[i].AllocatedBudget > out[j].AllocatedBudget
		}
		return out[i].SKU < out[j].SKU
	})

	logger.Info().
		Int("skus", len(out)).
		Float64("budget", budget).
		Float64("spent", budget-remaining).
		Str("goal", string(goal)).
		Msg("allocation complete")
	return out, nil
}

// score is the objective coefficient for buying one unit at the given
// percentile. Higher percentiles are discounted by their out-of-stock risk
// (1 - p/100); slow-moving products are weighted by log10 of storage days.
func score(p models.Product, percentile int, shortage float64, goal Goal) float64 {
	risk := 1 - float64(percentile)/100
	storage := math.Log10(p.StorageDays)

	switch goal {
	case GoalRevenue:
		return round4(p.Price / p.Cost * risk * shortage * storage)
	default:
		return round4((p.Price - p.Cost) / p.Cost * risk * storage)
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
