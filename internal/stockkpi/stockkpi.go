// Package stockkpi computes inventory profitability metrics (GMV, gross
// margin, GMROI, turnover) over a trading period for a set of products.
package stockkpi

import (
	"github.com/shopspring/decimal"
)

var (
	two         = decimal.NewFromInt(2)
	hundred     = decimal.NewFromInt(100)
	daysPerYear = decimal.NewFromInt(365)
)

// ProductPeriod is one product's trading figures for the period under
// review.
type ProductPeriod struct {
	Name           string
	Price          decimal.Decimal // selling price per unit
	Cost           decimal.Decimal // cost per unit
	QuantitySold   int64
	InventoryStart decimal.Decimal // inventory value at period start
	InventoryEnd   decimal.Decimal // inventory value at period end
}

// Metrics computes aggregate inventory KPIs over a set of products.
type Metrics struct {
	products []ProductPeriod
}

// NewMetrics creates a metrics calculator over the given products.
func NewMetrics(products []ProductPeriod) *Metrics {
	return &Metrics{products: products}
}

// GMV returns the total gross merchandise value: sum of price * quantity
// sold, rounded to 2 places.
func (m *Metrics) GMV() decimal.Decimal {
	total := decimal.Zero
	for _, p := range m.products {
		total = total.Add(p.Price.Mul(decimal.NewFromInt(p.QuantitySold)))
	}
	return total.Round(2)
}

// GrossMargin returns the total gross margin and its percentage of GMV. The
// percentage is 0 when there is no revenue.
func (m *Metrics) GrossMargin() (margin, marginPct decimal.Decimal) {
	gmv := m.GMV()
	totalCost := decimal.Zero
	for _, p := range m.products {
		totalCost = totalCost.Add(p.Cost.Mul(decimal.NewFromInt(p.QuantitySold)))
	}
	margin = gmv.Sub(totalCost)
	if gmv.IsPositive() {
		marginPct = margin.Div(gmv).Mul(hundred).Round(2)
	} else {
		marginPct = decimal.Zero
	}
	return margin, marginPct
}

// AverageInventoryCost returns the sum over products of the average of
// starting and ending inventory value.
func (m *Metrics) AverageInventoryCost() decimal.Decimal {
	total := decimal.Zero
	for _, p := range m.products {
		total = total.Add(p.InventoryStart.Add(p.InventoryEnd).Div(two))
	}
	return total
}

// GMROI returns gross margin divided by average inventory cost, rounded to
// 2 places, or 0 when there is no inventory investment.
func (m *Metrics) GMROI() decimal.Decimal {
	margin, _ := m.GrossMargin()
	avgCost := m.AverageInventoryCost()
	if !avgCost.IsPositive() {
		return decimal.Zero
	}
	return margin.Div(avgCost).Round(2)
}

// InventoryTurnover returns cost of goods sold divided by average inventory
// cost, rounded to 2 places, or 0 when there is no inventory investment.
func (m *Metrics) InventoryTurnover() decimal.Decimal {
	cogs := decimal.Zero
	for _, p := range m.products {
		cogs = cogs.Add(p.Cost.Mul(decimal.NewFromInt(p.QuantitySold)))
	}
	avgCost := m.AverageInventoryCost()
	if !avgCost.IsPositive() {
		return decimal.Zero
	}
	return cogs.Div(avgCost).Round(2)
}

// TurnoverPeriod returns the number of days one inventory turn takes
// (365 / turnover), rounded to 2 places, or 0 when turnover is 0.
func (m *Metrics) TurnoverPeriod() decimal.Decimal {
	turnover := m.InventoryTurnover()
	if !turnover.IsPositive() {
		return decimal.Zero
	}
	return daysPerYear.Div(turnover).Round(2)
}
