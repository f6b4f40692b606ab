package models

import (
	"time"
)

// SalesRecord is a single day of realized demand for one SKU.
type SalesRecord struct {
	SKU   string    `json:"sku_id"`
	Day   time.Time `json:"day"`
	Qty   float64   `json:"qty"`
	Price float64   `json:"price,omitempty"`
}

// SalesResponse represents the payload returned by the sales history API
type SalesResponse struct {
	Meta struct {
		Store string `json:"store"`
		Days  int    `json:"days"`
	} `json:"meta"`
	Values []struct {
		SKU   string  `json:"sku_id"`
		Day   string  `json:"day"`
		Qty   float64 `json:"qty"`
		Price float64 `json:"price,omitempty"`
	} `json:"values"`
	Status string `json:"status"`
}

// QuantileLossRow is one row of the evaluation report: the average pinball
// loss for a single (quantile, horizon) pair.
type QuantileLossRow struct {
	Quantile        float64 `json:"quantile"`
	Horizon         int     `json:"horizon"`
	AvgQuantileLoss float64 `json:"avg_quantile_loss"`
}

// EvaluationReport is the full quantile-loss report for one model evaluation.
type EvaluationReport struct {
	RunID     string            `json:"run_id,omitempty"`
	ModelTag  string            `json:"model_tag,omitempty"`
	CreatedAt time.Time         `json:"created_at,omitempty"`
	Rows      []QuantileLossRow `json:"rows"`
}

// Product is one catalog entry for restock planning. Percentiles holds the
// demand forecast per week horizon ("1w".."4w") per percentile level
// ("5".."95").
type Product struct {
	SKU          string                        `json:"sku_id"`
	Price        float64                       `json:"price"`
	Cost         float64                       `json:"cost"`
	CurrentStock float64                       `json:"current_stock"`
	StorageDays  float64                       `json:"storage_time"`
	Percentiles  map[string]map[string]float64 `json:"percentiles"`
}

// Allocation is one line of a restock recommendation.
type Allocation struct {
	SKU             string  `json:"sku_id"`
	Percentile      int     `json:"percentile"`
	Price           float64 `json:"price"`
	Cost            float64 `json:"cost"`
	AllocatedQty    int64   `json:"allocated_qty"`
	AllocatedBudget float64 `json:"allocated_budget"`
	ExpectedProfit  float64 `json:"expected_profit"`
	ExpectedRevenue float64 `json:"expected_revenue"`
}
