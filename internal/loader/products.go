package loader

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/stockops/skucast/internal/stockkpi"
)

var productHeader = []string{"name", "price", "cost", "quantity_sold", "inventory_start", "inventory_end"}

// LoadProductPeriods loads per-product trading figures for a KPI period
// from a CSV file.
func LoadProductPeriods(filename string) ([]stockkpi.ProductPeriod, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open products file %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read products CSV: %w", err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("products CSV must have header and at least one data row")
	}
	if !validateHeader(records[0], productHeader) {
		return nil, fmt.Errorf("products CSV header mismatch. Expected: %v, Got: %v", productHeader, records[0])
	}

	var products []stockkpi.ProductPeriod
	for i, record := range records[1:] {
		if len(record) != len(productHeader) {
			return nil, fmt.Errorf("products CSV row %d: expected %d columns, got %d", i+2, len(productHeader), len(record))
		}

		p, err := parseProductPeriod(record)
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: %w", i+2, err)
		}
		products = append(products, p)
	}

	return products, nil
}

func parseProductPeriod(record []string) (stockkpi.ProductPeriod, error) {
	price, err := decimal.NewFromString(record[1])
	if err != nil {
		return stockkpi.ProductPeriod{}, fmt.Errorf("invalid price %q: %w", record[1], err)
	}
	cost, err := decimal.NewFromString(record[2])
	if err != nil {
		return stockkpi.ProductPeriod{}, fmt.Errorf("invalid cost %q: %w", record[2], err)
	}
	sold, err := strconv.ParseInt(record[3], 10, 64)
	if err != nil {
		return stockkpi.ProductPeriod{}, fmt.Errorf("invalid quantity_sold %q: %w", record[3], err)
	}
	invStart, err := decimal.NewFromString(record[4])
	if err != nil {
		return stockkpi.ProductPeriod{}, fmt.Errorf("invalid inventory_start %q: %w", record[4], err)
	}
	invEnd, err := decimal.NewFromString(record[5])
	if err != nil {
		return stockkpi.ProductPeriod{}, fmt.Errorf("invalid inventory_end %q: %w", record[5], err)
	}

	return stockkpi.ProductPeriod{
		Name:           record[0],
		Price:          price,
		Cost:           cost,
		QuantitySold:   sold,
		InventoryStart: invStart,
		InventoryEnd:   invEnd,
	}, nil
}
