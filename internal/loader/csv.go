// Package loader reads sales history from local CSV files for offline
// pipeline runs.
package loader

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/stockops/skucast/models"
)

const dayLayout = "2006-01-02"

var expectedHeader = []string{"sku_id", "day", "qty", "price"}

// LoadSales loads daily sales rows from a CSV file with columns
// sku_id, day (YYYY-MM-DD), qty, price.
func LoadSales(filename string) ([]models.SalesRecord, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open sales file %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read sales CSV: %w", err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("sales CSV must have header and at least one data row")
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("sales CSV header mismatch. Expected: %v, Got: %v", expectedHeader, header)
	}

	var rows []models.SalesRecord
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("sales CSV row %d: expected %d columns, got %d", i+2, len(expectedHeader), len(record))
		}

		row, err := parseSalesRow(record)
		if err != nil {
			return nil, fmt.Errorf("sales CSV row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func parseSalesRow(record []string) (models.SalesRecord, error) {
	day, err := time.Parse(dayLayout, record[1])
	if err != nil {
		return models.SalesRecord{}, fmt.Errorf("invalid day %q: %w", record[1], err)
	}

	qty, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return models.SalesRecord{}, fmt.Errorf("invalid qty %q: %w", record[2], err)
	}

	price := 0.0
	if record[3] != "" {
		price, err = strconv.ParseFloat(record[3], 64)
		if err != nil {
			return models.SalesRecord{}, fmt.Errorf("invalid price %q: %w", record[3], err)
		}
	}

	return models.SalesRecord{
		SKU:   record[0],
		Day:   day,
		Qty:   qty,
		Price: price,
	}, nil
}

func validateHeader(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
