package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stockops/skucast/internal/loader"
	"github.com/stockops/skucast/internal/stockkpi"
)

func main() {
	productsPath := flag.String("products", "product_periods.csv", "path to the product period CSV")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	products, err := loader.LoadProductPeriods(*productsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load product periods")
	}

	m := stockkpi.NewMetrics(products)
	margin, marginPct := m.GrossMargin()

	fmt.Printf("\n===== INVENTORY KPI =====\n")
	fmt.Printf("Products:               %d\n", len(products))
	fmt.Printf("GMV:                    %s\n", m.GMV())
	fmt.Printf("Gross margin:           %s (%s%%)\n", margin, marginPct)
	fmt.Printf("Avg inventory cost:     %s\n", m.AverageInventoryCost())
	fmt.Printf("GMROI:                  %s\n", m.GMROI())
	fmt.Printf("Inventory turnover:     %s\n", m.InventoryTurnover())
	fmt.Printf("Turnover period (days): %s\n", m.TurnoverPeriod())
}
