package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stockops/skucast/internal/config"
	"github.com/stockops/skucast/internal/database"
	"github.com/stockops/skucast/internal/notify"
	"github.com/stockops/skucast/internal/restock"
	"github.com/stockops/skucast/models"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}
}

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	productsPath := flag.String("products", "products.json", "path to the product catalog JSON")
	budget := flag.Float64("budget", 0, "replenishment budget")
	weeks := flag.Int("weeks", 1, "forecast horizon in weeks (1-4)")
	goal := flag.String("goal", "profit", "optimization goal: profit or revenue")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	lvl, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	products, err := restock.LoadCatalog(*productsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load product catalog")
	}
	log.Info().Int("products", len(products)).Msg("Catalog loaded")

	allocations, err := restock.Allocate(products, *budget, *weeks, restock.Goal(*goal))
	if err != nil {
		log.Fatal().Err(err).Msg("Allocation failed")
	}
	if len(allocations) == 0 {
		log.Warn().Msg("Nothing to restock: every SKU is covered or the budget is too small")
		return
	}

	printAllocations(allocations)

	if cfg.Storage.Enabled {
		db, err := database.New(database.ConnectionParams{
			Host:     cfg.Storage.Host,
			Port:     cfg.Storage.Port,
			User:     cfg.Storage.User,
			Password: cfg.Storage.Password,
			DBName:   cfg.Storage.DBName,
			SSLMode:  cfg.Storage.SSLMode,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		runID, err := db.SaveAllocations(allocations)
		if err != nil {
			log.Error().Err(err).Msg("Failed to store allocations")
		} else {
			log.Info().Str("run_id", runID).Msg("Allocations stored")
		}
	}

	if cfg.Telegram.Enabled {
		notifier, err := notify.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize notifier")
		} else if err := notifier.SendAllocations(allocations); err != nil {
			log.Error().Err(err).Msg("Failed to send recommendation")
		}
	}
}

func printAllocations(allocations []models.Allocation) {
	fmt.Printf("\n===== RESTOCK RECOMMENDATION =====\n")
	fmt.Printf("%-10s %-5s %-6s %-12s %-12s %s\n",
		"sku", "pct", "qty", "budget", "profit", "revenue")

	var totalBudget, totalProfit float64
	for _, a := range allocations {
		fmt.Printf("%-10s %-5d %-6d %-12.2f %-12.2f %.2f\n",
			a.SKU, a.Percentile, a.AllocatedQty, a.AllocatedBudget, a.ExpectedProfit, a.ExpectedRevenue)
		totalBudget += a.AllocatedBudget
		totalProfit += a.ExpectedProfit
	}
	fmt.Printf("\nTotal spend: %.2f\nExpected profit: %.2f\n", totalBudget, totalProfit)
}
