package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stockops/skucast/internal/api/sales"
	"github.com/stockops/skucast/internal/config"
	"github.com/stockops/skucast/internal/database"
	"github.com/stockops/skucast/internal/dataset"
	"github.com/stockops/skucast/internal/evaluation"
	"github.com/stockops/skucast/internal/features"
	"github.com/stockops/skucast/internal/forecast"
	"github.com/stockops/skucast/internal/loader"
	"github.com/stockops/skucast/internal/notify"
	"github.com/stockops/skucast/models"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}
}

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	salesPath := flag.String("sales", "", "path to a sales CSV (overrides the sales API)")
	modelTag := flag.String("tag", "baseline", "model tag stored with the report")
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

	ctx := context.Background()

	records, err := loadSales(ctx, cfg, *salesPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load sales history")
	}
	log.Info().Int("rows", len(records)).Msg("Sales history loaded")

	train, test := forecast.SplitTrainTest(records, cfg.Forecast.TestDays)
	if len(train) == 0 || len(test) == 0 {
		log.Fatal().
			Int("train", len(train)).
			Int("test", len(test)).
			Msg("Not enough history for the configured test period")
	}

	trainFrame := features.NewSKUFrame(train)
	if err := trainFrame.AddFeatures(cfg.FeatureSpecs()); err != nil {
		log.Fatal().Err(err).Msg("Feature engineering failed")
	}
	if err := trainFrame.AddTargets(cfg.TargetSpecs()); err != nil {
		log.Fatal().Err(err).Msg("Target engineering failed")
	}

	model := forecast.NewMultiTargetModel(cfg.Forecast.Horizons, cfg.Forecast.Quantiles)
	if err := model.Fit(trainFrame); err != nil {
		log.Fatal().Err(err).Msg("Model fitting failed")
	}

	testFrame := features.NewSKUFrame(test)
	if err := testFrame.AddTargets(cfg.TargetSpecs()); err != nil {
		log.Fatal().Err(err).Msg("Target engineering failed on test period")
	}

	preds, err := model.Predict(testFrame)
	if err != nil {
		log.Fatal().Err(err).Msg("Prediction failed")
	}

	combined, err := combineForEvaluation(testFrame, preds, cfg.Forecast.Horizons)
	if err != nil {
		log.Fatal().Err(err).Msg("Assembling evaluation tables failed")
	}

	report, err := evaluation.EvaluateModel(combined, combined, cfg.Forecast.Quantiles, cfg.Forecast.Horizons)
	if err != nil {
		log.Fatal().Err(err).Msg("Evaluation failed")
	}
	report.ModelTag = *modelTag

	printReport(report)

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

		stored, err := db.SaveReport(report, *modelTag)
		if err != nil {
			log.Error().Err(err).Msg("Failed to store report")
		} else {
			log.Info().Str("run_id", stored.RunID).Msg("Report stored")
		}
	}

	if cfg.Telegram.Enabled {
		notifier, err := notify.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize notifier")
		} else if err := notifier.SendEvaluationReport(report); err != nil {
			log.Error().Err(err).Msg("Failed to send report")
		}
	}
}

func loadSales(ctx context.Context, cfg *config.Config, salesPath string) ([]models.SalesRecord, error) {
	if salesPath != "" {
		return loader.LoadSales(salesPath)
	}
	if cfg.SalesAPI.Enabled {
		var client models.SalesClient = sales.NewClient(sales.ClientOptions{
			APIKey:         cfg.SalesAPI.APIKey,
			BaseURL:        cfg.SalesAPI.BaseURL,
			RequestTimeout: 30 * time.Second,
		})
		return client.GetDailySales(ctx, cfg.SalesAPI.Days)
	}
	return nil, fmt.Errorf("no sales source: pass -sales or enable the sales API")
}

// combineForEvaluation merges the test-period targets and the prediction
// columns into one row-aligned table and drops rows without a full target
// horizon, so truth and predictions stay aligned.
func combineForEvaluation(testFrame *features.SKUFrame, preds *dataset.Table, horizons []int) (*dataset.Table, error) {
	targetNames := make([]string, 0, len(horizons))
	for _, h := range horizons {
		targetNames = append(targetNames, dataset.TargetColumn(h))
	}

	combined, err := testFrame.Table(targetNames...)
	if err != nil {
		return nil, err
	}
	for _, name := range preds.Names() {
		col, err := preds.Column(name)
		if err != nil {
			return nil, err
		}
		if err := combined.AddColumn(name, col); err != nil {
			return nil, err
		}
	}
	return combined.DropNaNRows(), nil
}

func printReport(report *models.EvaluationReport) {
	fmt.Printf("\n===== QUANTILE LOSS REPORT =====\n")
	fmt.Printf("%-10s %-9s %s\n", "quantile", "horizon", "avg_quantile_loss")
	for _, row := range report.Rows {
		fmt.Printf("%-10.2f %-9s %.4f\n", row.Quantile, fmt.Sprintf("%dd", row.Horizon), row.AvgQuantileLoss)
	}
}
