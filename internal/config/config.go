// Package config loads the pipeline configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"math"

	"github.com/spf13/viper"

	"github.com/stockops/skucast/internal/dataset"
	"github.com/stockops/skucast/internal/features"
)

// Config represents the complete application configuration
type Config struct {
	Forecast ForecastConfig `mapstructure:"forecast"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	SalesAPI SalesAPIConfig `mapstructure:"sales_api"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ForecastConfig holds the evaluation grid and feature engineering setup
type ForecastConfig struct {
	Quantiles []float64       `mapstructure:"quantiles"`
	Horizons  []int           `mapstructure:"horizons"`
	TestDays  int             `mapstructure:"test_days"`
	Features  []FeatureConfig `mapstructure:"features"`
}

// FeatureConfig describes one rolling feature column
type FeatureConfig struct {
	Name       string `mapstructure:"name"`
	Column     string `mapstructure:"column"`
	WindowDays int    `mapstructure:"window_days"`
	Agg        string `mapstructure:"agg"`
	Percentile int    `mapstructure:"percentile"`
}

// StorageConfig holds Postgres connection settings for report persistence
type StorageConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// SalesAPIConfig holds the sales history API configuration
type SalesAPIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Days    int    `mapstructure:"days"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from file and environment variables. An empty
// path loads defaults and environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("SKUCAST")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("forecast.quantiles", []float64{0.1, 0.5, 0.9})
	v.SetDefault("forecast.horizons", []int{7, 14, 21})
	v.SetDefault("forecast.test_days", 30)

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.host", "localhost")
	v.SetDefault("storage.port", "5432")
	v.SetDefault("storage.user", "skucast")
	v.SetDefault("storage.dbname", "skucast")
	v.SetDefault("storage.sslmode", "disable")

	v.SetDefault("telegram.enabled", false)

	v.SetDefault("sales_api.enabled", false)
	v.SetDefault("sales_api.days", 180)

	v.SetDefault("logging.level", "info")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if len(c.Forecast.Quantiles) == 0 {
		return fmt.Errorf("forecast.quantiles must contain at least one quantile")
	}
	for _, q := range c.Forecast.Quantiles {
		if q <= 0 || q >= 1 {
			return fmt.Errorf("forecast.quantiles: %g is not strictly between 0 and 1", q)
		}
	}
	if len(c.Forecast.Horizons) == 0 {
		return fmt.Errorf("forecast.horizons must contain at least one horizon")
	}
	for _, h := range c.Forecast.Horizons {
		if h <= 0 {
			return fmt.Errorf("forecast.horizons: %d is not a positive number of days", h)
		}
	}
	if c.Forecast.TestDays < 1 {
		return fmt.Errorf("forecast.test_days must be at least 1")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	if c.SalesAPI.Enabled && c.SalesAPI.BaseURL == "" {
		return fmt.Errorf("sales_api.base_url is required when the sales API is enabled")
	}

	return nil
}

// FeatureSpecs translates the configured features into engineering specs.
// With no features configured, a default grid of trailing averages and
// quantiles over each horizon is generated, mirroring the evaluation grid.
func (c *Config) FeatureSpecs() []features.FeatureSpec {
	if len(c.Forecast.Features) > 0 {
		specs := make([]features.FeatureSpec, 0, len(c.Forecast.Features))
		for _, f := range c.Forecast.Features {
			specs = append(specs, features.FeatureSpec{
				Name:         f.Name,
				SourceColumn: f.Column,
				WindowDays:   f.WindowDays,
				Agg:          features.Aggregation(f.Agg),
				Percentile:   f.Percentile,
			})
		}
		return specs
	}

	var specs []features.FeatureSpec
	for _, h := range c.Forecast.Horizons {
		specs = append(specs, features.FeatureSpec{
			Name:         fmt.Sprintf("qty_%dd_avg", h),
			SourceColumn: "qty",
			WindowDays:   h,
			Agg:          features.AggAvg,
		})
		for _, q := range c.Forecast.Quantiles {
			perc := int(math.Round(q * 100))
			specs = append(specs, features.FeatureSpec{
				Name:         fmt.Sprintf("qty_%dd_q%d", h, perc),
				SourceColumn: "qty",
				WindowDays:   h,
				Agg:          features.AggQuantile,
				Percentile:   perc,
			})
		}
	}
	return specs
}

// TargetSpecs derives the next_{d}d target columns from the horizon grid.
func (c *Config) TargetSpecs() []features.TargetSpec {
	specs := make([]features.TargetSpec, 0, len(c.Forecast.Horizons))
	for _, h := range c.Forecast.Horizons {
		specs = append(specs, features.TargetSpec{
			Name:         dataset.TargetColumn(h),
			SourceColumn: "qty",
			HorizonDays:  h,
		})
	}
	return specs
}
