// Package config loads runtime configuration from the environment and from
// YAML evaluation files.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/enerquant/backtest/internal/backtest"
	"github.com/enerquant/backtest/internal/signal"
	"github.com/enerquant/backtest/internal/validate"
)

// Config holds all application configuration
type Config struct {
	EIAAPIKey      string  `env:"EIA_API_KEY" envDefault:"-"`
	Symbol         string  `env:"SYMBOL" envDefault:"PET.RWTC.D"` // WTI spot, daily
	DataPath       string  `env:"DATA_PATH" envDefault:""`
	DatabaseURL    string  `env:"DATABASE_URL" envDefault:""`
	LogLevel       string  `env:"LOG_LEVEL" envDefault:"info"`
	PriceCount     int     `env:"PRICE_COUNT" envDefault:"500"`
	RequestTimeout int     `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds
	InitialCapital float64 `env:"INITIAL_CAPITAL" envDefault:"10000"`
	Commission     float64 `env:"COMMISSION" envDefault:"0.001"`
	Slippage       float64 `env:"SLIPPAGE" envDefault:"0.0005"`
	RiskFree       float64 `env:"RISK_FREE" envDefault:"0"`
	PeriodsPerYear float64 `env:"PERIODS_PER_YEAR" envDefault:"252"`
	Threshold      float64 `env:"SIGNAL_THRESHOLD" envDefault:"0.01"`
	MomentumWindow int     `env:"MOMENTUM_WINDOW" envDefault:"5"`
	TrainWindow    int     `env:"TRAIN_WINDOW" envDefault:"100"`
	TestWindow     int     `env:"TEST_WINDOW" envDefault:"20"`
	StepSize       int     `env:"STEP_SIZE" envDefault:"20"`
	Expanding      bool    `env:"EXPANDING" envDefault:"true"`
	Gap            int     `env:"GAP" envDefault:"0"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.EIAAPIKey = os.Getenv("EIA_API_KEY")
	cfg.Symbol = getEnvWithDefault("SYMBOL", "PET.RWTC.D")
	cfg.DataPath = os.Getenv("DATA_PATH")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.PriceCount = getEnvIntWithDefault("PRICE_COUNT", 500)
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.InitialCapital = getEnvFloatWithDefault("INITIAL_CAPITAL", 10000)
	cfg.Commission = getEnvFloatWithDefault("COMMISSION", 0.001)
	cfg.Slippage = getEnvFloatWithDefault("SLIPPAGE", 0.0005)
	cfg.RiskFree = getEnvFloatWithDefault("RISK_FREE", 0)
	cfg.PeriodsPerYear = getEnvFloatWithDefault("PERIODS_PER_YEAR", 252)
	cfg.Threshold = getEnvFloatWithDefault("SIGNAL_THRESHOLD", 0.01)
	cfg.MomentumWindow = getEnvIntWithDefault("MOMENTUM_WINDOW", 5)
	cfg.TrainWindow = getEnvIntWithDefault("TRAIN_WINDOW", 100)
	cfg.TestWindow = getEnvIntWithDefault("TEST_WINDOW", 20)
	cfg.StepSize = getEnvIntWithDefault("STEP_SIZE", 20)
	cfg.Expanding = getEnvBoolWithDefault("EXPANDING", true)
	cfg.Gap = getEnvIntWithDefault("GAP", 0)

	return &cfg, nil
}

// BacktestConfig derives the engine configuration
func (c *Config) BacktestConfig() backtest.Config {
	return backtest.Config{
		InitialCapital: c.InitialCapital,
		Commission:     c.Commission,
		Slippage:       c.Slippage,
		RiskFree:       c.RiskFree,
		PeriodsPerYear: c.PeriodsPerYear,
	}
}

// WalkForwardConfig derives the fold configuration
func (c *Config) WalkForwardConfig() validate.Config {
	return validate.Config{
		TrainWindow: c.TrainWindow,
		TestWindow:  c.TestWindow,
		StepSize:    c.StepSize,
		Expanding:   c.Expanding,
		Gap:         c.Gap,
	}
}

// EvalFile is a YAML evaluation profile overriding the environment defaults
// for one run
type EvalFile struct {
	Strategy    signal.Strategy `yaml:"strategy"`
	Backtest    backtest.Config `yaml:"backtest"`
	WalkForward validate.Config `yaml:"walk_forward"`
	Split       struct {
		Train float64 `yaml:"train"`
		Test  float64 `yaml:"test"`
	} `yaml:"split"`
}

// LoadEvalFile parses and validates a YAML evaluation profile
func LoadEvalFile(path string) (*EvalFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var file EvalFile
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := file.Strategy.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := file.Backtest.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := file.WalkForward.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &file, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
