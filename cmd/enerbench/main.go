package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/enerquant/backtest/config"
	"github.com/enerquant/backtest/internal/api/eia"
	"github.com/enerquant/backtest/internal/dataset"
	"github.com/enerquant/backtest/internal/forecast"
	"github.com/enerquant/backtest/internal/signal"
	"github.com/enerquant/backtest/models"
)

const (
	appName = "enerbench"
	version = "v1.3.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Backtesting and walk-forward evaluation for energy price forecasts",
		Version: version,
		Long: appName + ` scores forecasting models against realistic trading
economics: signal generation, trade simulation with costs, risk metrics and
leakage-safe walk-forward validation.`,
	}

	rootCmd.AddCommand(newBacktestCmd(cfg))
	rootCmd.AddCommand(newWalkForwardCmd(cfg))
	rootCmd.AddCommand(newCompareCmd(cfg))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadPrices reads price history from a CSV file when one is given, else
// from the EIA API
func loadPrices(ctx context.Context, cfg *config.Config, csvPath string) ([]models.PricePoint, error) {
	if csvPath != "" {
		points, err := dataset.LoadCSV(csvPath)
		if err != nil {
			return nil, fmt.Errorf("loading prices from %s: %w", csvPath, err)
		}
		return points, nil
	}

	if cfg.EIAAPIKey == "" {
		return nil, fmt.Errorf("no CSV path given and EIA_API_KEY is not set")
	}

	client := eia.NewClient(eia.ClientOptions{
		APIKey:         cfg.EIAAPIKey,
		RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
	})
	points, err := client.GetPrices(ctx, cfg.Symbol, cfg.PriceCount)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", cfg.Symbol, err)
	}
	if err := dataset.Validate(points); err != nil {
		return nil, fmt.Errorf("validating %s: %w", cfg.Symbol, err)
	}
	return points, nil
}

// modelFactory resolves a model name to one of the built-in baselines
func modelFactory(name string, cfg *config.Config) (models.ModelFactory, error) {
	switch name {
	case "persistence":
		return forecast.NewPersistence(), nil
	case "drift":
		return forecast.NewDrift(), nil
	case "ma":
		return forecast.NewMovingAverage(cfg.MomentumWindow), nil
	}
	return nil, fmt.Errorf("unknown model %q (want persistence, drift or ma)", name)
}

// strategyFromFlags builds the signal policy from the strategy name and the
// configured threshold/window
func strategyFromFlags(name string, cfg *config.Config) (signal.Strategy, error) {
	switch name {
	case "threshold":
		return signal.Strategy{Kind: signal.Threshold, Threshold: cfg.Threshold}, nil
	case "momentum":
		return signal.Strategy{Kind: signal.Momentum, Threshold: cfg.Threshold, Window: cfg.MomentumWindow}, nil
	}
	return signal.Strategy{}, fmt.Errorf("unknown strategy %q (want threshold or momentum)", name)
}
