package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/enerquant/backtest/config"
	"github.com/enerquant/backtest/internal/backtest"
	"github.com/enerquant/backtest/internal/database"
	"github.com/enerquant/backtest/internal/dataset"
	"github.com/enerquant/backtest/internal/forecast"
	"github.com/enerquant/backtest/internal/observability"
	"github.com/enerquant/backtest/models"
)

func newBacktestCmd(cfg *config.Config) *cobra.Command {
	var (
		csvPath      string
		modelName    string
		strategyName string
		warmup       int
		jsonOut      bool
	)

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Simulate trading a model's one-step forecasts",
		Long: `Fits the chosen baseline model in a rolling fashion, turns its one-step
forecasts into signals and simulates them with the configured costs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := loadPrices(cmd.Context(), cfg, csvPath)
			if err != nil {
				return err
			}
			prices := dataset.Prices(points)

			factory, err := modelFactory(modelName, cfg)
			if err != nil {
				return err
			}
			strat, err := strategyFromFlags(strategyName, cfg)
			if err != nil {
				return err
			}

			predictions, err := forecast.RollingForecast(factory, prices, warmup)
			if err != nil {
				observability.RecordRun("backtest", "failure")
				return fmt.Errorf("rolling forecast: %w", err)
			}

			engine, err := backtest.NewEngine(cfg.BacktestConfig())
			if err != nil {
				return err
			}
			result, err := engine.RunStrategy(predictions, prices[warmup:], strat)
			if err != nil {
				observability.RecordRun("backtest", "failure")
				return fmt.Errorf("running backtest: %w", err)
			}
			observability.RecordRun("backtest", "success")

			if cfg.DatabaseURL != "" {
				if err := saveBacktest(cfg, result); err != nil {
					log.Warn().Err(err).Msg("Failed to persist backtest run")
				}
			}

			if jsonOut {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(result)
			}
			fmt.Println(backtest.FormatResult(result))
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Load prices from a timestamp,price CSV instead of the API")
	cmd.Flags().StringVar(&modelName, "model", "drift", "Baseline model (persistence|drift|ma)")
	cmd.Flags().StringVar(&strategyName, "strategy", "threshold", "Signal policy (threshold|momentum)")
	cmd.Flags().IntVar(&warmup, "warmup", 30, "Observations reserved before the first forecast")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the full result as JSON")

	return cmd
}

func saveBacktest(cfg *config.Config, result *models.BacktestResult) error {
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.SaveBacktest(cfg.Symbol, result)
}
