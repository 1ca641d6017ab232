package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/enerquant/backtest/config"
	"github.com/enerquant/backtest/internal/database"
	"github.com/enerquant/backtest/internal/dataset"
	"github.com/enerquant/backtest/internal/validate"
)

func newWalkForwardCmd(cfg *config.Config) *cobra.Command {
	var (
		csvPath      string
		modelName    string
		strategyName string
		evalFile     string
		noTrading    bool
		jsonOut      bool
	)

	cmd := &cobra.Command{
		Use:   "walkforward",
		Short: "Walk-forward validation of a model",
		Long: `Partitions the series into causally-ordered train/test folds, fits a
fresh model per fold and aggregates the out-of-sample metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			wfCfg := cfg.WalkForwardConfig()
			engineCfg := cfg.BacktestConfig()
			strat, err := strategyFromFlags(strategyName, cfg)
			if err != nil {
				return err
			}
			if evalFile != "" {
				profile, err := config.LoadEvalFile(evalFile)
				if err != nil {
					return err
				}
				wfCfg = profile.WalkForward
				engineCfg = profile.Backtest
				strat = profile.Strategy
			}

			points, err := loadPrices(cmd.Context(), cfg, csvPath)
			if err != nil {
				return err
			}
			factory, err := modelFactory(modelName, cfg)
			if err != nil {
				return err
			}

			validator, err := validate.New(wfCfg)
			if err != nil {
				return err
			}
			if !noTrading {
				validator, err = validator.WithTrading(strat, engineCfg)
				if err != nil {
					return err
				}
			}

			result, err := validator.Run(factory, dataset.Prices(points))
			if err != nil {
				return err
			}

			if cfg.DatabaseURL != "" {
				db, err := database.New(cfg.DatabaseURL)
				if err != nil {
					log.Warn().Err(err).Msg("Failed to open database")
				} else {
					defer db.Close()
					if err := db.SaveWalkForward(cfg.Symbol, engineCfg.InitialCapital, result); err != nil {
						log.Warn().Err(err).Msg("Failed to persist walk-forward run")
					}
				}
			}

			if jsonOut {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(result)
			}

			fmt.Printf("\n===== WALK-FORWARD RESULTS (%s) =====\n", modelName)
			fmt.Printf("Folds: %d (succeeded %d, failed %d)\n", result.Folds, result.Succeeded, result.Failed)

			names := make([]string, 0, len(result.Aggregated))
			for name := range result.Aggregated {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				stat := result.Aggregated[name]
				fmt.Printf("%-24s mean=%.4f std=%.4f (n=%d)\n", name, stat.Mean, stat.Std, stat.N)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Load prices from a timestamp,price CSV instead of the API")
	cmd.Flags().StringVar(&modelName, "model", "drift", "Baseline model (persistence|drift|ma)")
	cmd.Flags().StringVar(&strategyName, "strategy", "threshold", "Signal policy (threshold|momentum)")
	cmd.Flags().StringVar(&evalFile, "eval-file", "", "YAML evaluation profile overriding env configuration")
	cmd.Flags().BoolVar(&noTrading, "no-trading", false, "Skip trade simulation, report accuracy metrics only")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the full result as JSON")

	return cmd
}
