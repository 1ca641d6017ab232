package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/enerquant/backtest/config"
	"github.com/enerquant/backtest/internal/compare"
	"github.com/enerquant/backtest/internal/dataset"
)

func newCompareCmd(cfg *config.Config) *cobra.Command {
	var (
		csvPath    string
		rankMetric string
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Benchmark the baseline models against each other",
		Long: `Runs every baseline model through the same walk-forward protocol and
ranks them on the chosen metric.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := loadPrices(cmd.Context(), cfg, csvPath)
			if err != nil {
				return err
			}

			c := compare.New()
			for _, name := range []string{"persistence", "drift", "ma"} {
				factory, err := modelFactory(name, cfg)
				if err != nil {
					return err
				}
				if err := c.Register(name, factory); err != nil {
					return err
				}
			}

			result, err := c.EvaluateWalkForward(cmd.Context(), dataset.Prices(points), cfg.WalkForwardConfig(), rankMetric)
			if err != nil {
				return err
			}

			if jsonOut {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(result)
			}

			fmt.Printf("\n===== MODEL COMPARISON (%s) =====\n", rankMetric)
			for _, row := range result.Results {
				if row.Error != "" {
					fmt.Printf("%-16s ERROR: %s\n", row.Label, row.Error)
					continue
				}
				value := row.Metrics[rankMetric]
				if math.IsNaN(value) {
					fmt.Printf("%-16s %s: n/a\n", row.Label, rankMetric)
					continue
				}
				fmt.Printf("%-16s %s: %.4f\n", row.Label, rankMetric, value)
			}
			if result.Best != "" {
				fmt.Printf("\nBest model: %s\n", result.Best)
			} else {
				fmt.Println("\nNo model evaluated successfully")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Load prices from a timestamp,price CSV instead of the API")
	cmd.Flags().StringVar(&rankMetric, "metric", "rmse", "Metric to rank models on")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the full result as JSON")

	return cmd
}
