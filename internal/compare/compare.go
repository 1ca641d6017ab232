// Package compare benchmarks several candidate models under one evaluation
// protocol and ranks them on a chosen metric.
package compare

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/enerquant/backtest/internal/backtest"
	"github.com/enerquant/backtest/internal/metrics"
	"github.com/enerquant/backtest/internal/observability"
	"github.com/enerquant/backtest/internal/signal"
	"github.com/enerquant/backtest/internal/validate"
	"github.com/enerquant/backtest/models"
)

type candidate struct {
	label   string
	factory models.ModelFactory
}

// Comparison holds registered candidates in registration order. Registration
// order is the tie-break for best-model selection, so it is preserved
// end-to-end.
type Comparison struct {
	candidates []candidate
	// Parallelism bounds concurrent candidate evaluations; zero means one
	// worker per CPU. Candidates share no mutable state, but the model
	// factories must tolerate concurrent calls.
	Parallelism int
	logger      zerolog.Logger
}

// New creates an empty comparison
func New() *Comparison {
	return &Comparison{
		logger: log.With().Str("component", "model_comparison").Logger(),
	}
}

// Register adds a named candidate. Labels must be unique and non-empty.
func (c *Comparison) Register(label string, factory models.ModelFactory) error {
	if label == "" {
		return fmt.Errorf("candidate label must not be empty")
	}
	if factory == nil {
		return fmt.Errorf("candidate %q has a nil factory", label)
	}
	for _, existing := range c.candidates {
		if existing.label == label {
			return fmt.Errorf("candidate %q already registered", label)
		}
	}
	c.candidates = append(c.candidates, candidate{label: label, factory: factory})
	return nil
}

// Labels returns the registered labels in registration order
func (c *Comparison) Labels() []string {
	labels := make([]string, len(c.candidates))
	for i, cand := range c.candidates {
		labels[i] = cand.label
	}
	return labels
}

// EvaluateWalkForward drives every candidate through the same walk-forward
// protocol and ranks them on rankMetric. Candidates whose evaluation failed
// stay in the table with an error marker and are excluded from best-model
// selection; only a configuration that cannot produce a single fold fails
// the comparison as a whole.
func (c *Comparison) EvaluateWalkForward(ctx context.Context, data []float64, cfg validate.Config, rankMetric string) (*models.ComparisonResult, error) {
	if len(c.candidates) == 0 {
		return nil, fmt.Errorf("no candidates registered")
	}
	// Fold feasibility is model-independent: fail the whole run up front.
	if _, err := validate.GenerateFolds(len(data), cfg); err != nil {
		observability.RecordRun("comparison", "failure")
		return nil, err
	}

	results := make([]models.ModelResult, len(c.candidates))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(c.workers())
	for i, cand := range c.candidates {
		i, cand := i, cand
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = c.evaluateCandidate(cand, data, cfg)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		observability.RecordRun("comparison", "failure")
		return nil, err
	}

	result := &models.ComparisonResult{
		RunID:   uuid.NewString(),
		Metric:  rankMetric,
		Results: results,
	}
	result.Best = bestLabel(results, rankMetric)
	observability.RecordRun("comparison", "success")

	c.logger.Info().
		Str("run_id", result.RunID).
		Int("candidates", len(results)).
		Str("metric", rankMetric).
		Str("best", result.Best).
		Msg("Model comparison complete")

	return result, nil
}

// EvaluateSplit scores every candidate on one chronological train/test split
// and optionally on simulated trading of the test window.
func (c *Comparison) EvaluateSplit(ctx context.Context, data []float64, trainRatio float64, strat *signal.Strategy, engineCfg *backtest.Config, rankMetric string) (*models.ComparisonResult, error) {
	if len(c.candidates) == 0 {
		return nil, fmt.Errorf("no candidates registered")
	}
	train, test, err := validate.TrainTestSplit(data, trainRatio, 1-trainRatio)
	if err != nil {
		observability.RecordRun("comparison", "failure")
		return nil, err
	}

	results := make([]models.ModelResult, len(c.candidates))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(c.workers())
	for i, cand := range c.candidates {
		i, cand := i, cand
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = evaluateSplitCandidate(cand, train, test, strat, engineCfg)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		observability.RecordRun("comparison", "failure")
		return nil, err
	}

	result := &models.ComparisonResult{
		RunID:   uuid.NewString(),
		Metric:  rankMetric,
		Results: results,
	}
	result.Best = bestLabel(results, rankMetric)
	observability.RecordRun("comparison", "success")
	return result, nil
}

func (c *Comparison) workers() int {
	if c.Parallelism > 0 {
		return c.Parallelism
	}
	return runtime.NumCPU()
}

// evaluateCandidate runs one candidate through walk-forward validation and
// flattens the aggregated metrics into its comparison row (mean under the
// metric name, spread under a _std suffix)
func (c *Comparison) evaluateCandidate(cand candidate, data []float64, cfg validate.Config) models.ModelResult {
	row := models.ModelResult{Label: cand.label}

	validator, err := validate.New(cfg)
	if err != nil {
		row.Error = err.Error()
		return row
	}
	wf, err := validator.Run(cand.factory, data)
	if err != nil {
		row.Error = err.Error()
		return row
	}
	if wf.Succeeded == 0 {
		row.Error = fmt.Sprintf("all %d folds failed", wf.Folds)
		return row
	}

	report := models.PerformanceReport{}
	for name, stat := range wf.Aggregated {
		report[name] = stat.Mean
		report[name+"_std"] = stat.Std
	}
	row.Metrics = report
	return row
}

func evaluateSplitCandidate(cand candidate, train, test []float64, strat *signal.Strategy, engineCfg *backtest.Config) (row models.ModelResult) {
	row = models.ModelResult{Label: cand.label}

	defer func() {
		if r := recover(); r != nil {
			row.Metrics = nil
			row.Error = fmt.Sprintf("model panic: %v", r)
		}
	}()

	model := cand.factory()
	if model == nil {
		row.Error = "model factory returned nil"
		return row
	}
	if err := model.Fit(train); err != nil {
		row.Error = fmt.Sprintf("fit: %v", err)
		return row
	}
	predictions, err := model.Predict(len(test))
	if err != nil {
		row.Error = fmt.Sprintf("predict: %v", err)
		return row
	}

	report, err := metrics.Accuracy(test, predictions)
	if err != nil {
		row.Error = fmt.Sprintf("evaluate: %v", err)
		return row
	}

	if strat != nil && engineCfg != nil {
		engine, err := backtest.NewEngine(*engineCfg)
		if err != nil {
			row.Error = fmt.Sprintf("engine: %v", err)
			return row
		}
		simulated, err := engine.RunStrategy(predictions, test, *strat)
		if err != nil {
			row.Error = fmt.Sprintf("backtest: %v", err)
			return row
		}
		for name, value := range simulated.Metrics {
			report[name] = value
		}
	}

	row.Metrics = report
	return row
}

// lowerIsBetter encodes metric polarity: error magnitudes are minimized,
// everything else (ratios, returns, accuracies) is maximized. max_drawdown
// is reported non-positive, so maximizing it prefers the shallowest decline.
func lowerIsBetter(metric string) bool {
	switch metric {
	case "rmse", "mae", "mape", "volatility", "average_loss",
		"losing_trades", "max_consecutive_losses":
		return true
	}
	return false
}

// bestLabel picks the winner in registration order with strict-improvement
// comparison, so ties go to the earliest registered candidate. Failed rows
// and NaN values never win. Returns "" when nothing qualifies.
func bestLabel(results []models.ModelResult, metric string) string {
	best := ""
	bestValue := 0.0
	minimize := lowerIsBetter(metric)

	for _, row := range results {
		if row.Error != "" {
			continue
		}
		value, ok := row.Metrics[metric]
		if !ok || math.IsNaN(value) || math.IsInf(value, 0) {
			continue
		}
		if best == "" {
			best, bestValue = row.Label, value
			continue
		}
		if (minimize && value < bestValue) || (!minimize && value > bestValue) {
			best, bestValue = row.Label, value
		}
	}
	return best
}
