// Package validate implements leakage-safe walk-forward validation: a model
// is repeatedly trained on a past window and scored on a strictly later one,
// and the per-fold metrics are aggregated into an out-of-sample estimate.
package validate

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/enerquant/backtest/internal/backtest"
	"github.com/enerquant/backtest/internal/metrics"
	"github.com/enerquant/backtest/internal/observability"
	"github.com/enerquant/backtest/internal/signal"
	"github.com/enerquant/backtest/models"
)

// ErrInsufficientData is returned when the series cannot produce a single
// fold under the configured windows.
var ErrInsufficientData = errors.New("insufficient data for walk-forward validation")

// Config controls fold generation. TrainWindow is the training size (the
// minimum size in expanding mode), Gap is an optional embargo between the
// training and test windows.
type Config struct {
	TrainWindow int  `yaml:"train_window"`
	TestWindow  int  `yaml:"test_window"`
	StepSize    int  `yaml:"step_size"`
	Expanding   bool `yaml:"expanding"`
	Gap         int  `yaml:"gap"`
}

// Validate rejects window configurations before any fold is generated
func (c Config) Validate() error {
	if c.TrainWindow < 1 {
		return fmt.Errorf("train window must be at least 1, got %d", c.TrainWindow)
	}
	if c.TestWindow < 1 {
		return fmt.Errorf("test window must be at least 1, got %d", c.TestWindow)
	}
	if c.StepSize < 1 {
		return fmt.Errorf("step size must be at least 1, got %d", c.StepSize)
	}
	if c.Gap < 0 {
		return fmt.Errorf("gap must be non-negative, got %d", c.Gap)
	}
	return nil
}

// GenerateFolds partitions n ordered observations into causally-ordered
// train/test folds. In expanding mode the training range always starts at 0
// and grows by StepSize per fold; in rolling mode a fixed-width training
// window advances. For every fold Train.End + Gap <= Test.Start holds, and
// folds come back in chronological order.
func GenerateFolds(n int, cfg Config) ([]models.Fold, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid walk-forward config: %w", err)
	}

	var folds []models.Fold
	for k := 0; ; k++ {
		trainEnd := cfg.TrainWindow + k*cfg.StepSize
		trainStart := trainEnd - cfg.TrainWindow
		if cfg.Expanding {
			trainStart = 0
		}
		testStart := trainEnd + cfg.Gap
		testEnd := testStart + cfg.TestWindow
		if testEnd >= n {
			break
		}
		folds = append(folds, models.Fold{
			Index: k,
			Train: models.Range{Start: trainStart, End: trainEnd},
			Test:  models.Range{Start: testStart, End: testEnd},
		})
	}

	if len(folds) == 0 {
		return nil, fmt.Errorf("%w: %d points with train=%d gap=%d test=%d",
			ErrInsufficientData, n, cfg.TrainWindow, cfg.Gap, cfg.TestWindow)
	}
	return folds, nil
}

// Validator drives a model through fit/predict/evaluate per fold. When a
// trading strategy and engine config are attached, each fold's predictions
// are additionally run through the simulation engine so the fold report
// carries financial metrics next to the accuracy metrics.
type Validator struct {
	cfg       Config
	strategy  *signal.Strategy
	engineCfg backtest.Config
	logger    zerolog.Logger
}

// New creates a validator for the given fold configuration
func New(cfg Config) (*Validator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid walk-forward config: %w", err)
	}
	return &Validator{
		cfg:    cfg,
		logger: log.With().Str("component", "walkforward").Logger(),
	}, nil
}

// WithTrading attaches a strategy and engine config so every fold is also
// scored on simulated trading economics
func (v *Validator) WithTrading(strat signal.Strategy, engineCfg backtest.Config) (*Validator, error) {
	if err := strat.Validate(); err != nil {
		return nil, fmt.Errorf("invalid strategy: %w", err)
	}
	if err := engineCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest config: %w", err)
	}
	v.strategy = &strat
	v.engineCfg = engineCfg
	return v, nil
}

// Run evaluates the model factory over every fold of the series. A fold
// whose fit or predict fails is recorded with an error marker and excluded
// from aggregation; the run only fails as a whole when not a single fold can
// be generated.
func (v *Validator) Run(factory models.ModelFactory, data []float64) (*models.WalkForwardResult, error) {
	folds, err := GenerateFolds(len(data), v.cfg)
	if err != nil {
		observability.RecordRun("walk_forward", "failure")
		return nil, err
	}

	result := &models.WalkForwardResult{
		RunID:   uuid.NewString(),
		Folds:   len(folds),
		Results: make([]models.FoldResult, 0, len(folds)),
	}

	for _, fold := range folds {
		foldResult := v.evaluateFold(factory, data, fold)
		if foldResult.Failed() {
			result.Failed++
			observability.RecordFold("failure")
			v.logger.Warn().
				Int("fold", fold.Index).
				Str("error", foldResult.Error).
				Msg("Fold evaluation failed")
		} else {
			result.Succeeded++
			observability.RecordFold("success")
		}
		result.Results = append(result.Results, foldResult)
	}

	result.Aggregated = aggregate(result.Results)
	observability.RecordRun("walk_forward", "success")

	v.logger.Info().
		Str("run_id", result.RunID).
		Int("folds", result.Folds).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("Walk-forward validation complete")

	return result, nil
}

// evaluateFold trains a fresh model on the fold's training slice and scores
// its predictions over the test slice. Panics from a model implementation
// are converted into the fold's error marker.
func (v *Validator) evaluateFold(factory models.ModelFactory, data []float64, fold models.Fold) (result models.FoldResult) {
	result = models.FoldResult{Fold: fold}

	defer func() {
		if r := recover(); r != nil {
			result.Metrics = nil
			result.Error = fmt.Sprintf("model panic: %v", r)
		}
	}()

	model := factory()
	if model == nil {
		result.Error = "model factory returned nil"
		return result
	}

	train := data[fold.Train.Start:fold.Train.End]
	if err := model.Fit(train); err != nil {
		result.Error = fmt.Sprintf("fit: %v", err)
		return result
	}

	predictions, err := model.Predict(fold.Test.Len())
	if err != nil {
		result.Error = fmt.Sprintf("predict: %v", err)
		return result
	}
	if len(predictions) != fold.Test.Len() {
		result.Error = fmt.Sprintf("predict returned %d values, want %d", len(predictions), fold.Test.Len())
		return result
	}

	actual := data[fold.Test.Start:fold.Test.End]
	report, err := metrics.Accuracy(actual, predictions)
	if err != nil {
		result.Error = fmt.Sprintf("evaluate: %v", err)
		return result
	}

	if v.strategy != nil {
		engine, err := backtest.NewEngine(v.engineCfg)
		if err != nil {
			result.Error = fmt.Sprintf("engine: %v", err)
			return result
		}
		simulated, err := engine.RunStrategy(predictions, actual, *v.strategy)
		if err != nil {
			result.Error = fmt.Sprintf("backtest: %v", err)
			return result
		}
		for name, value := range simulated.Metrics {
			report[name] = value
		}
	}

	result.Metrics = report
	return result
}

// aggregate reduces per-fold metrics to mean/std over the succeeded folds,
// dropping NaN values per metric before reduction
func aggregate(results []models.FoldResult) map[string]models.AggregateStat {
	values := map[string][]float64{}
	for _, r := range results {
		if r.Failed() {
			continue
		}
		for name, v := range r.Metrics {
			values[name] = append(values[name], v)
		}
	}

	aggregated := make(map[string]models.AggregateStat, len(values))
	for name, vs := range values {
		aggregated[name] = metrics.Aggregate(vs)
	}
	return aggregated
}
