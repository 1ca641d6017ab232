// Package metrics provides the stateless performance calculators used by the
// backtesting and validation layers: forecast-accuracy metrics over
// true/predicted series and risk metrics over equity curves and returns.
//
// Degenerate inputs (vanishing denominators, empty series) yield NaN rather
// than an error so a single undefined metric never aborts an evaluation.
// Callers aggregating across folds or models must filter NaN out first.
package metrics

import (
	"fmt"
	"math"

	"github.com/enerquant/backtest/models"
)

// Accuracy computes the full statistical forecast-accuracy report for a pair
// of equal-length series. Mismatched lengths are an error; the individual
// metric functions below assume already-aligned input.
func Accuracy(actual, predicted []float64) (models.PerformanceReport, error) {
	if len(actual) != len(predicted) {
		return nil, fmt.Errorf("actual and predicted have different lengths: %d vs %d", len(actual), len(predicted))
	}
	return models.PerformanceReport{
		"rmse":                 RMSE(actual, predicted),
		"mae":                  MAE(actual, predicted),
		"mape":                 MAPE(actual, predicted),
		"r2":                   RSquared(actual, predicted),
		"directional_accuracy": DirectionalAccuracy(actual, predicted),
	}, nil
}

// RMSE returns the root mean squared error
func RMSE(actual, predicted []float64) float64 {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return math.NaN()
	}
	var sum float64
	for i := range actual {
		diff := actual[i] - predicted[i]
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(actual)))
}

// MAE returns the mean absolute error
func MAE(actual, predicted []float64) float64 {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return math.NaN()
	}
	var sum float64
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual))
}

// MAPE returns the mean absolute percentage error. A zero actual value makes
// the metric undefined; its contribution is NaN, which propagates to the
// result instead of raising.
func MAPE(actual, predicted []float64) float64 {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return math.NaN()
	}
	var sum float64
	for i := range actual {
		if actual[i] == 0 {
			return math.NaN()
		}
		sum += math.Abs((actual[i] - predicted[i]) / actual[i])
	}
	return sum / float64(len(actual)) * 100
}

// RSquared returns the coefficient of determination. A constant actual series
// has SS_tot == 0, which makes the metric undefined (NaN), not an error.
func RSquared(actual, predicted []float64) float64 {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return math.NaN()
	}
	m := mean(actual)
	var ssRes, ssTot float64
	for i := range actual {
		res := actual[i] - predicted[i]
		ssRes += res * res
		tot := actual[i] - m
		ssTot += tot * tot
	}
	if ssTot == 0 {
		return math.NaN()
	}
	return 1 - ssRes/ssTot
}

// DirectionalAccuracy returns the fraction of consecutive steps where the
// predicted and actual moves share the same sign. Needs at least two points.
func DirectionalAccuracy(actual, predicted []float64) float64 {
	if len(actual) < 2 || len(actual) != len(predicted) {
		return math.NaN()
	}
	hits := 0
	for i := 1; i < len(actual); i++ {
		if sign(actual[i]-actual[i-1]) == sign(predicted[i]-predicted[i-1]) {
			hits++
		}
	}
	return float64(hits) / float64(len(actual)-1)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the sample standard deviation around a precomputed mean
func stdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sumSquaredDiff float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiff += diff * diff
	}
	return math.Sqrt(sumSquaredDiff / float64(len(values)-1))
}
