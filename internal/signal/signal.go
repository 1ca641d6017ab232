// Package signal turns model predictions into discrete trading decisions.
package signal

import (
	"errors"
	"fmt"

	"github.com/enerquant/backtest/models"
)

// Kind selects the signal policy
type Kind string

const (
	Threshold Kind = "threshold"
	Momentum  Kind = "momentum"
	Custom    Kind = "custom"
)

// CustomFunc is a caller-supplied per-step policy. It must be a pure function
// of its inputs; window is nil when the strategy carries no window.
type CustomFunc func(prediction, price float64, window []float64) models.Signal

// Strategy is the tagged policy variant dispatched by Generate. Kind decides
// which fields are read: Threshold uses Threshold, Momentum uses Threshold
// and Window, Custom uses Fn (and Window when positive).
type Strategy struct {
	Kind      Kind       `yaml:"kind"`
	Threshold float64    `yaml:"threshold"`
	Window    int        `yaml:"window"`
	Fn        CustomFunc `yaml:"-"`
}

var (
	// ErrLengthMismatch is returned when predictions and prices differ in
	// length. Truncation is never done here; callers that want it must align
	// the series explicitly before calling.
	ErrLengthMismatch = errors.New("predictions and prices have different lengths")
)

// Validate checks the strategy configuration before any signal is generated
func (s Strategy) Validate() error {
	switch s.Kind {
	case Threshold:
		if s.Threshold < 0 {
			return fmt.Errorf("threshold must be non-negative, got %f", s.Threshold)
		}
	case Momentum:
		if s.Threshold < 0 {
			return fmt.Errorf("threshold must be non-negative, got %f", s.Threshold)
		}
		if s.Window < 1 {
			return fmt.Errorf("momentum window must be at least 1, got %d", s.Window)
		}
	case Custom:
		if s.Fn == nil {
			return errors.New("custom strategy requires a function")
		}
	default:
		return fmt.Errorf("unknown strategy kind %q", s.Kind)
	}
	return nil
}

// Generate maps each prediction/price pair to a signal. The output always has
// the same length as the inputs.
func Generate(predictions, prices []float64, strat Strategy) ([]models.Signal, error) {
	if len(predictions) != len(prices) {
		return nil, fmt.Errorf("%w: %d predictions vs %d prices", ErrLengthMismatch, len(predictions), len(prices))
	}
	if err := strat.Validate(); err != nil {
		return nil, fmt.Errorf("invalid strategy: %w", err)
	}

	signals := make([]models.Signal, len(prices))
	for t := range prices {
		signals[t] = step(predictions[t], prices[t], trailingWindow(prices, t, strat.Window), strat)
	}
	return signals, nil
}

// trailingWindow returns the realized prices strictly before index t, at most
// size long. Returns nil when the window is disabled or not yet full.
func trailingWindow(prices []float64, t, size int) []float64 {
	if size < 1 || t < size {
		return nil
	}
	return prices[t-size : t]
}

func step(prediction, price float64, window []float64, strat Strategy) models.Signal {
	switch strat.Kind {
	case Threshold:
		return thresholdSignal(prediction, price, strat.Threshold)
	case Momentum:
		return momentumSignal(prediction, price, window, strat.Threshold)
	case Custom:
		return strat.Fn(prediction, price, window)
	}
	return models.Flat
}

// thresholdSignal goes long when the predicted edge exceeds the threshold and
// short when it falls below the negated threshold. Strict inequality only, so
// an edge exactly at the boundary stays flat.
func thresholdSignal(prediction, price, threshold float64) models.Signal {
	edge := (prediction - price) / price
	switch {
	case edge > threshold:
		return models.Long
	case edge < -threshold:
		return models.Short
	}
	return models.Flat
}

// momentumSignal requires the predicted edge and the recent realized trend to
// agree in direction; anything else is flat. With no full trailing window yet
// there is no trend to confirm, so the signal is flat.
func momentumSignal(prediction, price float64, window []float64, threshold float64) models.Signal {
	if len(window) == 0 {
		return models.Flat
	}
	trend := price - window[0]
	edge := (prediction - price) / price
	switch {
	case edge > threshold && trend > 0:
		return models.Long
	case edge < -threshold && trend < 0:
		return models.Short
	}
	return models.Flat
}
