// Package forecast provides naive reference models behind the same
// fit/predict interface the external ARIMA/Prophet/LSTM backends implement.
// They give the comparison layer honest baselines and keep the CLI usable
// without the model-serving stack.
package forecast

import (
	"errors"
	"fmt"

	"github.com/enerquant/backtest/models"
)

// ErrNotFitted is returned by Predict before Fit has been called
var ErrNotFitted = errors.New("model has not been fitted")

// Persistence predicts the last observed value for every future step
type Persistence struct {
	last   float64
	fitted bool
}

// NewPersistence returns a factory for persistence models
func NewPersistence() models.ModelFactory {
	return func() models.Model { return &Persistence{} }
}

func (m *Persistence) Fit(history []float64) error {
	if len(history) == 0 {
		return errors.New("empty training series")
	}
	m.last = history[len(history)-1]
	m.fitted = true
	return nil
}

func (m *Persistence) Predict(steps int) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if steps < 1 {
		return nil, fmt.Errorf("steps must be positive, got %d", steps)
	}
	out := make([]float64, steps)
	for i := range out {
		out[i] = m.last
	}
	return out, nil
}

// Drift extrapolates the average historical step forward from the last value
type Drift struct {
	last   float64
	slope  float64
	fitted bool
}

// NewDrift returns a factory for drift models
func NewDrift() models.ModelFactory {
	return func() models.Model { return &Drift{} }
}

func (m *Drift) Fit(history []float64) error {
	if len(history) < 2 {
		return fmt.Errorf("drift model needs at least 2 points, got %d", len(history))
	}
	m.last = history[len(history)-1]
	m.slope = (history[len(history)-1] - history[0]) / float64(len(history)-1)
	m.fitted = true
	return nil
}

func (m *Drift) Predict(steps int) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if steps < 1 {
		return nil, fmt.Errorf("steps must be positive, got %d", steps)
	}
	out := make([]float64, steps)
	for i := range out {
		out[i] = m.last + m.slope*float64(i+1)
	}
	return out, nil
}

// MovingAverage predicts the mean of the trailing window for every step
type MovingAverage struct {
	window int
	value  float64
	fitted bool
}

// NewMovingAverage returns a factory for moving-average models with the given
// window
func NewMovingAverage(window int) models.ModelFactory {
	return func() models.Model { return &MovingAverage{window: window} }
}

func (m *MovingAverage) Fit(history []float64) error {
	if m.window < 1 {
		return fmt.Errorf("window must be positive, got %d", m.window)
	}
	if len(history) < m.window {
		return fmt.Errorf("moving average needs %d points, got %d", m.window, len(history))
	}
	var sum float64
	for _, v := range history[len(history)-m.window:] {
		sum += v
	}
	m.value = sum / float64(m.window)
	m.fitted = true
	return nil
}

func (m *MovingAverage) Predict(steps int) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if steps < 1 {
		return nil, fmt.Errorf("steps must be positive, got %d", steps)
	}
	out := make([]float64, steps)
	for i := range out {
		out[i] = m.value
	}
	return out, nil
}
